package models

// PressureReading 压电传感器读数（上游协作方产生，本系统只消费）
//
// Level 词汇表：NONE / LIGHT / MODERATE / HIGH / CRITICAL
type PressureReading struct {
	Raw       int     `json:"raw"`       // ADC 原始值
	Filtered  int     `json:"filtered"`  // 滤波后的值
	Pressure  int     `json:"pressure"`  // 压力值
	Percent   float64 `json:"percent"`   // 0-100
	Level     string  `json:"level"`     // 等级名称
	Timestamp int64   `json:"timestamp"` // 毫秒
}

// ExpressionReading 面部表情分析器读数（上游协作方产生，本系统只消费）
//
// Level 词汇表：NONE / MILD / MODERATE / SEVERE / EXTREME
type ExpressionReading struct {
	PainScore    float64 `json:"pain_score"` // 0-100
	Level        string  `json:"level"`      // 等级名称
	BrowFurrow   float64 `json:"brow_furrow"`
	EyeSqueeze   float64 `json:"eye_squeeze"`
	NoseWrinkle  float64 `json:"nose_wrinkle"`
	LipRaise     float64 `json:"lip_raise"`
	FaceDetected bool    `json:"face_detected"`
	FrameNumber  int     `json:"frame_number"`
	Timestamp    float64 `json:"timestamp"` // 秒
}
