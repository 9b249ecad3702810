// Package models 定义疼痛反馈系统的核心数据模型
//
// 主要模型：
// - PainSignal：规范化疼痛信号（各传感器适配后的统一格式，发布后不可变）
// - GestureModifiers：下游手势执行读取的调整参数快照
// - PressureReading / ExpressionReading：上游传感器的原始读数格式
package models

import "time"

// 疼痛等级（0-4 序数刻度，与传感器来源无关）
const (
	PainLevelNone     = 0 // 无疼痛
	PainLevelLight    = 1 // 轻度（piezo: LIGHT, face: MILD）
	PainLevelModerate = 2 // 中度
	PainLevelHigh     = 3 // 高（piezo: HIGH, face: SEVERE）
	PainLevelCritical = 4 // 危急（piezo: CRITICAL, face: EXTREME）
)

// 信号来源
const (
	SourcePiezo = "piezo"
	SourceFace  = "face"
	SourceFused = "fused"
)

// painLevelNames 等级的文本表示（pain_level_name 必须与 pain_level 一致）
var painLevelNames = [5]string{"NONE", "LIGHT", "MODERATE", "HIGH", "CRITICAL"}

// PainLevelName 返回等级的文本表示（越界等级先钳制到 [0,4]）
func PainLevelName(level int) string {
	return painLevelNames[ClampPainLevel(level)]
}

// ClampPainLevel 将等级钳制到 [0,4]
// 传感器噪声不允许使安全路径崩溃，越界值只钳制、不拒绝
func ClampPainLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > 4 {
		return 4
	}
	return level
}

// PainSignal 规范化疼痛信号
//
// 每次传感器 tick 或融合 tick 产生一条，发布后不可变。
// 下游通过发布器的线程安全快照读取，永远不修改已发布的信号。
//
// 不变量：
// - ShouldStop == true 时 SpeedModifier == 0
// - PainLevel == CRITICAL 时 ShouldStop == true
// - PainLevel == HIGH 时 ShouldPause == true
type PainSignal struct {
	Timestamp     float64 `json:"timestamp"`       // 单调挂钟秒
	PainLevel     int     `json:"pain_level"`      // 0-4
	PainLevelName string  `json:"pain_level_name"` // 等级的文本镜像
	PainScore     float64 `json:"pain_score"`      // 0-100
	Source        string  `json:"source"`          // "piezo" / "face" / "fused"
	Confidence    float64 `json:"confidence"`      // 0-1

	// 推荐的手势调整系数（0-1，1.0 = 不限制）
	SpeedModifier     float64 `json:"speed_modifier"`
	AmplitudeModifier float64 `json:"amplitude_modifier"`
	ForceModifier     float64 `json:"force_modifier"`

	// 控制标志
	ShouldPause bool `json:"should_pause"` // 暂停手势执行
	ShouldStop  bool `json:"should_stop"`  // 紧急停止

	// 来源特定的诊断信息（不透明，可为空）
	Details map[string]interface{} `json:"details,omitempty"`
}

// GestureModifiers 手势执行调整参数快照（消费端视图）
type GestureModifiers struct {
	SpeedModifier     float64 `json:"speed_modifier"`
	AmplitudeModifier float64 `json:"amplitude_modifier"`
	ForceModifier     float64 `json:"force_modifier"`
	ShouldPause       bool    `json:"should_pause"`
	ShouldStop        bool    `json:"should_stop"`
	PainLevel         int     `json:"pain_level"`
	PainScore         float64 `json:"pain_score"`
	Timestamp         float64 `json:"timestamp"`
	Confidence        float64 `json:"confidence"`
}

// NeutralModifiers 无限制的调整参数（全速）
func NeutralModifiers() GestureModifiers {
	return GestureModifiers{
		SpeedModifier:     1.0,
		AmplitudeModifier: 1.0,
		ForceModifier:     1.0,
	}
}

// ConservativeModifiers 保守的失效安全默认值
// 上游静默时降级为谨慎（半速 + 暂停），绝不降级为全速
func ConservativeModifiers() GestureModifiers {
	return GestureModifiers{
		SpeedModifier:     0.5,
		AmplitudeModifier: 0.5,
		ForceModifier:     0.5,
		ShouldPause:       true,
		Confidence:        0,
	}
}

// ModifiersFromSignal 从已发布的信号构建消费端快照
func ModifiersFromSignal(sig *PainSignal) GestureModifiers {
	return GestureModifiers{
		SpeedModifier:     sig.SpeedModifier,
		AmplitudeModifier: sig.AmplitudeModifier,
		ForceModifier:     sig.ForceModifier,
		ShouldPause:       sig.ShouldPause,
		ShouldStop:        sig.ShouldStop,
		PainLevel:         sig.PainLevel,
		PainScore:         sig.PainScore,
		Timestamp:         sig.Timestamp,
		Confidence:        sig.Confidence,
	}
}

// NowSeconds 当前挂钟时间（秒，float64）
func NowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
