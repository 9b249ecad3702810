// Package adapter 将各传感器的原始读数转换为规范疼痛信号
//
// 每种来源有自己的等级词汇表，通过固定查找表映射到统一的 0-4 序数刻度：
// - piezo: NONE/LIGHT/MODERATE/HIGH/CRITICAL（一一对应）
// - face:  NONE/MILD/MODERATE/SEVERE/EXTREME
//
// 置信度规则：
//   - piezo 恒为 1.0（物理接触传感器）
//   - face 检测到人脸为 0.9，否则 0.0（无人脸 ⇒ 信号不可信，
//     但记录仍然发出，保证过期检测有数据）
package adapter

import (
	"github.com/nishantkapps/feedback/internal/models"
	"github.com/nishantkapps/feedback/internal/modifier"
)

// piezoLevelMap 压电传感器等级词汇表 → 序数等级
var piezoLevelMap = map[string]int{
	"NONE":     models.PainLevelNone,
	"LIGHT":    models.PainLevelLight,
	"MODERATE": models.PainLevelModerate,
	"HIGH":     models.PainLevelHigh,
	"CRITICAL": models.PainLevelCritical,
}

// faceLevelMap 面部分析器等级词汇表 → 序数等级
var faceLevelMap = map[string]int{
	"NONE":     models.PainLevelNone,
	"MILD":     models.PainLevelLight,
	"MODERATE": models.PainLevelModerate,
	"SEVERE":   models.PainLevelHigh,
	"EXTREME":  models.PainLevelCritical,
}

// face 读数的固定置信度
const (
	faceConfidenceDetected = 0.9
	faceConfidenceNoFace   = 0.0
)

// PiezoToSignal 将压电传感器读数转换为规范疼痛信号
// 未知等级名按 NONE 处理
func PiezoToSignal(reading models.PressureReading, mapper *modifier.Mapper) models.PainSignal {
	level := piezoLevelMap[reading.Level] // 未知键得零值 NONE

	return mapper.NewSignal(
		level,
		reading.Level,
		reading.Percent,
		models.SourcePiezo,
		1.0,
		map[string]interface{}{
			"raw":       reading.Raw,
			"filtered":  reading.Filtered,
			"pressure":  reading.Pressure,
			"timestamp": reading.Timestamp,
		},
	)
}

// FaceToSignal 将面部表情读数转换为规范疼痛信号
func FaceToSignal(reading models.ExpressionReading, mapper *modifier.Mapper) models.PainSignal {
	level := faceLevelMap[reading.Level]

	confidence := faceConfidenceNoFace
	if reading.FaceDetected {
		confidence = faceConfidenceDetected
	}

	return mapper.NewSignal(
		level,
		reading.Level,
		reading.PainScore,
		models.SourceFace,
		confidence,
		map[string]interface{}{
			"brow_furrow":   reading.BrowFurrow,
			"eye_squeeze":   reading.EyeSqueeze,
			"nose_wrinkle":  reading.NoseWrinkle,
			"lip_raise":     reading.LipRaise,
			"face_detected": reading.FaceDetected,
			"frame_number":  reading.FrameNumber,
		},
	)
}
