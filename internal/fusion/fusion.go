// Package fusion 将多来源疼痛信号融合为统一信号
//
// 融合策略（"最大严重度、最小许可"，整条管线的核心安全契约）：
// - 等级取两路中的最大值（绝不向下平均，避免掩盖更严重的一路）
// - 速度/幅度/力度系数逐项取最小值（取更保守的限制）
// - 暂停/停止标志取逻辑或
// - 分数按权重和置信度加权求和，置信度按权重加权求和
//
// 缺路处理：
// - 两路都缺 → 零信号（等级 0、分数 0、置信度 0，source="fused"）
// - 只有一路 → 原样透传，仅把 source 改为 "fused"
package fusion

import (
	"github.com/nishantkapps/feedback/internal/models"
)

// Fuse 融合两路疼痛信号
//
// 权重在内部归一化为和 1；输入信号不会被修改（透传时返回副本）。
// details 携带两路输入的诊断信息和归一化后的权重，供审计/调试。
func Fuse(piezo, face *models.PainSignal, piezoWeight, faceWeight float64) models.PainSignal {
	// 两路都缺：零信号
	if piezo == nil && face == nil {
		return models.PainSignal{
			Timestamp:         models.NowSeconds(),
			PainLevel:         models.PainLevelNone,
			PainLevelName:     models.PainLevelName(models.PainLevelNone),
			PainScore:         0,
			Source:            models.SourceFused,
			Confidence:        0,
			SpeedModifier:     1.0,
			AmplitudeModifier: 1.0,
			ForceModifier:     1.0,
		}
	}

	// 只有一路：透传重贴来源标签
	if piezo == nil {
		return relabel(*face)
	}
	if face == nil {
		return relabel(*piezo)
	}

	// 权重归一化
	total := piezoWeight + faceWeight
	pw := piezoWeight / total
	fw := faceWeight / total

	// 分数按权重和置信度加权
	fusedScore := piezo.PainScore*pw*piezo.Confidence +
		face.PainScore*fw*face.Confidence

	// 等级取最大（安全偏置）
	fusedLevel := piezo.PainLevel
	if face.PainLevel > fusedLevel {
		fusedLevel = face.PainLevel
	}

	// 系数逐项取最小（保守）
	fusedSpeed := minF(piezo.SpeedModifier, face.SpeedModifier)
	fusedAmplitude := minF(piezo.AmplitudeModifier, face.AmplitudeModifier)
	fusedForce := minF(piezo.ForceModifier, face.ForceModifier)

	// 置信度按权重加权
	fusedConfidence := piezo.Confidence*pw + face.Confidence*fw

	return models.PainSignal{
		Timestamp:         models.NowSeconds(),
		PainLevel:         fusedLevel,
		PainLevelName:     models.PainLevelName(fusedLevel),
		PainScore:         fusedScore,
		Source:            models.SourceFused,
		Confidence:        fusedConfidence,
		SpeedModifier:     fusedSpeed,
		AmplitudeModifier: fusedAmplitude,
		ForceModifier:     fusedForce,
		ShouldPause:       piezo.ShouldPause || face.ShouldPause,
		ShouldStop:        piezo.ShouldStop || face.ShouldStop,
		Details: map[string]interface{}{
			"piezo":   piezo.Details,
			"face":    face.Details,
			"weights": map[string]float64{"piezo": pw, "face": fw},
		},
	}
}

// relabel 单路透传：系数/标志不变，仅改来源标签
func relabel(sig models.PainSignal) models.PainSignal {
	sig.Source = models.SourceFused
	return sig
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
