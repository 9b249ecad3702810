package nachi

import (
	"math"

	"github.com/nishantkapps/feedback/internal/models"
)

// 默认安全下限（百分比），防止 0% 指令使控制器永久停滞
const (
	DefaultMinSpeed  = 5
	DefaultMinMotion = 10
	DefaultMinForce  = 10
)

// Translator 将疼痛反馈信号翻译为 Nachi 指令
//
// 映射关系：
//   - speed_modifier (0.0-1.0) → speed_override (0-100%)
//   - amplitude_modifier (0.0-1.0) → motion_scale (0-100%)
//   - force_modifier (0.0-1.0) → force_limit (0-100%)
//   - should_pause → external_pause
//   - should_stop → external_stop
type Translator struct {
	minSpeed  int
	minMotion int
	minForce  int
}

// NewTranslator 创建带默认安全下限的翻译器
func NewTranslator() *Translator {
	return NewTranslatorWithFloors(DefaultMinSpeed, DefaultMinMotion, DefaultMinForce)
}

// NewTranslatorWithFloors 创建带自定义下限的翻译器
func NewTranslatorWithFloors(minSpeed, minMotion, minForce int) *Translator {
	return &Translator{
		minSpeed:  minSpeed,
		minMotion: minMotion,
		minForce:  minForce,
	}
}

// Translate 将反馈信号翻译为可发送的指令
//
// 紧急停止覆盖所有下限：speed_override 与 motion_scale 置 0 且禁止运动；
// force_limit 仍保留下限（制动力必须可用）
func (t *Translator) Translate(sig *models.PainSignal) *Command {
	speedOverride := percentWithFloor(sig.SpeedModifier, t.minSpeed)
	motionScale := percentWithFloor(sig.AmplitudeModifier, t.minMotion)
	forceLimit := percentWithFloor(sig.ForceModifier, t.minForce)

	if sig.ShouldStop {
		speedOverride = 0
		motionScale = 0
	}

	timestamp := sig.Timestamp
	if timestamp == 0 {
		timestamp = models.NowSeconds()
	}

	return &Command{
		SpeedOverride: speedOverride,
		MotionScale:   motionScale,
		ForceLimit:    forceLimit,
		ExternalPause: sig.ShouldPause,
		ExternalStop:  sig.ShouldStop,
		EnableMotion:  !sig.ShouldStop,
		Timestamp:     timestamp,
		Source:        "pain_feedback",
		Confidence:    sig.Confidence,
		PainLevel:     sig.PainLevel,
	}
}

// percentWithFloor 将 [0,1] 系数换算为带下限的整数百分比
func percentWithFloor(mod float64, floor int) int {
	pct := int(math.Round(mod * 100))
	if pct < floor {
		return floor
	}
	return pct
}
