package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nishantkapps/feedback/internal/models"
	"github.com/nishantkapps/feedback/internal/modifier"
)

func TestPiezoToSignal(t *testing.T) {
	m := modifier.NewMapper()

	reading := models.PressureReading{
		Raw:       300,
		Filtered:  298,
		Pressure:  300,
		Percent:   58.7,
		Level:     "HIGH",
		Timestamp: 1700000000000,
	}

	sig := PiezoToSignal(reading, m)

	assert.Equal(t, models.PainLevelHigh, sig.PainLevel)
	assert.Equal(t, "HIGH", sig.PainLevelName)
	assert.Equal(t, 58.7, sig.PainScore)
	assert.Equal(t, models.SourcePiezo, sig.Source)
	assert.Equal(t, 1.0, sig.Confidence)
	assert.True(t, sig.ShouldPause)
	assert.False(t, sig.ShouldStop)

	assert.Equal(t, 300, sig.Details["pressure"])
	assert.Equal(t, int64(1700000000000), sig.Details["timestamp"])
}

func TestPiezoToSignal_LevelVocabulary(t *testing.T) {
	m := modifier.NewMapper()

	cases := map[string]int{
		"NONE":     models.PainLevelNone,
		"LIGHT":    models.PainLevelLight,
		"MODERATE": models.PainLevelModerate,
		"HIGH":     models.PainLevelHigh,
		"CRITICAL": models.PainLevelCritical,
	}
	for name, level := range cases {
		sig := PiezoToSignal(models.PressureReading{Level: name}, m)
		assert.Equal(t, level, sig.PainLevel, name)
	}
}

func TestPiezoToSignal_UnknownLevel(t *testing.T) {
	m := modifier.NewMapper()

	sig := PiezoToSignal(models.PressureReading{Level: "GARBAGE"}, m)
	assert.Equal(t, models.PainLevelNone, sig.PainLevel)
	assert.False(t, sig.ShouldPause)
	assert.False(t, sig.ShouldStop)
}

func TestFaceToSignal_Detected(t *testing.T) {
	m := modifier.NewMapper()

	reading := models.ExpressionReading{
		PainScore:    70,
		Level:        "SEVERE",
		BrowFurrow:   0.8,
		EyeSqueeze:   0.6,
		NoseWrinkle:  0.4,
		LipRaise:     0.5,
		FaceDetected: true,
		FrameNumber:  1234,
	}

	sig := FaceToSignal(reading, m)

	// SEVERE → 序数 HIGH
	assert.Equal(t, models.PainLevelHigh, sig.PainLevel)
	assert.Equal(t, "SEVERE", sig.PainLevelName)
	assert.Equal(t, models.SourceFace, sig.Source)
	assert.Equal(t, 0.9, sig.Confidence)
	assert.True(t, sig.ShouldPause)

	assert.Equal(t, 0.8, sig.Details["brow_furrow"])
	assert.Equal(t, 1234, sig.Details["frame_number"])
}

func TestFaceToSignal_NoFace(t *testing.T) {
	m := modifier.NewMapper()

	// 无人脸 ⇒ 置信度 0，但记录仍然发出（供过期检测使用）
	sig := FaceToSignal(models.ExpressionReading{
		Level:        "MODERATE",
		PainScore:    40,
		FaceDetected: false,
	}, m)

	assert.Equal(t, 0.0, sig.Confidence)
	assert.Equal(t, models.PainLevelModerate, sig.PainLevel)
	assert.Equal(t, false, sig.Details["face_detected"])
}

func TestFaceToSignal_LevelVocabulary(t *testing.T) {
	m := modifier.NewMapper()

	cases := map[string]int{
		"NONE":     models.PainLevelNone,
		"MILD":     models.PainLevelLight,
		"MODERATE": models.PainLevelModerate,
		"SEVERE":   models.PainLevelHigh,
		"EXTREME":  models.PainLevelCritical,
	}
	for name, level := range cases {
		sig := FaceToSignal(models.ExpressionReading{Level: name, FaceDetected: true}, m)
		assert.Equal(t, level, sig.PainLevel, name)
	}
}
