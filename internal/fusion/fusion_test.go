package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nishantkapps/feedback/internal/adapter"
	"github.com/nishantkapps/feedback/internal/models"
	"github.com/nishantkapps/feedback/internal/modifier"
)

func TestFuse_BothMissing(t *testing.T) {
	sig := Fuse(nil, nil, 0.6, 0.4)

	assert.Equal(t, models.PainLevelNone, sig.PainLevel)
	assert.Equal(t, "NONE", sig.PainLevelName)
	assert.Equal(t, 0.0, sig.PainScore)
	assert.Equal(t, 0.0, sig.Confidence)
	assert.Equal(t, models.SourceFused, sig.Source)
	assert.False(t, sig.ShouldPause)
	assert.False(t, sig.ShouldStop)
}

func TestFuse_SingleSourcePassThrough(t *testing.T) {
	m := modifier.NewMapper()
	piezo := m.NewSignal(models.PainLevelModerate, "MODERATE", 40, models.SourcePiezo, 1.0, nil)

	sig := Fuse(&piezo, nil, 0.6, 0.4)

	// 仅改来源标签，系数/标志不变
	assert.Equal(t, models.SourceFused, sig.Source)
	assert.Equal(t, piezo.PainLevel, sig.PainLevel)
	assert.Equal(t, piezo.PainScore, sig.PainScore)
	assert.Equal(t, piezo.SpeedModifier, sig.SpeedModifier)
	assert.Equal(t, piezo.ShouldPause, sig.ShouldPause)

	// 原信号不被修改
	assert.Equal(t, models.SourcePiezo, piezo.Source)

	face := m.NewSignal(models.PainLevelLight, "MILD", 15, models.SourceFace, 0.9, nil)
	sig = Fuse(nil, &face, 0.6, 0.4)
	assert.Equal(t, models.SourceFused, sig.Source)
	assert.Equal(t, face.AmplitudeModifier, sig.AmplitudeModifier)
}

func TestFuse_MaxLevel(t *testing.T) {
	m := modifier.NewMapper()

	// 等级取最大，对所有组合成立
	for la := 0; la <= 4; la++ {
		for lb := 0; lb <= 4; lb++ {
			a := m.NewSignal(la, models.PainLevelName(la), 10, models.SourcePiezo, 1.0, nil)
			b := m.NewSignal(lb, models.PainLevelName(lb), 10, models.SourceFace, 0.9, nil)

			sig := Fuse(&a, &b, 0.6, 0.4)

			want := la
			if lb > la {
				want = lb
			}
			assert.Equal(t, want, sig.PainLevel, "levels %d/%d", la, lb)
			assert.Equal(t, models.PainLevelName(want), sig.PainLevelName)
		}
	}
}

func TestFuse_MinModifiers(t *testing.T) {
	m := modifier.NewMapper()
	a := m.NewSignal(models.PainLevelLight, "LIGHT", 10, models.SourcePiezo, 1.0, nil)
	b := m.NewSignal(models.PainLevelHigh, "SEVERE", 65, models.SourceFace, 0.9, nil)

	sig := Fuse(&a, &b, 0.6, 0.4)

	assert.Equal(t, minF(a.SpeedModifier, b.SpeedModifier), sig.SpeedModifier)
	assert.Equal(t, minF(a.AmplitudeModifier, b.AmplitudeModifier), sig.AmplitudeModifier)
	assert.Equal(t, minF(a.ForceModifier, b.ForceModifier), sig.ForceModifier)
}

func TestFuse_FlagsOr(t *testing.T) {
	m := modifier.NewMapper()
	calm := m.NewSignal(models.PainLevelNone, "NONE", 0, models.SourcePiezo, 1.0, nil)
	high := m.NewSignal(models.PainLevelHigh, "HIGH", 70, models.SourceFace, 0.9, nil)
	critical := m.NewSignal(models.PainLevelCritical, "CRITICAL", 95, models.SourceFace, 0.9, nil)

	sig := Fuse(&calm, &high, 0.6, 0.4)
	assert.True(t, sig.ShouldPause)
	assert.False(t, sig.ShouldStop)

	sig = Fuse(&calm, &critical, 0.6, 0.4)
	assert.True(t, sig.ShouldStop)
}

func TestFuse_WeightNormalization(t *testing.T) {
	m := modifier.NewMapper()
	a := m.NewSignal(models.PainLevelModerate, "MODERATE", 50, models.SourcePiezo, 1.0, nil)
	b := m.NewSignal(models.PainLevelModerate, "MODERATE", 50, models.SourceFace, 1.0, nil)

	// 权重 3/2 归一化后等价于 0.6/0.4
	sig1 := Fuse(&a, &b, 3, 2)
	sig2 := Fuse(&a, &b, 0.6, 0.4)

	assert.InDelta(t, sig2.PainScore, sig1.PainScore, 1e-9)
	assert.InDelta(t, sig2.Confidence, sig1.Confidence, 1e-9)

	weights := sig1.Details["weights"].(map[string]float64)
	assert.InDelta(t, 0.6, weights["piezo"], 1e-9)
	assert.InDelta(t, 0.4, weights["face"], 1e-9)
}

func TestFuse_ScoreAndConfidenceWeighting(t *testing.T) {
	m := modifier.NewMapper()
	a := m.NewSignal(models.PainLevelModerate, "MODERATE", 60, models.SourcePiezo, 1.0, nil)
	b := m.NewSignal(models.PainLevelLight, "MILD", 20, models.SourceFace, 0.5, nil)

	sig := Fuse(&a, &b, 0.6, 0.4)

	// score = 60*0.6*1.0 + 20*0.4*0.5 = 36 + 4 = 40
	assert.InDelta(t, 40.0, sig.PainScore, 1e-9)
	// confidence = 1.0*0.6 + 0.5*0.4 = 0.8
	assert.InDelta(t, 0.8, sig.Confidence, 1e-9)
}

func TestFuse_PiezoHighWithFaceSevere(t *testing.T) {
	m := modifier.NewMapper()

	// piezo pressure=300 → percent≈58.7%，HIGH
	piezoReading := models.PressureReading{
		Raw: 300, Filtered: 300, Pressure: 300,
		Percent: 58.7, Level: "HIGH", Timestamp: 1700000000000,
	}
	piezoSig := adapter.PiezoToSignal(piezoReading, m)

	// face pain_score=70 → SEVERE → 序数 HIGH
	faceReading := models.ExpressionReading{
		PainScore: 70, Level: "SEVERE", FaceDetected: true,
	}
	faceSig := adapter.FaceToSignal(faceReading, m)

	sig := Fuse(&piezoSig, &faceSig, 0.6, 0.4)

	assert.Equal(t, models.PainLevelHigh, sig.PainLevel)
	assert.True(t, sig.ShouldPause)
	assert.False(t, sig.ShouldStop)

	// fused speed = min(0.2*f1, 0.2*f2)
	// piezo: 58.7 mod 20 = 18.7 → f1 = 0.813; face: 70 mod 20 = 10 → f2 = 0.9
	assert.Equal(t, minF(piezoSig.SpeedModifier, faceSig.SpeedModifier), sig.SpeedModifier)
	assert.InDelta(t, 0.2*0.813, sig.SpeedModifier, 1e-9)
}
