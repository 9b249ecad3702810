package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nishantkapps/feedback/internal/config"
	"github.com/nishantkapps/feedback/internal/models"
	"github.com/nishantkapps/feedback/internal/nachi"
)

// fileOnlyConfig 纯文件模式配置，不依赖任何外部系统
func fileOnlyConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Bridge.FusionEnabled = true
	cfg.Bridge.FusionIntervalMs = 20
	cfg.Bridge.PiezoWeight = 0.6
	cfg.Bridge.FaceWeight = 0.4

	cfg.Publisher.OutputFile = filepath.Join(dir, "pain_feedback.json")

	cfg.Consumer.Enabled = true
	cfg.Consumer.FeedbackFile = cfg.Publisher.OutputFile
	cfg.Consumer.PollIntervalMs = 10
	cfg.Consumer.StaleThresholdS = 2.0
	cfg.Consumer.DefaultOnMissing = true

	cfg.Nachi.Enabled = true
	cfg.Nachi.Protocol = nachi.ProtocolFile
	cfg.Nachi.OutputFile = filepath.Join(dir, "nachi_command.json")
	cfg.Nachi.MinSpeed = 5
	cfg.Nachi.MinMotion = 10
	cfg.Nachi.MinForce = 10

	return cfg
}

func TestBridgeService_EndToEnd(t *testing.T) {
	cfg := fileOnlyConfig(t)

	svc, err := NewBridgeService(cfg, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, svc.Start(ctx))
	defer svc.Stop(ctx)

	// 注入一次压力读数，融合循环发布 → 消费端拾取 → 控制器指令落盘
	svc.Bridge().UpdatePiezo(models.PressureReading{
		Raw:       512,
		Filtered:  480,
		Pressure:  300,
		Percent:   58.7,
		Level:     "HIGH",
		Timestamp: time.Now().UnixMilli(),
	})

	require.Eventually(t, func() bool {
		if svc.Publisher().Latest() == nil {
			return false
		}
		_, err := os.Stat(cfg.Nachi.OutputFile)
		return err == nil
	}, 3*time.Second, 20*time.Millisecond)

	latest := svc.Publisher().Latest()
	assert.Equal(t, models.SourceFused, latest.Source)
	assert.Equal(t, models.PainLevelHigh, latest.PainLevel)

	// 消费端看到同一信号
	require.Eventually(t, func() bool {
		return svc.Consumer().GetModifiers().PainLevel == models.PainLevelHigh
	}, 3*time.Second, 20*time.Millisecond)

	// 控制器指令反映暂停与限速
	data, err := os.ReadFile(cfg.Nachi.OutputFile)
	require.NoError(t, err)
	var cmd nachi.Command
	require.NoError(t, json.Unmarshal(data, &cmd))
	assert.True(t, cmd.ExternalPause)
	assert.False(t, cmd.ExternalStop)
	assert.Equal(t, models.PainLevelHigh, cmd.PainLevel)
}

func TestBridgeService_StopIdempotentComponents(t *testing.T) {
	cfg := fileOnlyConfig(t)
	cfg.Consumer.Enabled = false
	cfg.Nachi.Enabled = false

	svc, err := NewBridgeService(cfg, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, svc.Start(ctx))
	require.NoError(t, svc.Stop(ctx))

	assert.Nil(t, svc.Consumer())
}

func TestBridgeService_InvalidSocketProtocol(t *testing.T) {
	cfg := fileOnlyConfig(t)
	cfg.Publisher.SocketHost = "127.0.0.1"
	cfg.Publisher.SocketProtocol = "sctp"

	_, err := NewBridgeService(cfg, zap.NewNop())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported socket protocol")
}

func TestBridgeService_ModifierMapOverride(t *testing.T) {
	cfg := fileOnlyConfig(t)
	cfg.Consumer.Enabled = false
	cfg.Nachi.Enabled = false

	mapFile := filepath.Join(t.TempDir(), "maps.yaml")
	require.NoError(t, os.WriteFile(mapFile, []byte(
		"speed: [1.0, 0.9, 0.6, 0.3, 0.0]\n",
	), 0644))
	cfg.Bridge.ModifierMapFile = mapFile

	svc, err := NewBridgeService(cfg, zap.NewNop())
	require.NoError(t, err)

	sig := svc.Bridge().UpdatePiezo(models.PressureReading{
		Pressure: 160,
		Percent:  40,
		Level:    "MODERATE",
	})
	// 覆盖表中 MODERATE 的速度系数为 0.6（40 分恰好无细调）
	assert.InDelta(t, 0.6, sig.SpeedModifier, 1e-9)
}

func TestBridgeService_BadModifierMapFile(t *testing.T) {
	cfg := fileOnlyConfig(t)
	cfg.Bridge.ModifierMapFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := NewBridgeService(cfg, zap.NewNop())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "modifier map file")
}
