package nachi

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nishantkapps/feedback/internal/consumer"
	"github.com/nishantkapps/feedback/internal/models"
	"github.com/nishantkapps/feedback/internal/modifier"
)

func sampleCommand() *Command {
	return &Command{
		SpeedOverride: 50,
		MotionScale:   70,
		ForceLimit:    60,
		ExternalPause: false,
		ExternalStop:  false,
		EnableMotion:  true,
		Timestamp:     1724900000.123456789,
		Source:        "pain_feedback",
		Confidence:    0.85,
		PainLevel:     2,
	}
}

func TestCommand_RoundTrip(t *testing.T) {
	cmd := sampleCommand()

	data := cmd.ToBytes()
	require.Len(t, data, CommandSize)

	decoded, err := FromBytes(data)
	require.NoError(t, err)

	// 逐字段一致，时间戳保留完整 float64 精度
	assert.Equal(t, cmd, decoded)
}

func TestCommand_RoundTripAllFlags(t *testing.T) {
	cmd := &Command{
		SpeedOverride: 0,
		MotionScale:   0,
		ForceLimit:    10,
		ExternalPause: true,
		ExternalStop:  true,
		EnableMotion:  false,
		Timestamp:     models.NowSeconds(),
		Source:        "pain_feedback",
		Confidence:    1.0,
		PainLevel:     4,
	}

	decoded, err := FromBytes(cmd.ToBytes())
	require.NoError(t, err)
	assert.Equal(t, cmd, decoded)
}

func TestCommand_ByteLayout(t *testing.T) {
	cmd := sampleCommand()
	cmd.ExternalPause = true

	data := cmd.ToBytes()
	assert.Equal(t, byte(50), data[0])
	assert.Equal(t, byte(70), data[1])
	assert.Equal(t, byte(60), data[2])
	// bit0=pause, bit2=enable
	assert.Equal(t, byte(FlagPause|FlagEnable), data[3])
	// pain_level 小端 uint16
	assert.Equal(t, byte(2), data[4])
	assert.Equal(t, byte(0), data[5])
	// confidence*1000 = 850 = 0x0352 小端
	assert.Equal(t, byte(0x52), data[6])
	assert.Equal(t, byte(0x03), data[7])
}

func TestFromBytes_InvalidLength(t *testing.T) {
	_, err := FromBytes([]byte{1, 2, 3})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid command length")

	_, err = FromBytes(make([]byte, 32))
	assert.Error(t, err)
}

func TestTranslate_ModeratePain(t *testing.T) {
	m := modifier.NewMapper()
	sig := m.NewSignal(models.PainLevelModerate, "MODERATE", 0, models.SourceFused, 0.85, nil)

	cmd := NewTranslator().Translate(&sig)

	assert.Equal(t, 50, cmd.SpeedOverride)
	assert.Equal(t, 70, cmd.MotionScale)
	assert.Equal(t, 60, cmd.ForceLimit)
	assert.False(t, cmd.ExternalPause)
	assert.False(t, cmd.ExternalStop)
	assert.True(t, cmd.EnableMotion)
	assert.Equal(t, models.PainLevelModerate, cmd.PainLevel)
	assert.Equal(t, 0.85, cmd.Confidence)
	assert.Equal(t, "pain_feedback", cmd.Source)
}

func TestTranslate_FloorsApply(t *testing.T) {
	sig := models.PainSignal{
		SpeedModifier:     0.01,
		AmplitudeModifier: 0.02,
		ForceModifier:     0.03,
		Timestamp:         models.NowSeconds(),
	}

	cmd := NewTranslator().Translate(&sig)
	assert.Equal(t, DefaultMinSpeed, cmd.SpeedOverride)
	assert.Equal(t, DefaultMinMotion, cmd.MotionScale)
	assert.Equal(t, DefaultMinForce, cmd.ForceLimit)
}

func TestTranslate_StopOverridesFloor(t *testing.T) {
	m := modifier.NewMapper()
	sig := m.NewSignal(models.PainLevelCritical, "CRITICAL", 95, models.SourceFused, 1.0, nil)

	cmd := NewTranslator().Translate(&sig)

	// 停止覆盖下限：speed_override=0 而不是 5
	assert.Equal(t, 0, cmd.SpeedOverride)
	assert.Equal(t, 0, cmd.MotionScale)
	assert.False(t, cmd.EnableMotion)
	assert.True(t, cmd.ExternalStop)
	// 制动力仍保留下限
	assert.Equal(t, DefaultMinForce, cmd.ForceLimit)
}

func TestTranslate_CustomFloors(t *testing.T) {
	sig := models.PainSignal{Timestamp: models.NowSeconds()}

	cmd := NewTranslatorWithFloors(20, 30, 40).Translate(&sig)
	assert.Equal(t, 20, cmd.SpeedOverride)
	assert.Equal(t, 30, cmd.MotionScale)
	assert.Equal(t, 40, cmd.ForceLimit)
}

func TestTranslate_MissingTimestampFilled(t *testing.T) {
	cmd := NewTranslator().Translate(&models.PainSignal{})
	assert.Greater(t, cmd.Timestamp, 0.0)
}

func TestInterface_FileMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "nachi_command.json")

	iface := NewInterface(ProtocolFile, "", 0, path, zap.NewNop())
	require.NoError(t, iface.Connect())
	defer iface.Disconnect()

	cmd := sampleCommand()
	require.NoError(t, iface.SendCommand(cmd))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Command
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, *cmd, decoded)
	assert.Equal(t, cmd, iface.LastCommand())
}

func TestInterface_SendWithoutConnect(t *testing.T) {
	iface := NewInterface(ProtocolFile, "", 0, "out.json", zap.NewNop())
	err := iface.SendCommand(sampleCommand())
	assert.Error(t, err)
}

func TestInterface_TCPMode(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, CommandSize)
		if _, err := conn.Read(buf); err == nil {
			received <- buf
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	iface := NewInterface(ProtocolTCP, "127.0.0.1", port, "", zap.NewNop())
	require.NoError(t, iface.Connect())
	defer iface.Disconnect()

	cmd := sampleCommand()
	require.NoError(t, iface.SendCommand(cmd))

	select {
	case data := <-received:
		decoded, err := FromBytes(data)
		require.NoError(t, err)
		assert.Equal(t, cmd, decoded)
	case <-time.After(2 * time.Second):
		t.Fatal("command not received over TCP")
	}
}

func TestInterface_UnsupportedProtocol(t *testing.T) {
	iface := NewInterface("ethernet_ip", "127.0.0.1", 5000, "", zap.NewNop())
	assert.Error(t, iface.Connect())
}

func TestFeedbackBridge_FileToFile(t *testing.T) {
	dir := t.TempDir()
	feedbackPath := filepath.Join(dir, "pain_feedback.json")
	commandPath := filepath.Join(dir, "nachi_command.json")

	iface := NewInterface(ProtocolFile, "", 0, commandPath, zap.NewNop())
	bridge := NewFeedbackBridge(
		consumer.NewFileSource(feedbackPath, 10*time.Millisecond),
		iface,
		nil,
		zap.NewNop(),
	)

	sent := make(chan *Command, 1)
	bridge.SetCallback(func(cmd *Command) { sent <- cmd })

	require.NoError(t, bridge.Start())
	defer bridge.Stop()

	m := modifier.NewMapper()
	sig := m.NewSignal(models.PainLevelHigh, "HIGH", 60, models.SourceFused, 0.9, nil)
	data, err := json.Marshal(sig)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(feedbackPath, data, 0644))

	select {
	case cmd := <-sent:
		assert.Equal(t, 20, cmd.SpeedOverride)
		assert.True(t, cmd.ExternalPause)
		assert.False(t, cmd.ExternalStop)
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not forward feedback")
	}

	// 指令文件已写出
	cmdData, err := os.ReadFile(commandPath)
	require.NoError(t, err)
	var decoded Command
	require.NoError(t, json.Unmarshal(cmdData, &decoded))
	assert.Equal(t, models.PainLevelHigh, decoded.PainLevel)
}
