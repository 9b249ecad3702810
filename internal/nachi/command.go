package nachi

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// CommandSize 二进制指令的固定长度（字节）
const CommandSize = 16

// flags 字节的位定义
const (
	FlagPause  = 0x01 // 外部暂停信号
	FlagStop   = 0x02 // 紧急停止信号
	FlagEnable = 0x04 // 允许运动
)

// Command Nachi FD11 控制器指令
// speed_override 对应 OVRD 寄存器（0-100%），motion_scale / force_limit
// 分别对应运动幅度与力限制百分比
type Command struct {
	SpeedOverride int `json:"speed_override"` // 0-100（百分比）
	MotionScale   int `json:"motion_scale"`   // 0-100（百分比）
	ForceLimit    int `json:"force_limit"`    // 0-100（百分比）

	ExternalPause bool `json:"external_pause"` // 暂停机器人运动
	ExternalStop  bool `json:"external_stop"`  // 紧急停止
	EnableMotion  bool `json:"enable_motion"`  // 允许运动

	Timestamp  float64 `json:"timestamp"`
	Source     string  `json:"source"`     // 固定为 "pain_feedback"
	Confidence float64 `json:"confidence"` // 0-1，读数置信度
	PainLevel  int     `json:"pain_level"` // 0-4，仅作参考
}

// ToBytes 编码为工业协议使用的二进制格式
//
// 布局（16 字节，小端）：
//   - 字节 0: speed_override (uint8)
//   - 字节 1: motion_scale (uint8)
//   - 字节 2: force_limit (uint8)
//   - 字节 3: flags (bit0=pause, bit1=stop, bit2=enable)
//   - 字节 4-5: pain_level (uint16)
//   - 字节 6-7: confidence * 1000 (uint16)
//   - 字节 8-15: timestamp (float64)
func (c *Command) ToBytes() []byte {
	var flags uint8
	if c.ExternalPause {
		flags |= FlagPause
	}
	if c.ExternalStop {
		flags |= FlagStop
	}
	if c.EnableMotion {
		flags |= FlagEnable
	}

	buf := make([]byte, CommandSize)
	buf[0] = uint8(c.SpeedOverride)
	buf[1] = uint8(c.MotionScale)
	buf[2] = uint8(c.ForceLimit)
	buf[3] = flags
	binary.LittleEndian.PutUint16(buf[4:6], uint16(c.PainLevel))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(math.Round(c.Confidence*1000)))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(c.Timestamp))
	return buf
}

// FromBytes 从二进制格式解析指令（ToBytes 的精确逆操作）
func FromBytes(data []byte) (*Command, error) {
	if len(data) != CommandSize {
		return nil, fmt.Errorf("invalid command length: got %d bytes, want %d", len(data), CommandSize)
	}

	flags := data[3]
	return &Command{
		SpeedOverride: int(data[0]),
		MotionScale:   int(data[1]),
		ForceLimit:    int(data[2]),
		ExternalPause: flags&FlagPause != 0,
		ExternalStop:  flags&FlagStop != 0,
		EnableMotion:  flags&FlagEnable != 0,
		PainLevel:     int(binary.LittleEndian.Uint16(data[4:6])),
		Confidence:    float64(binary.LittleEndian.Uint16(data[6:8])) / 1000.0,
		Timestamp:     math.Float64frombits(binary.LittleEndian.Uint64(data[8:16])),
		Source:        "pain_feedback",
	}, nil
}

// ToJSON 编码为缩进 JSON（文件模式输出）
func (c *Command) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
