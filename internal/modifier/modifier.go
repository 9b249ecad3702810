// Package modifier 将疼痛等级映射为手势调整系数
//
// 映射规则：
//   - 基础系数来自三张 等级→系数 查找表（速度/幅度/力度），表可通过配置替换
//   - 等级内细调系数 f = 1 - (score mod 20)/100（范围 [0.8,1.0]），
//     使等级内的分数变化产生平滑而非阶跃的运动变化
//   - 暂停/停止标志只由等级决定（HIGH→暂停，CRITICAL→停止），与分数无关，
//     保证安全触发条件确定且可审计
package modifier

import (
	"math"

	"github.com/nishantkapps/feedback/internal/models"
)

// LevelMap 等级→系数 查找表（下标即疼痛等级 0-4）
type LevelMap [5]float64

// 默认系数表
// 不变量：每张表随等级单调非增
var (
	DefaultSpeedMap     = LevelMap{1.0, 0.8, 0.5, 0.2, 0.0}
	DefaultAmplitudeMap = LevelMap{1.0, 0.9, 0.7, 0.5, 0.0}
	DefaultForceMap     = LevelMap{1.0, 0.85, 0.6, 0.3, 0.0}
)

// Modifiers 一次映射的输出
type Modifiers struct {
	Speed     float64
	Amplitude float64
	Force     float64
	Pause     bool
	Stop      bool
}

// Mapper 疼痛等级到手势系数的映射器（纯计算，无副作用）
type Mapper struct {
	speedMap     LevelMap
	amplitudeMap LevelMap
	forceMap     LevelMap
}

// NewMapper 使用默认系数表创建映射器
func NewMapper() *Mapper {
	return NewMapperWithMaps(DefaultSpeedMap, DefaultAmplitudeMap, DefaultForceMap)
}

// NewMapperWithMaps 使用自定义系数表创建映射器
func NewMapperWithMaps(speed, amplitude, force LevelMap) *Mapper {
	return &Mapper{
		speedMap:     speed,
		amplitudeMap: amplitude,
		forceMap:     force,
	}
}

// Map 计算给定等级和分数的手势系数
// 越界等级钳制到 [0,4]，绝不拒绝（传感器噪声不允许使安全路径崩溃）
func (m *Mapper) Map(level int, score float64) Modifiers {
	lv := models.ClampPainLevel(level)

	// 等级内细调：同一等级下分数越高，系数略低
	scoreFactor := 1.0 - math.Mod(score, 20)/100 // 0.8-1.0

	return Modifiers{
		Speed:     m.speedMap[lv] * scoreFactor,
		Amplitude: m.amplitudeMap[lv] * scoreFactor,
		Force:     m.forceMap[lv] * scoreFactor,
		Pause:     lv == models.PainLevelHigh,
		Stop:      lv == models.PainLevelCritical,
	}
}

// NewSignal 构建带系数的完整疼痛信号
func (m *Mapper) NewSignal(
	level int,
	levelName string,
	score float64,
	source string,
	confidence float64,
	details map[string]interface{},
) models.PainSignal {
	mods := m.Map(level, score)

	return models.PainSignal{
		Timestamp:         models.NowSeconds(),
		PainLevel:         models.ClampPainLevel(level),
		PainLevelName:     levelName,
		PainScore:         score,
		Source:            source,
		Confidence:        confidence,
		SpeedModifier:     mods.Speed,
		AmplitudeModifier: mods.Amplitude,
		ForceModifier:     mods.Force,
		ShouldPause:       mods.Pause,
		ShouldStop:        mods.Stop,
		Details:           details,
	}
}
