// Package consumer 疼痛反馈消费端
//
// 为下游手势执行提供调整参数，保证三条契约：
//   - GetModifiers 永远返回一个值：不无限阻塞、没有数据也不报错
//   - 过期即失效安全：上游静默超过阈值时返回保守默认值
//     （0.5/0.5/0.5 + 暂停），绝不降级为全速
//   - 报警是边沿触发的：等级从 <3 升到 ≥3 时 on_high_pain 恰好触发一次，
//     从 <4 升到 4 时 on_critical_pain 恰好触发一次；同等级的重复更新不重触发
//
// 状态机：NO_DATA → HAS_DATA → STALE，由独立于调用线程的后台任务驱动。
package consumer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nishantkapps/feedback/internal/models"
)

// 消费端状态
const (
	StateNoData  = "no_data"  // 尚未收到任何更新
	StateHasData = "has_data" // 数据新鲜
	StateStale   = "stale"    // 超过过期阈值
)

// 停止时等待后台任务退出的时限
// 超时的任务被放弃而非强杀，接受相应的资源泄漏而不是冒崩溃风险
const stopJoinTimeout = 2 * time.Second

// AlertCallback 疼痛报警回调（携带触发时的参数快照）
type AlertCallback func(models.GestureModifiers)

// AdjustedParams 应用当前系数后的手势参数
type AdjustedParams struct {
	Speed     float64 `json:"speed"`
	Amplitude float64 `json:"amplitude"`
	Force     float64 `json:"force"`
	IsSafe    bool    `json:"is_safe"`
}

// Options 消费端配置
type Options struct {
	StaleThreshold   time.Duration // 过期阈值（默认 2s）
	DefaultOnMissing bool          // 无数据/过期时返回保守默认值
}

// Consumer 疼痛反馈消费端
type Consumer struct {
	source           ChangeSource
	staleThreshold   time.Duration
	defaultOnMissing bool
	logger           *zap.Logger

	now func() time.Time // 可注入时钟，供确定性测试

	mu         sync.Mutex
	current    models.GestureModifiers
	lastUpdate time.Time
	onHigh     AlertCallback
	onCritical AlertCallback

	cancel context.CancelFunc
	done   chan struct{}
}

// New 创建消费端
func New(source ChangeSource, opts Options, logger *zap.Logger) *Consumer {
	if opts.StaleThreshold <= 0 {
		opts.StaleThreshold = 2 * time.Second
	}
	return &Consumer{
		source:           source,
		staleThreshold:   opts.StaleThreshold,
		defaultOnMissing: opts.DefaultOnMissing,
		logger:           logger,
		now:              time.Now,
		current:          models.NeutralModifiers(),
	}
}

// SetHighPainCallback 设置高疼痛（等级 3）报警回调
func (c *Consumer) SetHighPainCallback(cb AlertCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onHigh = cb
}

// SetCriticalPainCallback 设置危急疼痛（等级 4）报警回调
func (c *Consumer) SetCriticalPainCallback(cb AlertCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCritical = cb
}

// Start 启动后台监听任务
func (c *Consumer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		if err := c.source.Run(ctx, c.ApplyPayload); err != nil {
			c.logger.Error("Feedback source stopped with error", zap.Error(err))
		}
	}()

	c.logger.Info("Feedback consumer started",
		zap.Duration("stale_threshold", c.staleThreshold),
		zap.Bool("default_on_missing", c.defaultOnMissing),
	)
}

// Stop 停止后台任务（有界等待）
func (c *Consumer) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()

	select {
	case <-c.done:
	case <-time.After(stopJoinTimeout):
		c.logger.Warn("Feedback source did not stop in time, abandoning")
	}
}

// ApplyPayload 应用一条收到的负载
//
// 畸形 JSON 被丢弃并记录，保持上次状态，解析错误绝不传播到安全路径。
// 报警触发判定在锁内完成，回调在锁外调用。
func (c *Consumer) ApplyPayload(payload []byte) {
	var sig models.PainSignal
	if err := json.Unmarshal(payload, &sig); err != nil {
		c.logger.Debug("Discarding malformed feedback payload", zap.Error(err))
		return
	}

	c.mu.Lock()
	oldLevel := c.current.PainLevel
	c.current = models.ModifiersFromSignal(&sig)
	c.lastUpdate = c.now()
	newLevel := c.current.PainLevel

	// 边沿触发：危急优先于高（一次更新同时越过两条阈值时只触发危急）
	var fire AlertCallback
	if newLevel >= models.PainLevelCritical && oldLevel < models.PainLevelCritical {
		fire = c.onCritical
	} else if newLevel >= models.PainLevelHigh && oldLevel < models.PainLevelHigh {
		fire = c.onHigh
	}
	snapshot := c.current
	c.mu.Unlock()

	if fire != nil {
		fire(snapshot)
	}
}

// GetModifiers 获取当前手势调整参数
//
// 无数据或数据过期且 defaultOnMissing 启用时返回保守默认值。
func (c *Consumer) GetModifiers() models.GestureModifiers {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.defaultOnMissing {
		if c.lastUpdate.IsZero() {
			return models.ConservativeModifiers()
		}
		if c.now().Sub(c.lastUpdate) > c.staleThreshold {
			return models.ConservativeModifiers()
		}
	}

	return c.current
}

// State 返回当前状态（no_data / has_data / stale）
func (c *Consumer) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastUpdate.IsZero() {
		return StateNoData
	}
	if c.now().Sub(c.lastUpdate) > c.staleThreshold {
		return StateStale
	}
	return StateHasData
}

// IsSafeToProceed 是否可以继续手势执行
func (c *Consumer) IsSafeToProceed() bool {
	mods := c.GetModifiers()
	return !mods.ShouldStop && !mods.ShouldPause
}

// GetAdjustedParams 获取应用当前系数后的手势参数
func (c *Consumer) GetAdjustedParams(baseSpeed, baseAmplitude, baseForce float64) AdjustedParams {
	mods := c.GetModifiers()
	return AdjustedParams{
		Speed:     baseSpeed * mods.SpeedModifier,
		Amplitude: baseAmplitude * mods.AmplitudeModifier,
		Force:     baseForce * mods.ForceModifier,
		IsSafe:    !mods.ShouldStop && !mods.ShouldPause,
	}
}
