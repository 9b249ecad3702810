package bridge

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nishantkapps/feedback/internal/adapter"
	"github.com/nishantkapps/feedback/internal/fusion"
	"github.com/nishantkapps/feedback/internal/models"
	"github.com/nishantkapps/feedback/internal/modifier"
	"github.com/nishantkapps/feedback/internal/publisher"
)

const (
	defaultFusionInterval = 100 * time.Millisecond
	joinTimeout           = 2 * time.Second
)

// Options 编排器配置
type Options struct {
	FusionEnabled  bool          // 关闭时每个来源更新后立即独立发布
	FusionInterval time.Duration // 融合周期（默认 100ms）
	PiezoWeight    float64
	FaceWeight     float64
}

// Bridge 信号编排器：持有适配器、融合引擎与发布器，
// 驱动固定周期的融合循环
type Bridge struct {
	mapper *modifier.Mapper
	pub    *publisher.Publisher
	opts   Options
	logger *zap.Logger

	mu    sync.RWMutex
	piezo *models.PainSignal
	face  *models.PainSignal

	cancel context.CancelFunc
	done   chan struct{}
}

// New 创建编排器
func New(mapper *modifier.Mapper, pub *publisher.Publisher, opts Options, logger *zap.Logger) *Bridge {
	if opts.FusionInterval <= 0 {
		opts.FusionInterval = defaultFusionInterval
	}
	if opts.PiezoWeight <= 0 && opts.FaceWeight <= 0 {
		opts.PiezoWeight = 0.6
		opts.FaceWeight = 0.4
	}
	return &Bridge{
		mapper: mapper,
		pub:    pub,
		opts:   opts,
		logger: logger,
	}
}

// UpdatePiezo 接收一次压力读数，转换为标准信号并暂存
// 融合关闭时立即发布，不等待融合周期
func (b *Bridge) UpdatePiezo(reading models.PressureReading) models.PainSignal {
	sig := adapter.PiezoToSignal(reading, b.mapper)
	b.store(&sig, nil)
	if !b.opts.FusionEnabled {
		b.pub.Publish(sig)
	}
	return sig
}

// UpdateFace 接收一次表情读数，转换为标准信号并暂存
func (b *Bridge) UpdateFace(reading models.ExpressionReading) models.PainSignal {
	sig := adapter.FaceToSignal(reading, b.mapper)
	b.store(nil, &sig)
	if !b.opts.FusionEnabled {
		b.pub.Publish(sig)
	}
	return sig
}

// PublishFused 立即对当前暂存信号做一次融合并发布
func (b *Bridge) PublishFused() models.PainSignal {
	piezo, face := b.snapshot()
	fused := fusion.Fuse(piezo, face, b.opts.PiezoWeight, b.opts.FaceWeight)
	b.pub.Publish(fused)
	return fused
}

// Start 启动融合循环，融合关闭时为空操作
func (b *Bridge) Start() {
	if !b.opts.FusionEnabled {
		b.logger.Info("Fusion disabled, sources publish independently")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})

	go b.fusionLoop(ctx)
	b.logger.Info("Fusion loop started",
		zap.Duration("interval", b.opts.FusionInterval),
		zap.Float64("piezo_weight", b.opts.PiezoWeight),
		zap.Float64("face_weight", b.opts.FaceWeight))
}

// Stop 停止融合循环，等待有限时间
func (b *Bridge) Stop() {
	if b.cancel == nil {
		return
	}
	b.cancel()

	select {
	case <-b.done:
	case <-time.After(joinTimeout):
		b.logger.Warn("Fusion loop did not stop in time, abandoning")
	}
}

// Latest 当前暂存的原始信号快照
func (b *Bridge) Latest() (piezo, face *models.PainSignal) {
	return b.snapshot()
}

func (b *Bridge) fusionLoop(ctx context.Context) {
	defer close(b.done)

	ticker := time.NewTicker(b.opts.FusionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			piezo, face := b.snapshot()
			if piezo == nil && face == nil {
				continue
			}
			fused := fusion.Fuse(piezo, face, b.opts.PiezoWeight, b.opts.FaceWeight)
			b.pub.Publish(fused)
		}
	}
}

// store 更新暂存信号，nil 表示该来源保持不变
func (b *Bridge) store(piezo, face *models.PainSignal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if piezo != nil {
		b.piezo = piezo
	}
	if face != nil {
		b.face = face
	}
}

func (b *Bridge) snapshot() (piezo, face *models.PainSignal) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.piezo, b.face
}
