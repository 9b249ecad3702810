package nachi

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/nishantkapps/feedback/internal/consumer"
	"github.com/nishantkapps/feedback/internal/models"
)

const bridgeJoinTimeout = 2 * time.Second

// CommandCallback 指令发送后的回调
type CommandCallback func(*Command)

// FeedbackBridge 监听反馈信号变化并转发到控制器
// 来源可以是反馈文件轮询，也可以是套接字推送
type FeedbackBridge struct {
	source     consumer.ChangeSource
	iface      *Interface
	translator *Translator
	logger     *zap.Logger

	callback CommandCallback
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewFeedbackBridge 创建桥接器，translator 为 nil 时使用默认下限
func NewFeedbackBridge(source consumer.ChangeSource, iface *Interface, translator *Translator, logger *zap.Logger) *FeedbackBridge {
	if translator == nil {
		translator = NewTranslator()
	}
	return &FeedbackBridge{
		source:     source,
		iface:      iface,
		translator: translator,
		logger:     logger,
	}
}

// SetCallback 注册指令发送后的回调
func (b *FeedbackBridge) SetCallback(cb CommandCallback) {
	b.callback = cb
}

// Start 连接控制器并启动转发循环
func (b *FeedbackBridge) Start() error {
	if err := b.iface.Connect(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})

	go func() {
		defer close(b.done)
		if err := b.source.Run(ctx, b.handlePayload); err != nil {
			b.logger.Error("Nachi bridge source stopped", zap.Error(err))
		}
	}()

	b.logger.Info("Nachi bridge started")
	return nil
}

// Stop 停止转发循环并断开控制器，等待有限时间
func (b *FeedbackBridge) Stop() {
	if b.cancel == nil {
		return
	}
	b.cancel()

	select {
	case <-b.done:
	case <-time.After(bridgeJoinTimeout):
		b.logger.Warn("Nachi bridge worker did not stop in time, abandoning")
	}
	b.iface.Disconnect()
}

// handlePayload 处理一次反馈更新：解析、翻译、发送
func (b *FeedbackBridge) handlePayload(payload []byte) {
	var sig models.PainSignal
	if err := json.Unmarshal(payload, &sig); err != nil {
		b.logger.Debug("Discarding malformed feedback payload", zap.Error(err))
		return
	}

	cmd := b.translator.Translate(&sig)
	if err := b.iface.SendCommand(cmd); err != nil {
		b.logger.Error("Failed to send command to controller", zap.Error(err))
		return
	}

	if b.callback != nil {
		b.callback(cmd)
	}
}
