// Package publisher 疼痛信号的扇出发布器
//
// 输出通道：
//   - 文件：每次发布原子覆写完整 JSON 文档（临时文件 + rename），
//     同时把最近 20 条历史写入同名 ".history.json" 文件
//   - 套接字：UDP 即发即弃（无确认、无重试、跨包无顺序保证，消费方必须
//     容忍丢失和重复，不得假设可靠交付）或 TCP 单次发送
//   - Redis Streams / MQTT：可选的附加绑定
//   - 回调：同步调用每个注册的监听器；回调 panic 被捕获并记录，
//     绝不中断对其余通道的发布
//
// 历史的所有修改在一把互斥锁内；通道 I/O 在临界区之外进行，
// 避免慢 I/O 阻塞生产者。
package publisher

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nishantkapps/feedback/internal/models"
)

const (
	maxHistory         = 100             // 内存环形历史条数
	historyFileEntries = 20              // 序列化到历史文件的条数
	historySuffix      = ".history.json" // 历史文件后缀（替换主文件扩展名）
	sinkTimeout        = 2 * time.Second // 单个通道的发送超时
)

// Callback 信号监听器
type Callback func(models.PainSignal)

// Publisher 疼痛信号扇出发布器
type Publisher struct {
	outputFile string // 为空禁用文件输出
	logger     *zap.Logger

	mu        sync.Mutex
	history   []models.PainSignal
	callbacks []Callback
	sinks     []Sink
}

// New 创建发布器
// outputFile 为空时禁用文件输出；附加通道通过 AddSink 注册
func New(outputFile string, logger *zap.Logger) *Publisher {
	return &Publisher{
		outputFile: outputFile,
		logger:     logger,
	}
}

// AddSink 注册附加输出通道（套接字 / Redis / MQTT）
func (p *Publisher) AddSink(s Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sinks = append(p.sinks, s)
}

// AddCallback 注册信号监听器（同步调用）
func (p *Publisher) AddCallback(cb Callback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = append(p.callbacks, cb)
}

// Publish 发布信号到所有输出通道（尽力而为，无返回值保证）
func (p *Publisher) Publish(sig models.PainSignal) {
	// 历史修改在锁内，通道 I/O 在锁外
	p.mu.Lock()
	p.history = append(p.history, sig)
	if len(p.history) > maxHistory {
		p.history = p.history[1:]
	}
	tail := make([]models.PainSignal, 0, historyFileEntries)
	start := len(p.history) - historyFileEntries
	if start < 0 {
		start = 0
	}
	tail = append(tail, p.history[start:]...)
	sinks := make([]Sink, len(p.sinks))
	copy(sinks, p.sinks)
	callbacks := make([]Callback, len(p.callbacks))
	copy(callbacks, p.callbacks)
	p.mu.Unlock()

	payload, err := json.MarshalIndent(sig, "", "  ")
	if err != nil {
		p.logger.Error("Failed to marshal pain signal", zap.Error(err))
		return
	}

	// 文件输出
	if p.outputFile != "" {
		if err := p.writeFile(payload, tail); err != nil {
			p.logger.Error("Failed to write feedback file",
				zap.String("path", p.outputFile),
				zap.Error(err),
			)
		}
	}

	// 附加通道
	for _, s := range sinks {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		if err := s.Send(ctx, payload); err != nil {
			p.logger.Warn("Sink send failed",
				zap.String("sink", s.Name()),
				zap.Error(err),
			)
		}
		cancel()
	}

	// 回调（panic 不允许中断发布）
	for _, cb := range callbacks {
		p.invokeCallback(cb, sig)
	}
}

func (p *Publisher) invokeCallback(cb Callback, sig models.PainSignal) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Feedback callback panicked", zap.Any("panic", r))
		}
	}()
	cb(sig)
}

// writeFile 原子覆写主文件并更新历史文件
// 读者永远看不到半写的 JSON 文档
func (p *Publisher) writeFile(payload []byte, tail []models.PainSignal) error {
	dir := filepath.Dir(p.outputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if err := atomicWrite(p.outputFile, payload); err != nil {
		return err
	}

	historyData, err := json.MarshalIndent(tail, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(historyPath(p.outputFile), historyData)
}

// atomicWrite 临时文件 + rename 实现原子覆写
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".feedback-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// historyPath 主文件对应的历史文件路径（扩展名替换为 .history.json）
func historyPath(outputFile string) string {
	ext := filepath.Ext(outputFile)
	return outputFile[:len(outputFile)-len(ext)] + historySuffix
}

// Latest 最近一次发布的信号（无历史时返回 nil）
func (p *Publisher) Latest() *models.PainSignal {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.history) == 0 {
		return nil
	}
	sig := p.history[len(p.history)-1]
	return &sig
}

// History 最近 n 条历史（从旧到新）
func (p *Publisher) History(n int) []models.PainSignal {
	p.mu.Lock()
	defer p.mu.Unlock()
	start := len(p.history) - n
	if start < 0 {
		start = 0
	}
	out := make([]models.PainSignal, len(p.history)-start)
	copy(out, p.history[start:])
	return out
}

// Close 关闭所有附加通道
func (p *Publisher) Close() error {
	p.mu.Lock()
	sinks := p.sinks
	p.sinks = nil
	p.mu.Unlock()

	var firstErr error
	for _, s := range sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
