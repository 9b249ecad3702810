package consumer

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"
)

// receiveTimeout 套接字接收超时
// 短超时保证停止标志每个循环迭代都被检查
const receiveTimeout = time.Second

// maxDatagram 单条消息的最大字节数
const maxDatagram = 4096

// ChangeSource 信号变化来源
//
// 两种实现：轮询式（文件 mtime）和推送式（套接字）。
// Run 阻塞直到 ctx 取消；每次收到新负载调用一次 deliver。
type ChangeSource interface {
	Run(ctx context.Context, deliver func(payload []byte)) error
}

// ============================================
// 文件轮询
// ============================================

// FileSource 文件轮询来源
// 固定间隔检查文件修改时间，只在变化时读取（文件传输为最后写入者胜）
type FileSource struct {
	path     string
	interval time.Duration

	lastModTime time.Time
}

// NewFileSource 创建文件轮询来源
func NewFileSource(path string, interval time.Duration) *FileSource {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &FileSource{
		path:     path,
		interval: interval,
	}
}

// Run 轮询循环
// 文件暂时缺失或读取失败属于瞬态 I/O 错误：忽略，保持上次状态，继续循环
func (s *FileSource) Run(ctx context.Context, deliver func(payload []byte)) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			info, err := os.Stat(s.path)
			if err != nil {
				continue
			}
			if !info.ModTime().After(s.lastModTime) {
				continue
			}
			s.lastModTime = info.ModTime()

			data, err := os.ReadFile(s.path)
			if err != nil {
				continue
			}
			deliver(data)
		}
	}
}

// ============================================
// UDP 监听
// ============================================

// UDPSource UDP 监听来源（一个数据报 = 一次更新）
type UDPSource struct {
	port int
}

// NewUDPSource 创建 UDP 监听来源
func NewUDPSource(port int) *UDPSource {
	return &UDPSource{port: port}
}

// Run 监听循环
func (s *UDPSource) Run(ctx context.Context, deliver func(payload []byte)) error {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: s.port})
	if err != nil {
		return fmt.Errorf("failed to listen on udp port %d: %w", s.port, err)
	}
	defer conn.Close()

	buf := make([]byte, maxDatagram)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		conn.SetReadDeadline(time.Now().Add(receiveTimeout))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			// 超时是正常的停止检查节奏，其余瞬态错误忽略
			continue
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])
		deliver(payload)
	}
}

// ============================================
// TCP 接受
// ============================================

// TCPSource TCP 接受来源（一个连接 = 一次更新，单次读 4096 字节）
type TCPSource struct {
	port int
}

// NewTCPSource 创建 TCP 接受来源
func NewTCPSource(port int) *TCPSource {
	return &TCPSource{port: port}
}

// Run 接受循环
func (s *TCPSource) Run(ctx context.Context, deliver func(payload []byte)) error {
	listener, err := net.ListenTCP("tcp", &net.TCPAddr{Port: s.port})
	if err != nil {
		return fmt.Errorf("failed to listen on tcp port %d: %w", s.port, err)
	}
	defer listener.Close()

	buf := make([]byte, maxDatagram)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		listener.SetDeadline(time.Now().Add(receiveTimeout))
		conn, err := listener.Accept()
		if err != nil {
			continue
		}

		conn.SetReadDeadline(time.Now().Add(receiveTimeout))
		n, err := conn.Read(buf)
		conn.Close()
		if err != nil || n == 0 {
			continue
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])
		deliver(payload)
	}
}
