package nachi

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// 支持的控制器通信协议
const (
	ProtocolTCP  = "tcp"  // TCP 套接字，发送二进制指令
	ProtocolUDP  = "udp"  // UDP 套接字，发送二进制指令
	ProtocolFile = "file" // 文件输出，用于测试与仿真
)

const dialTimeout = 5 * time.Second

// Interface 与 Nachi FD11 控制器的通信接口
// TCP 与 UDP 绑定语义一致，具体使用哪个由配置决定
type Interface struct {
	protocol   string
	host       string
	port       int
	outputFile string
	logger     *zap.Logger

	mu          sync.Mutex
	conn        net.Conn
	connected   bool
	lastCommand *Command
}

// NewInterface 创建控制器接口（不建立连接）
func NewInterface(protocol, host string, port int, outputFile string, logger *zap.Logger) *Interface {
	return &Interface{
		protocol:   protocol,
		host:       host,
		port:       port,
		outputFile: outputFile,
		logger:     logger,
	}
}

// Connect 连接控制器，文件模式只确保输出目录存在
func (i *Interface) Connect() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch i.protocol {
	case ProtocolFile:
		if i.outputFile != "" {
			if err := os.MkdirAll(filepath.Dir(i.outputFile), 0755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
		}
		i.connected = true
		return nil

	case ProtocolTCP:
		conn, err := net.DialTimeout("tcp", i.addr(), dialTimeout)
		if err != nil {
			return fmt.Errorf("connect to controller at %s: %w", i.addr(), err)
		}
		i.conn = conn
		i.connected = true
		i.logger.Info("Connected to Nachi controller",
			zap.String("protocol", i.protocol),
			zap.String("addr", i.addr()))
		return nil

	case ProtocolUDP:
		conn, err := net.Dial("udp", i.addr())
		if err != nil {
			return fmt.Errorf("connect to controller at %s: %w", i.addr(), err)
		}
		i.conn = conn
		i.connected = true
		i.logger.Info("Connected to Nachi controller",
			zap.String("protocol", i.protocol),
			zap.String("addr", i.addr()))
		return nil
	}

	return fmt.Errorf("unsupported protocol: %s", i.protocol)
}

// Disconnect 断开连接，可重复调用
func (i *Interface) Disconnect() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.conn != nil {
		i.conn.Close()
		i.conn = nil
	}
	i.connected = false
}

// SendCommand 发送指令到控制器
// 套接字模式发送 16 字节二进制，文件模式写入 JSON
func (i *Interface) SendCommand(cmd *Command) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.connected {
		return fmt.Errorf("not connected to Nachi controller")
	}
	i.lastCommand = cmd

	switch i.protocol {
	case ProtocolFile:
		data, err := cmd.ToJSON()
		if err != nil {
			return fmt.Errorf("encode command: %w", err)
		}
		if err := os.WriteFile(i.outputFile, data, 0644); err != nil {
			return fmt.Errorf("write command file: %w", err)
		}
		return nil

	case ProtocolTCP, ProtocolUDP:
		if _, err := i.conn.Write(cmd.ToBytes()); err != nil {
			return fmt.Errorf("send command: %w", err)
		}
		return nil
	}

	return fmt.Errorf("unsupported protocol: %s", i.protocol)
}

// LastCommand 最近一次发送的指令，未发送过时为 nil
func (i *Interface) LastCommand() *Command {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastCommand
}

// IsConnected 当前连接状态
func (i *Interface) IsConnected() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.connected
}

func (i *Interface) addr() string {
	return net.JoinHostPort(i.host, strconv.Itoa(i.port))
}
