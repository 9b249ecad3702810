package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/nishantkapps/feedback/internal/mqttx"
	"github.com/nishantkapps/feedback/internal/redisx"
)

// Sink 附加输出通道
type Sink interface {
	Name() string
	Send(ctx context.Context, payload []byte) error
	Close() error
}

// ============================================
// UDP
// ============================================

// UDPSink UDP 输出通道（即发即弃，无交付/顺序保证）
type UDPSink struct {
	conn net.Conn
	addr string
}

// NewUDPSink 创建 UDP 输出通道
func NewUDPSink(host string, port int) (*UDPSink, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial udp %s: %w", addr, err)
	}
	return &UDPSink{conn: conn, addr: addr}, nil
}

func (s *UDPSink) Name() string { return "udp:" + s.addr }

func (s *UDPSink) Send(ctx context.Context, payload []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		s.conn.SetWriteDeadline(deadline)
	}
	_, err := s.conn.Write(payload)
	return err
}

func (s *UDPSink) Close() error { return s.conn.Close() }

// ============================================
// TCP
// ============================================

// TCPSink TCP 输出通道（连接式，单次发送一条消息）
type TCPSink struct {
	conn net.Conn
	addr string
}

// NewTCPSink 创建 TCP 输出通道
func NewTCPSink(host string, port int) (*TCPSink, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to dial tcp %s: %w", addr, err)
	}
	return &TCPSink{conn: conn, addr: addr}, nil
}

func (s *TCPSink) Name() string { return "tcp:" + s.addr }

func (s *TCPSink) Send(ctx context.Context, payload []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		s.conn.SetWriteDeadline(deadline)
	}
	_, err := s.conn.Write(payload)
	return err
}

func (s *TCPSink) Close() error { return s.conn.Close() }

// ============================================
// Redis Streams
// ============================================

// RedisStreamSink Redis Streams 输出通道
type RedisStreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamSink 创建 Redis Streams 输出通道
// maxLen > 0 时限制流的近似长度
func NewRedisStreamSink(client *redis.Client, stream string, maxLen int64) *RedisStreamSink {
	return &RedisStreamSink{
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

func (s *RedisStreamSink) Name() string { return "redis-stream:" + s.stream }

func (s *RedisStreamSink) Send(ctx context.Context, payload []byte) error {
	_, err := redisx.PublishJSONToStream(ctx, s.client, s.stream, json.RawMessage(payload), s.maxLen)
	return err
}

func (s *RedisStreamSink) Close() error { return nil }

// ============================================
// MQTT
// ============================================

// MQTTSink MQTT 输出通道
type MQTTSink struct {
	client *mqttx.Client
	topic  string
	qos    byte
}

// NewMQTTSink 创建 MQTT 输出通道
func NewMQTTSink(client *mqttx.Client, topic string, qos byte) *MQTTSink {
	return &MQTTSink{
		client: client,
		topic:  topic,
		qos:    qos,
	}
}

func (s *MQTTSink) Name() string { return "mqtt:" + s.topic }

func (s *MQTTSink) Send(ctx context.Context, payload []byte) error {
	return s.client.Publish(s.topic, s.qos, false, payload)
}

func (s *MQTTSink) Close() error {
	s.client.Disconnect()
	return nil
}
