package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
	Topic    string
}

// Config 疼痛反馈桥接服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	// 桥接服务特定配置
	Bridge struct {
		// 融合循环配置
		FusionEnabled    bool    // 是否在定时 tick 上发布融合信号（关闭时各来源即时独立发布）
		FusionIntervalMs int     // 融合循环间隔（毫秒），默认 100
		PiezoWeight      float64 // 压电信号融合权重，默认 0.6
		FaceWeight       float64 // 面部信号融合权重，默认 0.4

		// 修正系数表覆盖文件（YAML，可选；为空使用内置默认表）
		ModifierMapFile string
	}

	Publisher struct {
		OutputFile string // 规范 JSON 输出文件路径（为空禁用文件输出）

		// 套接字输出（为空禁用）
		SocketHost     string
		SocketPort     int
		SocketProtocol string // "udp" 或 "tcp"

		// Redis Streams 输出流（为空禁用）
		Stream struct {
			Output string // 如 "pain:feedback:stream"
			MaxLen int64  // 流的近似长度上限
		}
	}

	Consumer struct {
		Enabled        bool   // 是否在本进程中启动消费端（守护模式下通常由下游系统持有）
		FeedbackFile   string // 轮询的反馈文件路径（为空使用套接字监听）
		ListenPort     int
		ListenProtocol string // "udp" 或 "tcp"

		PollIntervalMs   int     // 文件轮询间隔（毫秒），默认 50
		StaleThresholdS  float64 // 数据过期阈值（秒），默认 2.0
		DefaultOnMissing bool    // 无数据时返回保守默认值
	}

	Nachi struct {
		Enabled    bool
		Protocol   string // "tcp" / "udp" / "file"
		Host       string
		Port       int
		OutputFile string // 文件模式的命令输出路径

		// 安全下限（百分比，防止 0% 指令使控制器永久停转）
		MinSpeed  int
		MinMotion int
		MinForce  int
	}

	Alert struct {
		EventsEnabled bool   // 是否持久化报警事件到 PostgreSQL
		WebhookURL    string // 报警 webhook 地址（为空禁用）
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 从环境变量加载（默认值）
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "feedback")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "feedback-bridge")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 1
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "feedback/pain")

	// 桥接配置
	cfg.Bridge.FusionEnabled = getEnvBool("FUSION_ENABLED", true)
	cfg.Bridge.FusionIntervalMs = getEnvInt("FUSION_INTERVAL_MS", 100)
	cfg.Bridge.PiezoWeight = getEnvFloat("PIEZO_WEIGHT", 0.6)
	cfg.Bridge.FaceWeight = getEnvFloat("FACE_WEIGHT", 0.4)
	cfg.Bridge.ModifierMapFile = getEnv("MODIFIER_MAP_FILE", "")

	// 发布配置
	cfg.Publisher.OutputFile = getEnv("OUTPUT_FILE", "data/pain_feedback.json")
	cfg.Publisher.SocketHost = getEnv("SOCKET_HOST", "")
	cfg.Publisher.SocketPort = getEnvInt("SOCKET_PORT", 5555)
	cfg.Publisher.SocketProtocol = getEnv("SOCKET_PROTOCOL", "udp")
	cfg.Publisher.Stream.Output = getEnv("STREAM_OUTPUT", "")
	cfg.Publisher.Stream.MaxLen = 1000

	// 消费配置
	cfg.Consumer.Enabled = getEnvBool("CONSUMER_ENABLED", false)
	cfg.Consumer.FeedbackFile = getEnv("FEEDBACK_FILE", "")
	cfg.Consumer.ListenPort = getEnvInt("LISTEN_PORT", 5555)
	cfg.Consumer.ListenProtocol = getEnv("LISTEN_PROTOCOL", "udp")
	cfg.Consumer.PollIntervalMs = getEnvInt("POLL_INTERVAL_MS", 50)
	cfg.Consumer.StaleThresholdS = getEnvFloat("STALE_THRESHOLD_S", 2.0)
	cfg.Consumer.DefaultOnMissing = getEnvBool("DEFAULT_ON_MISSING", true)

	// Nachi 控制器配置
	cfg.Nachi.Enabled = getEnvBool("NACHI_ENABLED", false)
	cfg.Nachi.Protocol = getEnv("NACHI_PROTOCOL", "file")
	cfg.Nachi.Host = getEnv("NACHI_HOST", "192.168.1.100")
	cfg.Nachi.Port = getEnvInt("NACHI_PORT", 5000)
	cfg.Nachi.OutputFile = getEnv("NACHI_OUTPUT_FILE", "data/nachi_command.json")
	cfg.Nachi.MinSpeed = getEnvInt("NACHI_MIN_SPEED", 5)
	cfg.Nachi.MinMotion = getEnvInt("NACHI_MIN_MOTION", 10)
	cfg.Nachi.MinForce = getEnvInt("NACHI_MIN_FORCE", 10)

	// 报警配置
	cfg.Alert.EventsEnabled = getEnvBool("ALERT_EVENTS_ENABLED", false)
	cfg.Alert.WebhookURL = getEnv("ALERT_WEBHOOK_URL", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
