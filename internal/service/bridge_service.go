package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nishantkapps/feedback/internal/bridge"
	"github.com/nishantkapps/feedback/internal/config"
	"github.com/nishantkapps/feedback/internal/consumer"
	"github.com/nishantkapps/feedback/internal/database"
	"github.com/nishantkapps/feedback/internal/models"
	"github.com/nishantkapps/feedback/internal/modifier"
	"github.com/nishantkapps/feedback/internal/mqttx"
	"github.com/nishantkapps/feedback/internal/nachi"
	"github.com/nishantkapps/feedback/internal/notifier"
	"github.com/nishantkapps/feedback/internal/publisher"
	"github.com/nishantkapps/feedback/internal/redisx"
	"github.com/nishantkapps/feedback/internal/repository"
)

const eventWriteTimeout = 5 * time.Second

// BridgeService 疼痛反馈桥接服务
// 持有编排器、发布器、消费端与控制器桥接，按配置装配各组件
type BridgeService struct {
	config *config.Config
	logger *zap.Logger

	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *mqttx.Client

	orchestrator *bridge.Bridge
	publisher    *publisher.Publisher
	feedback     *consumer.Consumer
	nachiBridge  *nachi.FeedbackBridge

	eventsRepo *repository.PainEventsRepository
	webhook    *notifier.WebhookNotifier
}

// NewBridgeService 创建桥接服务
func NewBridgeService(cfg *config.Config, logger *zap.Logger) (*BridgeService, error) {
	s := &BridgeService{
		config: cfg,
		logger: logger,
	}

	// 修正系数表（可选 YAML 覆盖）
	mapper, err := newMapper(cfg)
	if err != nil {
		return nil, err
	}

	// 初始化数据库（仅在需要持久化报警事件时连接）
	if cfg.Alert.EventsEnabled {
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = db
		s.eventsRepo = repository.NewPainEventsRepository(db, logger)
	}

	// 初始化 Redis（仅在配置了输出流时连接）
	if cfg.Publisher.Stream.Output != "" {
		redisClient := redisx.NewRedisClient(&cfg.Redis)
		if err := redisx.Ping(context.Background(), redisClient); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.redisClient = redisClient
	}

	// 初始化 MQTT（仅在配置了 broker 时连接）
	if cfg.MQTT.Broker != "" {
		mqttClient, err := mqttx.NewClient(&cfg.MQTT, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mqtt broker: %w", err)
		}
		s.mqttClient = mqttClient
	}

	// 创建发布器并挂接各输出通道
	pub := publisher.New(cfg.Publisher.OutputFile, logger)
	if err := s.attachSinks(pub); err != nil {
		return nil, err
	}
	s.publisher = pub

	// 创建编排器
	s.orchestrator = bridge.New(mapper, pub, bridge.Options{
		FusionEnabled:  cfg.Bridge.FusionEnabled,
		FusionInterval: time.Duration(cfg.Bridge.FusionIntervalMs) * time.Millisecond,
		PiezoWeight:    cfg.Bridge.PiezoWeight,
		FaceWeight:     cfg.Bridge.FaceWeight,
	}, logger)

	// 创建消费端（可选）
	if cfg.Consumer.Enabled {
		s.feedback = consumer.New(s.newConsumerSource(), consumer.Options{
			StaleThreshold:   time.Duration(cfg.Consumer.StaleThresholdS * float64(time.Second)),
			DefaultOnMissing: cfg.Consumer.DefaultOnMissing,
		}, logger)
		s.feedback.SetHighPainCallback(func(mods models.GestureModifiers) {
			s.handleAlert(models.EventTypeHighPain, mods)
		})
		s.feedback.SetCriticalPainCallback(func(mods models.GestureModifiers) {
			s.handleAlert(models.EventTypeCriticalPain, mods)
		})
	}

	// 创建 Nachi 控制器桥接（可选），监听发布器的反馈文件
	if cfg.Nachi.Enabled {
		iface := nachi.NewInterface(cfg.Nachi.Protocol, cfg.Nachi.Host, cfg.Nachi.Port, cfg.Nachi.OutputFile, logger)
		translator := nachi.NewTranslatorWithFloors(cfg.Nachi.MinSpeed, cfg.Nachi.MinMotion, cfg.Nachi.MinForce)
		source := consumer.NewFileSource(
			cfg.Publisher.OutputFile,
			time.Duration(cfg.Consumer.PollIntervalMs)*time.Millisecond,
		)
		s.nachiBridge = nachi.NewFeedbackBridge(source, iface, translator, logger)
	}

	// 报警 webhook（可选）
	if cfg.Alert.WebhookURL != "" {
		s.webhook = notifier.NewWebhookNotifier(cfg.Alert.WebhookURL, logger)
	}

	return s, nil
}

// Bridge 信号编排器，传感器侧通过它注入读数
func (s *BridgeService) Bridge() *bridge.Bridge {
	return s.orchestrator
}

// Consumer 反馈消费端，未启用时为 nil
func (s *BridgeService) Consumer() *consumer.Consumer {
	return s.feedback
}

// Publisher 反馈发布器
func (s *BridgeService) Publisher() *publisher.Publisher {
	return s.publisher
}

// Start 启动服务组件
func (s *BridgeService) Start(ctx context.Context) error {
	s.logger.Info("Starting feedback bridge service components")

	s.orchestrator.Start()

	if s.feedback != nil {
		s.feedback.Start()
	}

	if s.nachiBridge != nil {
		if err := s.nachiBridge.Start(); err != nil {
			return fmt.Errorf("failed to start nachi bridge: %w", err)
		}
	}

	s.logger.Info("Feedback bridge service started successfully")
	return nil
}

// Stop 停止服务组件并释放连接
func (s *BridgeService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping feedback bridge service")

	if s.nachiBridge != nil {
		s.nachiBridge.Stop()
	}
	if s.feedback != nil {
		s.feedback.Stop()
	}
	s.orchestrator.Stop()

	if err := s.publisher.Close(); err != nil {
		s.logger.Error("Error closing publisher", zap.Error(err))
	}

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Error closing Redis client", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Error closing database connection", zap.Error(err))
		}
	}

	s.logger.Info("Feedback bridge service stopped")
	return nil
}

// attachSinks 按配置挂接套接字 / Redis Streams / MQTT 输出
func (s *BridgeService) attachSinks(pub *publisher.Publisher) error {
	cfg := s.config

	if cfg.Publisher.SocketHost != "" {
		switch cfg.Publisher.SocketProtocol {
		case "udp":
			sink, err := publisher.NewUDPSink(cfg.Publisher.SocketHost, cfg.Publisher.SocketPort)
			if err != nil {
				return fmt.Errorf("failed to create udp sink: %w", err)
			}
			pub.AddSink(sink)
		case "tcp":
			sink, err := publisher.NewTCPSink(cfg.Publisher.SocketHost, cfg.Publisher.SocketPort)
			if err != nil {
				return fmt.Errorf("failed to create tcp sink: %w", err)
			}
			pub.AddSink(sink)
		default:
			return fmt.Errorf("unsupported socket protocol: %s", cfg.Publisher.SocketProtocol)
		}
	}

	if cfg.Publisher.Stream.Output != "" {
		pub.AddSink(publisher.NewRedisStreamSink(s.redisClient, cfg.Publisher.Stream.Output, cfg.Publisher.Stream.MaxLen))
	}

	if s.mqttClient != nil {
		pub.AddSink(publisher.NewMQTTSink(s.mqttClient, cfg.MQTT.Topic, cfg.MQTT.QoS))
	}

	return nil
}

// newConsumerSource 按配置选择文件轮询或套接字监听
func (s *BridgeService) newConsumerSource() consumer.ChangeSource {
	cfg := s.config

	if cfg.Consumer.FeedbackFile != "" {
		return consumer.NewFileSource(
			cfg.Consumer.FeedbackFile,
			time.Duration(cfg.Consumer.PollIntervalMs)*time.Millisecond,
		)
	}
	if cfg.Consumer.ListenProtocol == "tcp" {
		return consumer.NewTCPSource(cfg.Consumer.ListenPort)
	}
	return consumer.NewUDPSource(cfg.Consumer.ListenPort)
}

// handleAlert 处理边沿触发的疼痛报警：持久化 + webhook 推送
func (s *BridgeService) handleAlert(eventType string, mods models.GestureModifiers) {
	now := time.Now()
	details, _ := json.Marshal(mods)

	event := &models.PainAlertEvent{
		EventID:     uuid.New().String(),
		EventType:   eventType,
		PainLevel:   mods.PainLevel,
		PainScore:   mods.PainScore,
		Source:      models.SourceFused,
		Confidence:  mods.Confidence,
		TriggeredAt: now,
		Details:     details,
		CreatedAt:   now,
	}

	s.logger.Warn("Pain alert triggered",
		zap.String("event_type", eventType),
		zap.Int("pain_level", mods.PainLevel),
		zap.Float64("pain_score", mods.PainScore),
	)

	if s.eventsRepo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), eventWriteTimeout)
		defer cancel()
		if err := s.eventsRepo.CreatePainEvent(ctx, event); err != nil {
			s.logger.Error("Failed to persist pain event", zap.Error(err))
		}
	}

	if s.webhook != nil {
		if err := s.webhook.PostAlert(event); err != nil {
			s.logger.Error("Failed to deliver pain alert webhook", zap.Error(err))
		}
	}
}

// newMapper 加载修正系数表
func newMapper(cfg *config.Config) (*modifier.Mapper, error) {
	if cfg.Bridge.ModifierMapFile == "" {
		return modifier.NewMapper(), nil
	}
	mapper, err := modifier.NewMapperFromFile(cfg.Bridge.ModifierMapFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load modifier map file: %w", err)
	}
	return mapper, nil
}
