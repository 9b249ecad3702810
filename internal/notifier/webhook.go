package notifier

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/nishantkapps/feedback/internal/models"
)

// AlertPayload 推送到外部系统的报警负载
type AlertPayload struct {
	EventID       string  `json:"event_id"`
	EventType     string  `json:"event_type"`
	PainLevel     int     `json:"pain_level"`
	PainLevelName string  `json:"pain_level_name"`
	PainScore     float64 `json:"pain_score"`
	Source        string  `json:"source"`
	Confidence    float64 `json:"confidence"`
	TriggeredAt   string  `json:"triggered_at"`
}

// WebhookNotifier 通过 HTTP Webhook 推送疼痛报警
type WebhookNotifier struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewWebhookNotifier 创建 Webhook 通知客户端
func NewWebhookNotifier(webhookURL string, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetBaseURL(webhookURL).
		SetTimeout(10*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// 5xx 视为瞬态错误重试，4xx 不重试
			return err != nil || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookNotifier{
		httpClient: client,
		logger:     logger,
	}
}

// PostAlert 推送一条报警，非 2xx 响应视为失败
func (n *WebhookNotifier) PostAlert(event *models.PainAlertEvent) error {
	payload := AlertPayload{
		EventID:       event.EventID,
		EventType:     event.EventType,
		PainLevel:     event.PainLevel,
		PainLevelName: models.PainLevelName(event.PainLevel),
		PainScore:     event.PainScore,
		Source:        event.Source,
		Confidence:    event.Confidence,
		TriggeredAt:   event.TriggeredAt.UTC().Format(time.RFC3339),
	}

	resp, err := n.httpClient.R().
		SetBody(payload).
		Post("")

	if err != nil {
		n.logger.Error("Webhook call failed",
			zap.Error(err),
			zap.String("event_id", event.EventID),
		)
		return fmt.Errorf("failed to call webhook: %w", err)
	}

	if resp.IsError() {
		n.logger.Error("Webhook returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("event_id", event.EventID),
		)
		return fmt.Errorf("webhook error: status %d", resp.StatusCode())
	}

	n.logger.Info("Pain alert delivered to webhook",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
	)

	return nil
}
