package models

import (
	"encoding/json"
	"time"
)

// 报警事件类型
const (
	EventTypeHighPain     = "high_pain"     // 等级首次升到 HIGH（3）
	EventTypeCriticalPain = "critical_pain" // 等级首次升到 CRITICAL（4）
)

// PainAlertEvent 疼痛报警事件（边沿触发时生成，持久化用于审计）
type PainAlertEvent struct {
	EventID     string          `json:"event_id"`   // UUID
	EventType   string          `json:"event_type"` // "high_pain" / "critical_pain"
	PainLevel   int             `json:"pain_level"`
	PainScore   float64         `json:"pain_score"`
	Source      string          `json:"source"`
	Confidence  float64         `json:"confidence"`
	TriggeredAt time.Time       `json:"triggered_at"`
	Details     json.RawMessage `json:"details,omitempty"` // JSONB
	CreatedAt   time.Time       `json:"created_at"`
}
