package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nishantkapps/feedback/internal/models"
)

// PainEventsRepository 疼痛报警事件仓库
type PainEventsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPainEventsRepository 创建疼痛报警事件仓库
func NewPainEventsRepository(db *sql.DB, logger *zap.Logger) *PainEventsRepository {
	return &PainEventsRepository{
		db:     db,
		logger: logger,
	}
}

// PainEventFilters 疼痛事件过滤条件
type PainEventFilters struct {
	StartTime *time.Time // 开始时间（triggered_at >= StartTime）
	EndTime   *time.Time // 结束时间（triggered_at <= EndTime）
	EventType *string    // 事件类型（high_pain, critical_pain）
	Source    *string    // 信号来源（piezo, face, fused）
	MinLevel  *int       // 最低疼痛等级（pain_level >= MinLevel）
}

// CreatePainEvent 创建疼痛报警事件
func (r *PainEventsRepository) CreatePainEvent(ctx context.Context, event *models.PainAlertEvent) error {
	if event == nil {
		return fmt.Errorf("event is required")
	}
	if event.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if event.EventType == "" {
		return fmt.Errorf("event_type is required")
	}

	query := `
		INSERT INTO pain_events (
			event_id,
			event_type,
			pain_level,
			pain_score,
			source,
			confidence,
			triggered_at,
			details,
			created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	details := event.Details
	if len(details) == 0 {
		details = json.RawMessage("{}")
	}

	_, err := r.db.ExecContext(ctx,
		query,
		event.EventID,
		event.EventType,
		event.PainLevel,
		event.PainScore,
		event.Source,
		event.Confidence,
		event.TriggeredAt,
		details,
		event.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create pain event: %w", err)
	}

	return nil
}

// GetPainEvent 根据 event_id 获取单个疼痛事件
func (r *PainEventsRepository) GetPainEvent(ctx context.Context, eventID string) (*models.PainAlertEvent, error) {
	if eventID == "" {
		return nil, fmt.Errorf("event_id is required")
	}

	query := `
		SELECT
			event_id,
			event_type,
			pain_level,
			pain_score,
			source,
			confidence,
			triggered_at,
			details,
			created_at
		FROM pain_events
		WHERE event_id = $1
	`

	event, err := r.scanPainEvent(r.db.QueryRowContext(ctx, query, eventID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("pain event not found: event_id=%s", eventID)
		}
		return nil, fmt.Errorf("failed to get pain event: %w", err)
	}

	return event, nil
}

// ListPainEvents 列表查询（支持多条件过滤、分页）
func (r *PainEventsRepository) ListPainEvents(ctx context.Context, filters PainEventFilters, page, size int) ([]*models.PainAlertEvent, int, error) {
	args := []interface{}{}
	argN := 1
	where := buildWhereClause(filters, &args, &argN)

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	queryCount := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM pain_events
		%s
	`, whereClause)

	var total int
	if err := r.db.QueryRowContext(ctx, queryCount, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count pain events: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`
		SELECT
			event_id,
			event_type,
			pain_level,
			pain_score,
			source,
			confidence,
			triggered_at,
			details,
			created_at
		FROM pain_events
		%s
		ORDER BY triggered_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, len(args)+1, len(args)+2)

	args = append(args, size, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query pain events: %w", err)
	}
	defer rows.Close()

	events := []*models.PainAlertEvent{}
	for rows.Next() {
		event, err := r.scanPainEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan pain event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate pain events: %w", err)
	}

	return events, total, nil
}

// GetRecentPainEvent 获取最近的同类型事件（用于去重检查）
// 检查最近 N 分钟内是否已有相同类型的报警，没有返回 (nil, nil)
func (r *PainEventsRepository) GetRecentPainEvent(ctx context.Context, eventType string, withinMinutes int) (*models.PainAlertEvent, error) {
	if eventType == "" {
		return nil, fmt.Errorf("event_type is required")
	}

	thresholdTime := time.Now().Add(-time.Duration(withinMinutes) * time.Minute)

	query := `
		SELECT
			event_id,
			event_type,
			pain_level,
			pain_score,
			source,
			confidence,
			triggered_at,
			details,
			created_at
		FROM pain_events
		WHERE event_type = $1
		  AND triggered_at > $2
		ORDER BY triggered_at DESC
		LIMIT 1
	`

	event, err := r.scanPainEvent(r.db.QueryRowContext(ctx, query, eventType, thresholdTime))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query recent pain event: %w", err)
	}

	return event, nil
}

// CountPainEvents 统计疼痛事件数量（按条件）
func (r *PainEventsRepository) CountPainEvents(ctx context.Context, filters PainEventFilters) (int, error) {
	args := []interface{}{}
	argN := 1
	where := buildWhereClause(filters, &args, &argN)

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM pain_events
		%s
	`, whereClause)

	var total int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count pain events: %w", err)
	}

	return total, nil
}

// buildWhereClause 构建 WHERE 子句
func buildWhereClause(filters PainEventFilters, args *[]interface{}, argN *int) []string {
	where := []string{}

	if filters.StartTime != nil {
		where = append(where, fmt.Sprintf("triggered_at >= $%d", *argN))
		*args = append(*args, *filters.StartTime)
		*argN++
	}
	if filters.EndTime != nil {
		where = append(where, fmt.Sprintf("triggered_at <= $%d", *argN))
		*args = append(*args, *filters.EndTime)
		*argN++
	}
	if filters.EventType != nil {
		where = append(where, fmt.Sprintf("event_type = $%d", *argN))
		*args = append(*args, *filters.EventType)
		*argN++
	}
	if filters.Source != nil {
		where = append(where, fmt.Sprintf("source = $%d", *argN))
		*args = append(*args, *filters.Source)
		*argN++
	}
	if filters.MinLevel != nil {
		where = append(where, fmt.Sprintf("pain_level >= $%d", *argN))
		*args = append(*args, *filters.MinLevel)
		*argN++
	}

	return where
}

// rowScanner 兼容 *sql.Row 与 *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *PainEventsRepository) scanPainEvent(row rowScanner) (*models.PainAlertEvent, error) {
	var event models.PainAlertEvent
	var details []byte

	err := row.Scan(
		&event.EventID,
		&event.EventType,
		&event.PainLevel,
		&event.PainScore,
		&event.Source,
		&event.Confidence,
		&event.TriggeredAt,
		&details,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(details) > 0 {
		event.Details = details
	} else {
		event.Details = json.RawMessage("{}")
	}

	return &event, nil
}
