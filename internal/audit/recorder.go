// Package audit records domain events, administrative audit entries and
// delivery metrics.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/audit/entity"
	"github.com/ovaphlow/pitchfork/service-raas/pkg/utilities"
)

const systemUser = "system"

type Store interface {
	InsertAudit(ctx context.Context, l *entity.Log) error
	InsertMetric(ctx context.Context, m *entity.Metric) error
}

// Recorder is shared by every service that emits events.
type Recorder struct {
	store  Store
	ids    *utilities.IDGenerator
	logger *zap.SugaredLogger
}

// NewRecorder builds a recorder. A nil store keeps events and audits in the
// log only; Metric then fails.
func NewRecorder(store Store, ids *utilities.IDGenerator, logger *zap.SugaredLogger) *Recorder {
	if ids == nil {
		ids = utilities.NewIDGenerator(1)
	}
	return &Recorder{store: store, ids: ids, logger: logger}
}

// Event logs a structured domain event.
func (r *Recorder) Event(event, userID string, kv ...any) {
	if userID == "" {
		userID = systemUser
	}
	fields := append([]any{"event", event, "user_id", userID}, kv...)
	r.logger.Infow("raas event", fields...)
}

// Audit logs an administrative action and persists it. Persistence failures
// are logged and otherwise ignored.
func (r *Recorder) Audit(ctx context.Context, action, performedBy, targetType, targetID string, details map[string]any) {
	r.logger.Infow("audit", "action", action, "performed_by", performedBy, "target_type", targetType, "target_id", targetID)
	if r.store == nil {
		return
	}
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		r.logger.Warnw("audit details not serializable", "action", action, "err", err)
		raw = []byte("{}")
	}
	l := &entity.Log{
		ID:          r.ids.KSUID(),
		Action:      action,
		PerformedBy: performedBy,
		TargetType:  targetType,
		TargetID:    targetID,
		Details:     raw,
	}
	if err := r.store.InsertAudit(ctx, l); err != nil {
		r.logger.Warnw("audit insert failed", "action", action, "err", err)
	}
}

// Metric stores one raas_metrics observation for an outcome.
func (r *Recorder) Metric(ctx context.Context, outcomeID uuid.UUID, metricType string, value float64) error {
	if r.store == nil {
		return fmt.Errorf("record metric %s: no store configured", metricType)
	}
	m := &entity.Metric{
		ID:          r.ids.Snowflake(),
		OutcomeID:   &outcomeID,
		MetricType:  metricType,
		MetricValue: value,
	}
	if err := r.store.InsertMetric(ctx, m); err != nil {
		return fmt.Errorf("record metric %s: %w", metricType, err)
	}
	return nil
}
