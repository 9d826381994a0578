package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-raas/internal/audit/entity"
)

const (
	DefaultAuditLimit  = 100
	DefaultMetricLimit = 200
)

// AuditRepo persists audit_logs and raas_metrics.
type AuditRepo struct {
	db *sqlx.DB
}

func NewAuditRepo(db *sqlx.DB) *AuditRepo { return &AuditRepo{db: db} }

// EnsureTable creates audit_logs and raas_metrics. raas_metrics references
// outcomes, so the outcome table must exist first.
func (r *AuditRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS audit_logs (
  id VARCHAR(32) PRIMARY KEY,
  action TEXT NOT NULL,
  performed_by TEXT NOT NULL,
  target_type TEXT NOT NULL DEFAULT '',
  target_id TEXT NOT NULL DEFAULT '',
  details JSONB NOT NULL DEFAULT '{}'::jsonb,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at DESC);

CREATE TABLE IF NOT EXISTS raas_metrics (
  id VARCHAR(32) PRIMARY KEY,
  outcome_id UUID REFERENCES outcomes(id) ON DELETE CASCADE,
  metric_type TEXT NOT NULL,
  metric_value DOUBLE PRECISION NOT NULL,
  recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_raas_metrics_outcome ON raas_metrics(outcome_id);
CREATE INDEX IF NOT EXISTS idx_raas_metrics_recorded_at ON raas_metrics(recorded_at DESC);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *AuditRepo) InsertAudit(ctx context.Context, l *entity.Log) error {
	const q = `INSERT INTO audit_logs (id, action, performed_by, target_type, target_id, details)
		VALUES (:id, :action, :performed_by, :target_type, :target_id, :details)`
	_, err := r.db.NamedExecContext(ctx, q, l)
	return err
}

func (r *AuditRepo) InsertMetric(ctx context.Context, m *entity.Metric) error {
	const q = `INSERT INTO raas_metrics (id, outcome_id, metric_type, metric_value)
		VALUES (:id, :outcome_id, :metric_type, :metric_value)`
	_, err := r.db.NamedExecContext(ctx, q, m)
	return err
}

// ListAudit returns audit entries newest first. limit <= 0 uses DefaultAuditLimit.
func (r *AuditRepo) ListAudit(ctx context.Context, limit int) ([]entity.Log, error) {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	logs := []entity.Log{}
	err := r.db.SelectContext(ctx, &logs, `SELECT id, action, performed_by, target_type, target_id, details, created_at
		FROM audit_logs ORDER BY created_at DESC LIMIT $1`, limit)
	return logs, err
}

// ListMetrics returns metrics newest first. limit <= 0 uses DefaultMetricLimit.
func (r *AuditRepo) ListMetrics(ctx context.Context, limit int) ([]entity.Metric, error) {
	if limit <= 0 {
		limit = DefaultMetricLimit
	}
	metrics := []entity.Metric{}
	err := r.db.SelectContext(ctx, &metrics, `SELECT id, outcome_id, metric_type, metric_value, recorded_at
		FROM raas_metrics ORDER BY recorded_at DESC LIMIT $1`, limit)
	return metrics, err
}
