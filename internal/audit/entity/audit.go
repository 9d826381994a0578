package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// Log is one administrative action recorded in `audit_logs`.
type Log struct {
	ID          string         `db:"id" json:"id"`
	Action      string         `db:"action" json:"action"`
	PerformedBy string         `db:"performed_by" json:"performed_by"`
	TargetType  string         `db:"target_type" json:"target_type"`
	TargetID    string         `db:"target_id" json:"target_id"`
	Details     types.JSONText `db:"details" json:"details"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// Metric is a numeric observation in `raas_metrics`.
type Metric struct {
	ID          string     `db:"id" json:"id"`
	OutcomeID   *uuid.UUID `db:"outcome_id" json:"outcome_id"`
	MetricType  string     `db:"metric_type" json:"metric_type"`
	MetricValue float64    `db:"metric_value" json:"metric_value"`
	RecordedAt  time.Time  `db:"recorded_at" json:"recorded_at"`
}

const MetricDeliveryTime = "delivery_time_minutes"
