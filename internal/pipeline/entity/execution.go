package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// AgentExecution is one stage attempt in `agent_executions`. Rows are
// append-only.
type AgentExecution struct {
	ID             string    `db:"id" json:"id"`
	OutcomeID      uuid.UUID `db:"outcome_id" json:"outcome_id"`
	AgentRole      string    `db:"agent_role" json:"agent_role"`
	IterationCount int       `db:"iteration_count" json:"iteration_count"`
	LastStatus     string    `db:"last_status" json:"last_status"`
	Completed      bool      `db:"completed" json:"completed"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// PRDInstance summarises a finished pipeline run in `prd_instances`.
type PRDInstance struct {
	ID          string         `db:"id" json:"id"`
	OutcomeID   uuid.UUID      `db:"outcome_id" json:"outcome_id"`
	PRDNumber   int            `db:"prd_number" json:"prd_number"`
	Status      string         `db:"status" json:"status"`
	Logs        types.JSONText `db:"logs" json:"logs"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	CompletedAt *time.Time     `db:"completed_at" json:"completed_at"`
}

const (
	// FullStackPRD is the PRD number recorded for a complete delivery.
	FullStackPRD       = 7
	PRDStatusCompleted = "completed"
)
