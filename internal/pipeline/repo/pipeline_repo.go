package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-raas/internal/pipeline/entity"
)

type PipelineRepo struct {
	db *sqlx.DB
}

func NewPipelineRepo(db *sqlx.DB) *PipelineRepo { return &PipelineRepo{db: db} }

// EnsureTable creates agent_executions and prd_instances. Both reference outcomes.
func (r *PipelineRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS agent_executions (
  id VARCHAR(32) PRIMARY KEY,
  outcome_id UUID NOT NULL REFERENCES outcomes(id) ON DELETE CASCADE,
  agent_role TEXT NOT NULL CHECK (agent_role IN ('analyst', 'architect', 'engineer', 'tester', 'deployer')),
  iteration_count INTEGER NOT NULL DEFAULT 0,
  last_status TEXT NOT NULL DEFAULT '',
  completed BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_agent_executions_outcome ON agent_executions(outcome_id, created_at);

CREATE TABLE IF NOT EXISTS prd_instances (
  id VARCHAR(32) PRIMARY KEY,
  outcome_id UUID NOT NULL REFERENCES outcomes(id) ON DELETE CASCADE,
  prd_number INTEGER NOT NULL,
  status TEXT NOT NULL,
  logs JSONB NOT NULL DEFAULT '[]'::jsonb,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_prd_instances_outcome ON prd_instances(outcome_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *PipelineRepo) InsertExecution(ctx context.Context, e *entity.AgentExecution) error {
	const q = `INSERT INTO agent_executions (id, outcome_id, agent_role, iteration_count, last_status, completed)
		VALUES (:id, :outcome_id, :agent_role, :iteration_count, :last_status, :completed)`
	_, err := r.db.NamedExecContext(ctx, q, e)
	return err
}

// ListExecutions returns the outcome's stage rows in insertion order.
// Snowflake ids break ties between rows written in the same instant.
func (r *PipelineRepo) ListExecutions(ctx context.Context, outcomeID uuid.UUID) ([]entity.AgentExecution, error) {
	out := []entity.AgentExecution{}
	err := r.db.SelectContext(ctx, &out, `SELECT id, outcome_id, agent_role, iteration_count, last_status, completed, created_at
		FROM agent_executions WHERE outcome_id=$1 ORDER BY created_at, length(id), id`, outcomeID)
	return out, err
}

func (r *PipelineRepo) InsertPRD(ctx context.Context, p *entity.PRDInstance) error {
	const q = `INSERT INTO prd_instances (id, outcome_id, prd_number, status, logs, completed_at)
		VALUES (:id, :outcome_id, :prd_number, :status, :logs, :completed_at)`
	_, err := r.db.NamedExecContext(ctx, q, p)
	return err
}

// ListPRDs returns the outcome's PRD summaries, newest first.
func (r *PipelineRepo) ListPRDs(ctx context.Context, outcomeID uuid.UUID) ([]entity.PRDInstance, error) {
	out := []entity.PRDInstance{}
	err := r.db.SelectContext(ctx, &out, `SELECT id, outcome_id, prd_number, status, logs, created_at, completed_at
		FROM prd_instances WHERE outcome_id=$1 ORDER BY created_at DESC`, outcomeID)
	return out, err
}
