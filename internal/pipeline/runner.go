package pipeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/apperr"
	aentity "github.com/ovaphlow/pitchfork/service-raas/internal/audit/entity"
	"github.com/ovaphlow/pitchfork/service-raas/internal/auth"
	oentity "github.com/ovaphlow/pitchfork/service-raas/internal/outcome/entity"
	orepo "github.com/ovaphlow/pitchfork/service-raas/internal/outcome/repo"
	"github.com/ovaphlow/pitchfork/service-raas/internal/pipeline/entity"
	"github.com/ovaphlow/pitchfork/service-raas/pkg/utilities"
)

type OutcomeStore interface {
	GetWithOwner(ctx context.Context, id uuid.UUID) (*oentity.WithOwner, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, owner *uuid.UUID, c orepo.StatusChange) (int64, error)
}

type ExecutionStore interface {
	InsertExecution(ctx context.Context, e *entity.AgentExecution) error
	ListExecutions(ctx context.Context, outcomeID uuid.UUID) ([]entity.AgentExecution, error)
	InsertPRD(ctx context.Context, p *entity.PRDInstance) error
	ListPRDs(ctx context.Context, outcomeID uuid.UUID) ([]entity.PRDInstance, error)
}

type Recorder interface {
	Event(event, userID string, kv ...any)
	Metric(ctx context.Context, outcomeID uuid.UUID, metricType string, value float64) error
}

type DeliveryNotifier interface {
	OutcomeDelivered(ctx context.Context, userID uuid.UUID, to, title string, outcomeID uuid.UUID) error
}

type RunOptions struct {
	// Resume reuses completed stage rows from earlier runs and only runs the
	// stages after them.
	Resume bool
	// Actor, when set, must own the outcome or hold pipeline:run_any.
	Actor *auth.Principal
}

type AgentSummary struct {
	Role       Role   `json:"role"`
	Status     string `json:"status"`
	Iterations int    `json:"iterations,omitempty"`
	Reused     bool   `json:"reused,omitempty"`
}

const (
	agentComplete = "complete"
	agentFailed   = "failed"
)

// Report describes a run. FailedStage is empty on success.
type Report struct {
	OutcomeID   uuid.UUID      `json:"outcomeId"`
	Status      oentity.Status `json:"status"`
	Message     string         `json:"message,omitempty"`
	Agents      []AgentSummary `json:"agents"`
	FailedStage Role           `json:"failedStage,omitempty"`
}

// Runner drives outcomes through Stages.
type Runner struct {
	outcomes OutcomeStore
	execs    ExecutionStore
	producer Producer
	rec      Recorder
	notifier DeliveryNotifier
	ids      *utilities.IDGenerator
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewRunner wires a runner. notifier may be nil.
func NewRunner(outcomes OutcomeStore, execs ExecutionStore, producer Producer, rec Recorder,
	notifier DeliveryNotifier, ids *utilities.IDGenerator, logger *zap.SugaredLogger) *Runner {
	if ids == nil {
		ids = utilities.NewIDGenerator(1)
	}
	return &Runner{
		outcomes: outcomes,
		execs:    execs,
		producer: producer,
		rec:      rec,
		notifier: notifier,
		ids:      ids,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes the pipeline for one outcome. A stage failure is recorded as
// an incomplete execution row, stops the run and leaves the outcome
// in_progress; the returned report names the failed stage.
func (r *Runner) Run(ctx context.Context, outcomeID uuid.UUID, opts RunOptions) (*Report, error) {
	o, err := r.outcomes.GetWithOwner(ctx, outcomeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("outcome")
	}
	if err != nil {
		return nil, fmt.Errorf("load outcome: %w", err)
	}
	if a := opts.Actor; a != nil && a.UserID != o.UserID && !a.Can(auth.CapRunAnyPipeline) {
		return nil, apperr.NotFound("outcome")
	}

	r.rec.Event("agent_pipeline_started", actorID(opts.Actor), "outcome_id", outcomeID, "title", o.Title, "resume", opts.Resume)
	if _, err := r.outcomes.UpdateStatus(ctx, outcomeID, nil, orepo.StatusChange{Status: oentity.StatusInProgress}); err != nil {
		return nil, fmt.Errorf("mark in progress: %w", err)
	}

	var reused []StageResult
	if opts.Resume {
		reused, err = r.completedPrefix(ctx, outcomeID)
		if err != nil {
			return nil, err
		}
	}

	report := &Report{OutcomeID: outcomeID, Status: oentity.StatusInProgress}
	sc := StageContext{Outcome: &o.Outcome}
	for _, res := range reused {
		sc.Prior = append(sc.Prior, res)
		report.Agents = append(report.Agents, summary(res, agentComplete))
	}

	for _, stage := range Stages[len(reused):] {
		res, err := r.runStage(ctx, stage, sc)
		if err != nil {
			report.FailedStage = stage.Role
			report.Agents = append(report.Agents, AgentSummary{Role: stage.Role, Status: agentFailed})
			r.rec.Event("agent_pipeline_failed", actorID(opts.Actor), "outcome_id", outcomeID, "stage", stage.Role, "err", err.Error())
			return report, fmt.Errorf("stage %s: %w", stage.Role, err)
		}
		sc.Prior = append(sc.Prior, res)
		report.Agents = append(report.Agents, summary(res, agentComplete))
	}

	if err := r.finish(ctx, o, sc.Prior); err != nil {
		return report, err
	}

	total := 0
	for _, res := range sc.Prior {
		total += res.Output.Iterations
	}
	report.Status = oentity.StatusDelivered
	report.Message = fmt.Sprintf("✅ Outcome %q has been processed by %d agents across %d total iterations and delivered successfully.",
		o.Title, len(Stages), total)
	r.rec.Event("agent_pipeline_completed", actorID(opts.Actor), "outcome_id", outcomeID, "iterations", total, "reused", len(reused))
	return report, nil
}

// History is the stored record of every run for one outcome.
type History struct {
	OutcomeID  uuid.UUID               `json:"outcomeId"`
	Executions []entity.AgentExecution `json:"executions"`
	PRDs       []entity.PRDInstance    `json:"prds"`
}

// History returns the execution rows and PRD summaries of an outcome the
// actor may run.
func (r *Runner) History(ctx context.Context, outcomeID uuid.UUID, actor *auth.Principal) (*History, error) {
	o, err := r.outcomes.GetWithOwner(ctx, outcomeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("outcome")
	}
	if err != nil {
		return nil, fmt.Errorf("load outcome: %w", err)
	}
	if actor != nil && actor.UserID != o.UserID && !actor.Can(auth.CapRunAnyPipeline) {
		return nil, apperr.NotFound("outcome")
	}
	execs, err := r.execs.ListExecutions(ctx, outcomeID)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	prds, err := r.execs.ListPRDs(ctx, outcomeID)
	if err != nil {
		return nil, fmt.Errorf("list prds: %w", err)
	}
	h := &History{OutcomeID: outcomeID, Executions: execs, PRDs: prds}
	if h.Executions == nil {
		h.Executions = []entity.AgentExecution{}
	}
	if h.PRDs == nil {
		h.PRDs = []entity.PRDInstance{}
	}
	return h, nil
}

func actorID(p *auth.Principal) string {
	if p == nil {
		return ""
	}
	return p.AuthID
}

func summary(res StageResult, status string) AgentSummary {
	s := AgentSummary{Role: res.Stage.Role, Status: status, Reused: res.Reused}
	if res.Stage.Role == RoleEngineer {
		s.Iterations = res.Output.Iterations
	}
	return s
}

// completedPrefix returns results for the leading stages that already have a
// completed row, stopping at the first stage without one.
func (r *Runner) completedPrefix(ctx context.Context, outcomeID uuid.UUID) ([]StageResult, error) {
	rows, err := r.execs.ListExecutions(ctx, outcomeID)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	latest := map[Role]entity.AgentExecution{}
	for _, row := range rows {
		if row.Completed {
			latest[Role(row.AgentRole)] = row
		}
	}
	var out []StageResult
	for _, stage := range Stages {
		row, ok := latest[stage.Role]
		if !ok {
			break
		}
		out = append(out, StageResult{
			Stage:  stage,
			Output: StageOutput{Text: row.LastStatus, Iterations: row.IterationCount},
			Reused: true,
		})
	}
	return out, nil
}

func (r *Runner) runStage(ctx context.Context, stage Stage, sc StageContext) (StageResult, error) {
	start := r.now()
	out, err := r.producer.Produce(ctx, stage, sc)
	row := &entity.AgentExecution{
		ID:        r.ids.Snowflake(),
		OutcomeID: sc.Outcome.ID,
		AgentRole: string(stage.Role),
	}
	if err != nil {
		row.LastStatus = "Stage failed: " + err.Error()
		if insErr := r.execs.InsertExecution(ctx, row); insErr != nil {
			r.logger.Warnw("failed stage not recorded", "outcome_id", sc.Outcome.ID, "stage", stage.Role, "err", insErr)
		}
		return StageResult{}, err
	}
	row.IterationCount = out.Iterations
	row.LastStatus = out.Text
	row.Completed = true
	if err := r.execs.InsertExecution(ctx, row); err != nil {
		return StageResult{}, fmt.Errorf("record execution: %w", err)
	}
	return StageResult{Stage: stage, Output: out, Duration: r.now().Sub(start)}, nil
}

// finish writes the PRD summary and delivery metric, then marks the outcome
// delivered and notifies the owner.
func (r *Runner) finish(ctx context.Context, o *oentity.WithOwner, results []StageResult) error {
	logs, err := json.Marshal(prdLogs(results))
	if err != nil {
		return fmt.Errorf("encode prd logs: %w", err)
	}
	now := r.now().UTC()
	prd := &entity.PRDInstance{
		ID:          r.ids.KSUID(),
		OutcomeID:   o.ID,
		PRDNumber:   entity.FullStackPRD,
		Status:      entity.PRDStatusCompleted,
		Logs:        logs,
		CompletedAt: &now,
	}
	if err := r.execs.InsertPRD(ctx, prd); err != nil {
		return fmt.Errorf("record prd: %w", err)
	}

	minutes := math.Round(now.Sub(o.CreatedAt).Minutes()*100) / 100
	if err := r.rec.Metric(ctx, o.ID, aentity.MetricDeliveryTime, minutes); err != nil {
		r.logger.Warnw("delivery metric not recorded", "outcome_id", o.ID, "err", err)
	}

	if _, err := r.outcomes.UpdateStatus(ctx, o.ID, nil, orepo.StatusChange{Status: oentity.StatusDelivered, DeliveredAt: &now}); err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}

	if r.notifier != nil && o.OwnerEmail != nil && *o.OwnerEmail != "" {
		if err := r.notifier.OutcomeDelivered(ctx, o.UserID, *o.OwnerEmail, o.Title, o.ID); err != nil {
			r.logger.Warnw("delivered email not sent", "outcome_id", o.ID, "err", err)
		}
	}
	return nil
}

func prdLogs(results []StageResult) []map[string]any {
	logs := make([]map[string]any, 0, len(results))
	for _, res := range results {
		entry := map[string]any{
			"stage":      res.Stage.Phase,
			"role":       res.Stage.Role,
			"status":     agentComplete,
			"iterations": res.Output.Iterations,
			"output":     res.Output.Text,
		}
		if !res.Reused {
			entry["elapsed_ms"] = res.Duration.Milliseconds()
		}
		for k, v := range res.Output.Details {
			if _, taken := entry[k]; !taken {
				entry[k] = v
			}
		}
		logs = append(logs, entry)
	}
	return logs
}
