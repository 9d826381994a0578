// Package pipeline runs an outcome through the fixed sequence of agent
// stages and records every stage's output.
package pipeline

import (
	"context"
	"time"

	oentity "github.com/ovaphlow/pitchfork/service-raas/internal/outcome/entity"
)

// Role names one agent stage.
type Role string

const (
	RoleAnalyst   Role = "analyst"
	RoleArchitect Role = "architect"
	RoleEngineer  Role = "engineer"
	RoleTester    Role = "tester"
	RoleDeployer  Role = "deployer"
)

// Stage is one step of the delivery sequence. Phase labels the step in the
// PRD log.
type Stage struct {
	Role  Role
	Phase string
}

// Stages is the fixed, ordered delivery sequence.
var Stages = []Stage{
	{RoleAnalyst, "analysis"},
	{RoleArchitect, "architecture"},
	{RoleEngineer, "implementation"},
	{RoleTester, "testing"},
	{RoleDeployer, "deployment"},
}

// StageContext is everything a stage sees: the outcome and the results of the
// stages before it, in order.
type StageContext struct {
	Outcome *oentity.Outcome
	Prior   []StageResult
}

// StageOutput is what a producer returns for one stage.
type StageOutput struct {
	Text       string
	Iterations int
	// Details are merged into the stage's PRD log entry.
	Details map[string]any
}

type StageResult struct {
	Stage    Stage
	Output   StageOutput
	Duration time.Duration
	// Reused is set when the result came from an earlier run.
	Reused bool
}

// Producer generates the output of one stage.
type Producer interface {
	Produce(ctx context.Context, stage Stage, sc StageContext) (StageOutput, error)
}
