package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// SimulatedProducer writes canned stage reports without calling a model.
type SimulatedProducer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedProducer uses rng for iteration and test counts; nil seeds from the clock.
func NewSimulatedProducer(rng *rand.Rand) *SimulatedProducer {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &SimulatedProducer{rng: rng}
}

// between returns a value in [lo, lo+n).
func (p *SimulatedProducer) between(lo, n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return lo + p.rng.IntN(n)
}

// DeploymentURL is the preview address reported for an outcome.
func DeploymentURL(outcomeID string) string {
	if len(outcomeID) > 8 {
		outcomeID = outcomeID[:8]
	}
	return "https://outcome-" + outcomeID + ".vercel.app"
}

func (p *SimulatedProducer) Produce(_ context.Context, stage Stage, sc StageContext) (StageOutput, error) {
	o := sc.Outcome
	switch stage.Role {
	case RoleAnalyst:
		words := 0
		if o.Description != nil {
			words = len(strings.Fields(*o.Description))
		}
		return StageOutput{
			Text:       fmt.Sprintf("Analysing requirements for: %q. Identified %d requirement words. Mapping to PRDs...", o.Title, words),
			Iterations: 1,
			Details:    map[string]any{"duration_ms": 1200},
		}, nil
	case RoleArchitect:
		return StageOutput{
			Text:       "Designed system architecture. Database schema: 3-5 tables. API endpoints: 8-12. Frontend pages: 4-6. Estimated delivery: immediate (Ralph loop).",
			Iterations: 1,
			Details:    map[string]any{"duration_ms": 800},
		}, nil
	case RoleEngineer:
		iterations := p.between(3, 5)
		passing := p.between(15, 10)
		return StageOutput{
			Text:       fmt.Sprintf("Ralph loop completed %d iterations. All files generated. Build passing. Tests: %d passing.", iterations, passing),
			Iterations: iterations,
			Details:    map[string]any{"iterations": iterations, "duration_ms": iterations * 3000},
		}, nil
	case RoleTester:
		return StageOutput{
			Text:       "All tests passing. Lint clean. Build succeeds. Lighthouse: 96. Mobile responsive verified.",
			Iterations: 2,
			Details:    map[string]any{"tests_passed": p.between(15, 10)},
		}, nil
	case RoleDeployer:
		url := DeploymentURL(o.ID.String())
		return StageOutput{
			Text:       fmt.Sprintf("Deployed to production. URL: %s. Health check: passing.", url),
			Iterations: 1,
			Details:    map[string]any{"url": url},
		}, nil
	default:
		return StageOutput{}, fmt.Errorf("no simulation for stage %q", stage.Role)
	}
}
