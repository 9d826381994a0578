package pipeline

import (
	"context"
	"regexp"
	"strconv"

	"github.com/ovaphlow/pitchfork/service-raas/internal/llm"
)

var iterationsLine = regexp.MustCompile(`(?mi)^\s*iterations:\s*(\d+)\s*$`)

// LiveProducer asks a language model for every stage, chaining earlier
// outputs into later prompts.
type LiveProducer struct {
	completer llm.Completer
	catalog   *Catalog
}

func NewLiveProducer(completer llm.Completer, catalog *Catalog) *LiveProducer {
	return &LiveProducer{completer: completer, catalog: catalog}
}

func (p *LiveProducer) Produce(ctx context.Context, stage Stage, sc StageContext) (StageOutput, error) {
	system, user, err := p.catalog.Render(stage, sc)
	if err != nil {
		return StageOutput{}, err
	}
	text, err := p.completer.Complete(ctx, system, user)
	if err != nil {
		return StageOutput{}, err
	}
	out := StageOutput{Text: text, Iterations: 1, Details: map[string]any{"output_chars": len(text)}}
	if m := iterationsLine.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			out.Iterations = n
			out.Details["iterations"] = n
		}
	}
	if stage.Role == RoleDeployer {
		out.Details["url"] = DeploymentURL(sc.Outcome.ID.String())
	}
	return out, nil
}
