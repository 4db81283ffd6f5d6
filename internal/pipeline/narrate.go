package pipeline

import (
	"context"
	"time"

	"github.com/ahadullabaig/Bean/internal/adapters/gemini"
	"github.com/ahadullabaig/Bean/internal/domain/model"
	"github.com/ahadullabaig/Bean/pkg/logger"
	"github.com/ahadullabaig/Bean/pkg/metrics"
)

// narrateTemperature allows mild stylistic variation; the prompt still
// forbids claims beyond the provided facts.
const narrateTemperature float32 = 0.3

// Narrate turns verified facts into a formal narrative. An optional style
// sample steers tone without contributing facts.
func (p *Pipeline) Narrate(ctx context.Context, credential string, facts model.Facts, style string) (model.Narrative, error) {
	g, err := p.acquire(ctx, credential)
	if err != nil {
		return model.Narrative{}, err
	}

	req := gemini.Request{
		Model:       p.model,
		Prompt:      narrationPrompt(facts, style),
		Schema:      narrativeSchema,
		Temperature: narrateTemperature,
	}

	start := time.Now()
	narrative, err := generateInto[model.Narrative](ctx, p, g, StageNarrate, req)
	metrics.RecordStageLatency(StageNarrate, float64(time.Since(start).Milliseconds()))
	if err != nil {
		p.handleAuthFailure(ctx, credential, err)
		return model.Narrative{}, &StageError{Stage: StageNarrate, Err: err}
	}

	p.log.Debug(ctx, "narrative generated",
		logger.Duration("took", time.Since(start)),
		logger.Int("takeaways", len(narrative.KeyTakeaways)))
	return narrative, nil
}
