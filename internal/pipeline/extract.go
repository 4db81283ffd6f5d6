package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/ahadullabaig/Bean/internal/adapters/gemini"
	"github.com/ahadullabaig/Bean/internal/domain/model"
	"github.com/ahadullabaig/Bean/pkg/logger"
	"github.com/ahadullabaig/Bean/pkg/metrics"
)

// extractTemperature pins extraction to deterministic decoding; the stage
// must never get creative with facts.
const extractTemperature float32 = 0.0

// Extract pulls typed event facts out of raw notes and optional media. Empty
// input short-circuits to empty facts without a remote call.
func (p *Pipeline) Extract(ctx context.Context, credential, notes string, media []gemini.Blob) (model.Facts, error) {
	if strings.TrimSpace(notes) == "" && len(media) == 0 {
		var facts model.Facts
		facts.EnsureOrganizer(p.organizer)
		return facts, nil
	}

	g, err := p.acquire(ctx, credential)
	if err != nil {
		return model.Facts{}, err
	}

	req := gemini.Request{
		Model:       p.model,
		Prompt:      extractionPrompt(notes),
		Media:       media,
		Schema:      factsSchema,
		Temperature: extractTemperature,
	}

	start := time.Now()
	facts, err := generateInto[model.Facts](ctx, p, g, StageExtract, req)
	metrics.RecordStageLatency(StageExtract, float64(time.Since(start).Milliseconds()))
	if err != nil {
		p.handleAuthFailure(ctx, credential, err)
		return model.Facts{}, &StageError{Stage: StageExtract, Err: err}
	}

	facts.EnsureOrganizer(p.organizer)
	p.log.Debug(ctx, "facts extracted",
		logger.Duration("took", time.Since(start)),
		logger.Bool("has_title", facts.EventTitle != nil))
	return facts, nil
}
