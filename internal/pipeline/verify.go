package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/ahadullabaig/Bean/internal/adapters/gemini"
	"github.com/ahadullabaig/Bean/internal/domain/model"
	"github.com/ahadullabaig/Bean/pkg/logger"
	"github.com/ahadullabaig/Bean/pkg/metrics"
)

// verifyTemperature pins verification to deterministic judging.
const verifyTemperature float32 = 0.0

// degradedConfidence is the confidence attached to the fallback verdict when
// verification itself fails. Low enough that consumers know the judgment is
// hollow, nonzero so downstream ranking does not treat it as certain garbage.
const degradedConfidence = 0.3

// Verify judges the narrative against the source material. Verification is a
// safety net over an already-reviewed flow, so it degrades to a safe
// low-confidence verdict instead of failing the whole report; only rate-limit
// and authentication failures propagate, since those doom the session anyway.
func (p *Pipeline) Verify(ctx context.Context, credential, sourceText string, narrative model.Narrative) (model.Verdict, bool, error) {
	g, err := p.acquire(ctx, credential)
	if err != nil {
		return model.Verdict{}, false, err
	}

	req := gemini.Request{
		Model:       p.model,
		Prompt:      verificationPrompt(sourceText, narrative),
		Schema:      verdictSchema,
		Temperature: verifyTemperature,
	}

	start := time.Now()
	verdict, err := generateInto[model.Verdict](ctx, p, g, StageVerify, req)
	metrics.RecordStageLatency(StageVerify, float64(time.Since(start).Milliseconds()))
	if err != nil {
		var rateErr *gemini.RateLimitError
		var authErr *gemini.AuthenticationError
		if errors.As(err, &rateErr) || errors.As(err, &authErr) {
			p.handleAuthFailure(ctx, credential, err)
			return model.Verdict{}, false, &StageError{Stage: StageVerify, Err: err}
		}

		metrics.RecordDegradedVerdict()
		p.log.Warn(ctx, "verification degraded to safe default", logger.Error(err))
		return degradedVerdict(), true, nil
	}

	metrics.ObserveVerdictConfidence(verdict.Confidence)
	p.log.Debug(ctx, "narrative verified",
		logger.Duration("took", time.Since(start)),
		logger.Bool("is_safe", verdict.IsSafe),
		logger.Float64("confidence", verdict.Confidence))
	return verdict, false, nil
}

// degradedVerdict is the fallback judgment when verification cannot complete.
func degradedVerdict() model.Verdict {
	return model.Verdict{
		IsSafe:     true,
		Confidence: degradedConfidence,
		Issues:     []string{},
		Reasoning:  "Verification could not be completed",
	}
}
