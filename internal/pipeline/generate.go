package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/ahadullabaig/Bean/internal/adapters/gemini"
	"github.com/ahadullabaig/Bean/pkg/logger"
	"github.com/ahadullabaig/Bean/pkg/metrics"
)

// defaultParseRetries bounds self-correction: after the first attempt, up to
// this many corrective re-prompts before the stage gives up.
const defaultParseRetries = 2

// generateInto runs one schema-constrained generation with self-correction.
// Each attempt goes through the retry policy; output that fails strict JSON
// decoding or struct validation is fed back to the model with the parser
// error. Rate-limit and authentication failures abort immediately, as does a
// transient failure that survives the retry policy.
func generateInto[T any](ctx context.Context, p *Pipeline, g gemini.Generator, stage string, req gemini.Request) (T, error) {
	var zero T

	base := req.Prompt
	attempts := p.parseRetries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		metrics.RecordStageAttempt(stage)

		var resp gemini.Response
		err := p.policy.Do(ctx, func(ctx context.Context) error {
			r, gerr := g.GenerateContent(ctx, req)
			if gerr != nil {
				return gerr
			}
			resp = r
			return nil
		})
		if err != nil {
			// An empty response is a malformed output, not an outage:
			// it consumes a self-correction attempt.
			if errors.Is(err, gemini.ErrEmptyResponse) {
				metrics.RecordParseFailure(stage)
				lastErr = err
				req.Prompt = correctionPrompt(base, "", err)
				continue
			}
			return zero, err
		}

		raw := []byte(resp.Parsed)
		if raw == nil {
			raw = []byte(stripFences(resp.Text))
		}

		var out T
		if derr := decodeStrict(raw, &out); derr != nil {
			metrics.RecordParseFailure(stage)
			p.log.Warn(ctx, "stage output rejected by decoder",
				logger.String("stage", stage),
				logger.Int("attempt", attempt),
				logger.Error(derr))
			lastErr = derr
			req.Prompt = correctionPrompt(base, resp.Text, derr)
			continue
		}
		if verr := p.validate.Struct(&out); verr != nil {
			metrics.RecordParseFailure(stage)
			p.log.Warn(ctx, "stage output rejected by validator",
				logger.String("stage", stage),
				logger.Int("attempt", attempt),
				logger.Error(verr))
			lastErr = verr
			req.Prompt = correctionPrompt(base, resp.Text, verr)
			continue
		}
		return out, nil
	}

	return zero, &ParseError{Stage: stage, Attempts: attempts, Err: lastErr}
}

// decodeStrict decodes JSON rejecting fields our types do not declare.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// stripFences removes a markdown code fence wrapped around a JSON payload.
// Models occasionally wrap output in fences despite the JSON response MIME
// type.
func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	if i := strings.LastIndex(t, "```"); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}
