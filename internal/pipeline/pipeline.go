// Package pipeline implements the three-stage report generation flow:
// extraction of typed facts from raw notes, narration of those facts into
// formal prose, and verification of the prose against the source material.
package pipeline

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/ahadullabaig/Bean/internal/adapters/gemini"
	"github.com/ahadullabaig/Bean/internal/domain/model"
	"github.com/ahadullabaig/Bean/pkg/logger"
)

// Pipeline orchestrates the generation stages against a credentialed client
// pool. The pool and retry policy are explicit dependencies, never globals,
// so concurrent sessions with different credentials stay isolated.
type Pipeline struct {
	pool         *gemini.Pool
	policy       gemini.Policy
	model        string
	organizer    string
	parseRetries int
	validate     *validator.Validate
	log          logger.Logger
}

// Result is the artifact of a full pipeline run.
type Result struct {
	Facts     model.Facts
	Narrative model.Narrative
	Verdict   model.Verdict

	// Degraded is true when verification could not complete and the verdict
	// is the low-confidence safe default rather than a real judgment.
	Degraded bool
}

// New creates a pipeline backed by the given client pool.
func New(pool *gemini.Pool, log logger.Logger, opts ...Option) (*Pipeline, error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	p := &Pipeline{
		pool:         pool,
		policy:       gemini.DefaultPolicy(),
		model:        gemini.DefaultModel,
		organizer:    model.DefaultOrganizer,
		parseRetries: defaultParseRetries,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		log:          log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run executes extraction, narration, and verification in order for a single
// submission. The credential travels only through this call chain; it is
// never stored on the pipeline or written to process state.
func (p *Pipeline) Run(ctx context.Context, credential, notes string, media []gemini.Blob, style string) (Result, error) {
	facts, err := p.Extract(ctx, credential, notes, media)
	if err != nil {
		return Result{}, err
	}
	return p.Compose(ctx, credential, notes, facts, style)
}

// Compose runs narration and verification over already-extracted (and
// possibly human-reviewed) facts.
func (p *Pipeline) Compose(ctx context.Context, credential, notes string, facts model.Facts, style string) (Result, error) {
	narrative, err := p.Narrate(ctx, credential, facts, style)
	if err != nil {
		return Result{}, err
	}

	verdict, degraded, err := p.Verify(ctx, credential, SourceText(notes, facts), narrative)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Facts:     facts,
		Narrative: narrative,
		Verdict:   verdict,
		Degraded:  degraded,
	}, nil
}

// acquire resolves the credential to a connection handle.
func (p *Pipeline) acquire(ctx context.Context, credential string) (gemini.Generator, error) {
	return p.pool.Acquire(ctx, credential)
}

// handleAuthFailure evicts a handle whose credential the service rejected,
// so the next submission with a rotated credential dials fresh.
func (p *Pipeline) handleAuthFailure(ctx context.Context, credential string, err error) {
	var authErr *gemini.AuthenticationError
	if errors.As(err, &authErr) {
		p.pool.Release(ctx, credential)
	}
}
