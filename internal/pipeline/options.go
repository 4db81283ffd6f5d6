package pipeline

import "github.com/ahadullabaig/Bean/internal/adapters/gemini"

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithModel sets the generation model identifier.
func WithModel(m string) Option {
	return func(p *Pipeline) {
		if m != "" {
			p.model = m
		}
	}
}

// WithOrganizer sets the organizer filled in when extraction finds none.
func WithOrganizer(organizer string) Option {
	return func(p *Pipeline) {
		if organizer != "" {
			p.organizer = organizer
		}
	}
}

// WithRetryPolicy sets the retry policy applied to each remote call.
func WithRetryPolicy(policy gemini.Policy) Option {
	return func(p *Pipeline) {
		p.policy = policy
	}
}

// WithParseRetries sets the number of corrective re-prompts after a
// schema-invalid response.
func WithParseRetries(n int) Option {
	return func(p *Pipeline) {
		if n >= 0 {
			p.parseRetries = n
		}
	}
}
