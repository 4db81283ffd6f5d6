package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for pipeline operations.
var (
	ErrNilPool = errors.New("pipeline: nil client pool")
)

// Stage names, used in errors, logs, and metric labels.
const (
	StageExtract = "extract"
	StageNarrate = "narrate"
	StageVerify  = "verify"
)

// StageError marks which pipeline stage a failure happened in while keeping
// the underlying classified error reachable through errors.As. Rate-limit and
// authentication errors surface inside this wrapper too: Unwrap keeps their
// type and retry window intact, so wrapping is how they propagate unchanged.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ParseError reports that every generation attempt for a stage produced
// output that failed schema decoding or validation, self-correction included.
type ParseError struct {
	Stage    string
	Attempts int
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s stage: no schema-conformant output after %d attempts: %v", e.Stage, e.Attempts, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
