// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// DefaultOrganizer is used when the source text does not name an organizing body.
const DefaultOrganizer = "IEEE RIT Student Branch"

// Mode describes how an event was conducted.
type Mode string

// Recognized conduction modes. The zero value means "not stated".
const (
	ModeOnline  Mode = "Online"
	ModeOffline Mode = "Offline"
	ModeHybrid  Mode = "Hybrid"
)

// Valid reports whether the mode is unset or one of the recognized values.
func (m Mode) Valid() bool {
	switch m {
	case "", ModeOnline, ModeOffline, ModeHybrid:
		return true
	}
	return false
}

// Winner captures a single placement result extracted from the source text.
// Every scalar field is optional; absent information stays nil.
type Winner struct {
	Place      *string  `json:"place,omitempty"`
	PrizeMoney *string  `json:"prize_money,omitempty"`
	TeamName   *string  `json:"team_name,omitempty"`
	Members    []string `json:"members,omitempty"`
}

// Facts is the strictly-extracted, schema-typed representation of an event.
// Optional scalars are pointers so that "not stated in the source" is an
// explicit nil, never a fabricated zero value.
type Facts struct {
	EventTitle      *string `json:"event_title,omitempty"`
	Date            *string `json:"date,omitempty"`
	Venue           *string `json:"venue,omitempty"`
	SpeakerName     *string `json:"speaker_name,omitempty"`
	AttendanceCount *int    `json:"attendance_count,omitempty" validate:"omitempty,gte=0"`
	VolunteerCount  *int    `json:"volunteer_count,omitempty" validate:"omitempty,gte=0"`

	Organizer      string  `json:"organizer,omitempty"`
	Mode           Mode    `json:"mode,omitempty" validate:"omitempty,oneof=Online Offline Hybrid"`
	TargetAudience *string `json:"target_audience,omitempty"`
	Agenda         *string `json:"agenda,omitempty"`
	MediaLink      *string `json:"media_link,omitempty"`

	StudentCoordinators []string `json:"student_coordinators,omitempty"`
	FacultyCoordinators []string `json:"faculty_coordinators,omitempty"`
	Judges              []string `json:"judges,omitempty"`
	Winners             []Winner `json:"winners,omitempty" validate:"dive"`
}

// EnsureOrganizer fills in the organizing body when the extractor left it
// blank. The default never overrides an organizer named in the source.
func (f *Facts) EnsureOrganizer(organizer string) {
	if strings.TrimSpace(f.Organizer) != "" {
		return
	}
	if strings.TrimSpace(organizer) == "" {
		organizer = DefaultOrganizer
	}
	f.Organizer = organizer
}

// Narrative is prose generated from Facts, constrained to introduce no new
// concrete claims. That constraint is a prompt contract checked by the
// Verification stage, not something the type system can enforce.
type Narrative struct {
	ExecutiveSummary string   `json:"executive_summary" validate:"required"`
	KeyTakeaways     []string `json:"key_takeaways,omitempty"`
	Hashtags         []string `json:"hashtags,omitempty"`
}

// Text renders the narrative as plain text for consistency checking.
func (n Narrative) Text() string {
	var sb strings.Builder
	sb.WriteString(n.ExecutiveSummary)
	for _, t := range n.KeyTakeaways {
		sb.WriteString("\n- ")
		sb.WriteString(t)
	}
	if len(n.Hashtags) > 0 {
		sb.WriteString("\n")
		sb.WriteString(strings.Join(n.Hashtags, " "))
	}
	return sb.String()
}

// Verdict is the Verification stage's structured judgment on
// narrative-vs-source consistency.
type Verdict struct {
	IsSafe     bool     `json:"is_safe"`
	Confidence float64  `json:"confidence" validate:"gte=0,lte=1"`
	Issues     []string `json:"issues,omitempty"`
	Reasoning  string   `json:"reasoning" validate:"required"`
}

// Consistent checks the soft invariant that a safe verdict carries no issues.
func (v Verdict) Consistent() bool {
	return !v.IsSafe || len(v.Issues) == 0
}

// Status tracks a report through the pipeline state machine.
type Status string

// Pipeline states. A report either reaches StatusVerified or terminates at
// StatusFailed; verification alone degrades to verified instead of failing on
// generic validation errors.
const (
	StatusQueued         Status = "queued"
	StatusExtracting     Status = "extracting"
	StatusAwaitingReview Status = "awaiting_review"
	StatusNarrating      Status = "narrating"
	StatusVerifying      Status = "verifying"
	StatusVerified       Status = "verified"
	StatusFailed         Status = "failed"
)

// Terminal reports whether no further pipeline work will happen.
func (s Status) Terminal() bool {
	return s == StatusVerified || s == StatusFailed
}

// FailureKind distinguishes terminal failures so callers can present
// "wait and retry" versus "re-enter credential" guidance.
type FailureKind string

// Failure kinds for StatusFailed reports.
const (
	FailureRateLimited     FailureKind = "rate_limited"
	FailureUnauthenticated FailureKind = "unauthenticated"
	FailureExtraction      FailureKind = "extraction_failed"
	FailureNarration       FailureKind = "narration_failed"
)

// Report is the terminal artifact of a pipeline run: the reviewed facts, the
// generated narrative, and the verification verdict, plus serving metadata.
type Report struct {
	ID    string `json:"id"`
	Notes string `json:"notes,omitempty"` // raw source text, retained as verification ground truth

	Facts         Facts      `json:"facts"`
	FactsReviewed bool       `json:"facts_reviewed"`
	Narrative     *Narrative `json:"narrative,omitempty"`
	Verdict       *Verdict   `json:"verdict,omitempty"`

	// ConfidenceScore starts at zero and is overwritten by the Verdict's
	// confidence once verification completes.
	ConfidenceScore float64 `json:"confidence_score"`

	Status            Status      `json:"status"`
	FailureKind       FailureKind `json:"failure_kind,omitempty"`
	FailureMessage    string      `json:"failure_message,omitempty"`
	RetryAfterSeconds int         `json:"retry_after_seconds,omitempty"`

	HoldForReview bool      `json:"hold_for_review,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AttachVerdict records the verdict and overwrites the report confidence.
func (r *Report) AttachVerdict(v Verdict) {
	r.Verdict = &v
	r.ConfidenceScore = v.Confidence
	r.Status = StatusVerified
}

// Fail marks the report as terminally failed with the given kind.
func (r *Report) Fail(kind FailureKind, message string) {
	r.Status = StatusFailed
	r.FailureKind = kind
	r.FailureMessage = message
}
