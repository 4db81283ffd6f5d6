package testreports

import "time"

// Config holds configuration for the report load test
type Config struct {
	BaseURL      string        // Base URL of the service
	NumReports   int           // Number of report drafts to generate
	RecentN      int           // Number of entries to fetch from the recent listing
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	PollInterval time.Duration // Delay between status polls
	APIKey       string        // Credential sent as X-API-Key, never logged
	OutputFile   string        // Output file for submissions
	LogFile      string        // Log file for test output
	Verbose      bool          // Enable verbose logging
}

// Submission represents a report draft to be submitted
type Submission struct {
	RequestID string `json:"request_id"`
	Notes     string `json:"notes"`
	Style     string `json:"style,omitempty"`
}

// AckResponse represents the response from report submission
type AckResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// ReportStatus is the slice of a report the test cares about
type ReportStatus struct {
	ID              string  `json:"id"`
	Status          string  `json:"status"`
	FailureKind     string  `json:"failure_kind,omitempty"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// Summary represents an entry in the recent listing
type Summary struct {
	ID         string  `json:"id"`
	Title      string  `json:"title,omitempty"`
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence"`
}

// Stats holds test statistics
type Stats struct {
	ReportsGenerated int
	ReportsSubmitted int
	ReportsAccepted  int
	ReportsDuplicate int
	ReportsRejected  int
	ReportsVerified  int
	ReportsFailed    int
	ReportsPending   int
	RecentEntries    int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
