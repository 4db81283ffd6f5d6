package testreports

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/google/uuid"

	"github.com/ahadullabaig/Bean/pkg/logger"
)

// Pools of realistic fragments the note generator draws from.
var (
	eventKinds = []string{
		"hands-on workshop", "guest lecture", "24-hour hackathon",
		"panel discussion", "project expo", "induction session",
		"coding contest", "paper presentation",
	}
	eventTopics = []string{
		"embedded systems", "Git and open source", "machine learning basics",
		"PCB design", "cloud deployment", "competitive programming",
		"signal processing", "web security",
	}
	venues = []string{
		"Seminar Hall A", "Lab 3", "the main auditorium",
		"Innovation Centre", "Room 204", "the open-air theatre",
	}
	speakers = []string{
		"Dr. Meera Nair", "Prof. Arjun Shetty", "Ms. Divya Pillai",
		"Mr. Rahul Kamath", "Dr. Suhas Rao",
	}
	styles = []string{
		"", "formal", "enthusiastic", "concise",
	}
)

// Attendance generation ranges.
const (
	attendanceMin   = 20
	attendanceRange = 180
	volunteerMin    = 2
	volunteerRange  = 10
)

// pick returns a random element of the pool using crypto/rand.
func pick(pool []string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
	return pool[n.Int64()]
}

// pickInt returns min plus a random offset below span.
func pickInt(min, span int64) int64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(span))
	return min + n.Int64()
}

// generateSubmissions creates the specified number of report drafts with unique request IDs.
func generateSubmissions(ctx context.Context, config *Config, stats *Stats) ([]Submission, error) {
	logger.Get().Info(ctx, "generating report drafts", logger.Int("numReports", config.NumReports))

	submissions := make([]Submission, config.NumReports)

	// Pre-allocate request IDs to ensure uniqueness
	requestIDs := make([]string, config.NumReports)
	for i := 0; i < config.NumReports; i++ {
		requestIDs[i] = uuid.New().String()
	}

	// Generate submissions concurrently
	type genResult struct {
		index      int
		submission Submission
		err        error
	}

	resultChan := make(chan genResult, config.NumReports)

	// Use worker pool for generation
	workerCount := minInt(config.Workers, config.NumReports)
	perWorker := config.NumReports / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * perWorker
		end := start + perWorker
		if worker == workerCount-1 {
			end = config.NumReports // Last worker gets the remainder
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- genResult{index: i, err: ctx.Err()}
					return
				default:
					submission := generateSingleSubmission(i, requestIDs[i])
					resultChan <- genResult{index: i, submission: submission, err: nil}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.NumReports; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during draft generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate draft %d: %w", result.index, result.err)
			}
			submissions[result.index] = result.submission
		}
	}

	stats.ReportsGenerated = len(submissions)
	logger.Get().Info(ctx, "generated report drafts successfully", logger.Int("count", len(submissions)))

	return submissions, nil
}

// generateSingleSubmission creates a single draft with the given index and request ID.
func generateSingleSubmission(index int, requestID string) Submission {
	kind := pick(eventKinds)
	topic := pick(eventTopics)
	venue := pick(venues)
	speaker := pick(speakers)
	attendance := pickInt(attendanceMin, attendanceRange)
	volunteers := pickInt(volunteerMin, volunteerRange)

	notes := "We held a " + kind + " on " + topic + " at " + venue + "." +
		" The session was led by " + speaker + "." +
		" Around " + strconv.FormatInt(attendance, 10) + " students attended and " +
		strconv.FormatInt(volunteers, 10) + " volunteers helped run it." +
		" This was draft number " + strconv.Itoa(index) + " of the load test."

	return Submission{
		RequestID: requestID,
		Notes:     notes,
		Style:     pick(styles),
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
