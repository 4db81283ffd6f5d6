package testreports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ahadullabaig/Bean/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete report load test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}

	logger.Get().Info(ctx, "starting bean report load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("reports", config.NumReports),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("recentN", config.RecentN),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate report drafts
	submissions, err := generateSubmissions(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("draft generation failed: %w", err)
	}

	// Step 3: Submit drafts concurrently
	reportIDs, err := submitReports(ctx, config, submissions, stats)
	if err != nil {
		return fmt.Errorf("report submission failed: %w", err)
	}

	// Step 4: Poll reports until they settle
	settled, err := pollReports(ctx, config, reportIDs, stats)
	if err != nil {
		return fmt.Errorf("report polling failed: %w", err)
	}

	// Step 5: Get the recent listing
	recent, err := getRecent(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("recent listing retrieval failed: %w", err)
	}

	// Step 6: Verify results
	if err := verifyResults(ctx, config, settled, recent, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 7: Save submissions to file
	if err := saveSubmissionsToFile(ctx, config, submissions); err != nil {
		logger.Get().Warn(ctx, "failed to save submissions to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout, config.APIKey)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveSubmissionsToFile saves the generated drafts to a JSON file.
func saveSubmissionsToFile(ctx context.Context, config *Config, submissions []Submission) error {
	if len(submissions) == 0 {
		return fmt.Errorf("no submissions to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_reports_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write submissions to file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, submission := range submissions {
		jsonData, err := marshalJSON(submission)
		if err != nil {
			return fmt.Errorf("failed to marshal submission %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write submission %d: %w", i, err)
		}

		// Add comma except for last submission
		if i < len(submissions)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "submissions saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, reportsPerSecond float64

	if stats.ReportsSubmitted > 0 {
		successRate = float64(stats.ReportsVerified) / float64(stats.ReportsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		reportsPerSecond = float64(stats.ReportsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("reportsGenerated", stats.ReportsGenerated),
		logger.Int("reportsSubmitted", stats.ReportsSubmitted),
		logger.Int("reportsAccepted", stats.ReportsAccepted),
		logger.Int("reportsDuplicate", stats.ReportsDuplicate),
		logger.Int("reportsRejected", stats.ReportsRejected),
		logger.Int("reportsVerified", stats.ReportsVerified),
		logger.Int("reportsFailed", stats.ReportsFailed),
		logger.Int("reportsPending", stats.ReportsPending),
		logger.Int("recentEntries", stats.RecentEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("reportsPerSecond", reportsPerSecond))
}
