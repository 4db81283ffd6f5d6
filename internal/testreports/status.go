package testreports

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Terminal report statuses.
const (
	statusVerified       = "verified"
	statusFailed         = "failed"
	statusAwaitingReview = "awaiting_review"
)

// pollReports polls every accepted report concurrently until it reaches a
// terminal status or the context expires.
func pollReports(ctx context.Context, config *Config, reportIDs []string, stats *Stats) ([]ReportStatus, error) {
	log.Printf("⏳ Polling %d reports with %d workers...", len(reportIDs), config.Workers)

	client := newHTTPClient(config.Timeout, config.APIKey)

	// Results storage
	results := make([]ReportStatus, len(reportIDs))
	var (
		settled int64
		pending int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	idChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range idChan {
				status, err := pollSingleReport(ctx, client, config, reportIDs[index])
				if err != nil {
					atomic.AddInt64(&pending, 1)
					if config.Verbose {
						log.Printf("⚠️  Report %s did not settle: %v", reportIDs[index], err)
					}
				} else {
					results[index] = status
					atomic.AddInt64(&settled, 1)
				}

				// Progress reporting
				if time.Since(lastReport) >= reportInterval {
					lastReport = time.Now()
					done := atomic.LoadInt64(&settled)
					stuck := atomic.LoadInt64(&pending)

					if config.Verbose {
						log.Printf("📊 Poll progress: %d/%d settled (pending: %d)",
							done, len(reportIDs), stuck)
					} else {
						log.Printf("\r⏳ Settled: %d/%d (pending: %d)",
							done, len(reportIDs), stuck)
					}
				}
			}
		}()
	}

	// Send report indices to workers
	go func() {
		defer close(idChan)
		for i := range reportIDs {
			select {
			case <-ctx.Done():
				return
			case idChan <- i:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Filter out empty entries (reports that never settled)
	settledResults := make([]ReportStatus, 0, len(results))
	for _, status := range results {
		if status.ID != "" {
			settledResults = append(settledResults, status)
		}
	}

	// Update stats
	stats.ReportsPending = int(atomic.LoadInt64(&pending))

	log.Printf(`✅ Report polling completed:
   Settled: %d
   Pending: %d
`, len(settledResults), stats.ReportsPending)

	return settledResults, nil
}

// pollSingleReport fetches a report's status until it is terminal.
func pollSingleReport(ctx context.Context, client *HTTPClient, config *Config, reportID string) (ReportStatus, error) {
	url := fmt.Sprintf("%s/reports/%s", config.BaseURL, reportID)

	for {
		resp, err := client.Get(ctx, url)
		if err != nil {
			return ReportStatus{}, fmt.Errorf("request failed: %w", err)
		}

		body, err := readResponseBody(resp)
		if err != nil {
			return ReportStatus{}, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != StatusOK {
			return ReportStatus{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}

		var status ReportStatus
		if err := unmarshalJSON(body, &status); err != nil {
			return ReportStatus{}, fmt.Errorf("failed to parse response: %w", err)
		}

		switch status.Status {
		case statusVerified, statusFailed, statusAwaitingReview:
			return status, nil
		}

		select {
		case <-ctx.Done():
			return ReportStatus{}, fmt.Errorf("context cancelled while polling: %w", ctx.Err())
		case <-time.After(config.PollInterval):
		}
	}
}

// getRecent retrieves the most recent report summaries.
func getRecent(ctx context.Context, config *Config, stats *Stats) ([]Summary, error) {
	log.Printf("📋 Getting %d recent report summaries...", config.RecentN)

	client := newHTTPClient(config.Timeout, config.APIKey)
	url := fmt.Sprintf("%s/reports?limit=%d", config.BaseURL, config.RecentN)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var recent []Summary
	if err := unmarshalJSON(body, &recent); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.RecentEntries = len(recent)
	log.Printf("✅ Retrieved %d recent summaries", len(recent))

	return recent, nil
}
