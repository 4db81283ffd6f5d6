package testreports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with a timeout and the test credential
type HTTPClient struct {
	client *http.Client
	apiKey string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration, apiKey string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		apiKey: apiKey,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body and the credential header
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitReports submits report drafts concurrently using worker pools.
// It returns the IDs of accepted reports for later status polling.
func submitReports(ctx context.Context, config *Config, submissions []Submission, stats *Stats) ([]string, error) {
	log.Printf("📤 Submitting %d report drafts with %d workers...", len(submissions), config.Workers)

	client := newHTTPClient(config.Timeout, config.APIKey)
	url := config.BaseURL + "/reports"

	// Counters for statistics
	var (
		accepted  int64
		duplicate int64
		rejected  int64
		submitted int64
	)

	// Accepted report IDs, one slot per submission
	reportIDs := make([]string, len(submissions))

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	draftChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range draftChan {
				select {
				case <-ctx.Done():
					return
				default:
					id, result := submitSingleReport(ctx, client, url, submissions[index])

					// Update counters
					atomic.AddInt64(&submitted, 1)
					switch result {
					case "accepted":
						reportIDs[index] = id
						atomic.AddInt64(&accepted, 1)
					case "duplicate":
						reportIDs[index] = id
						atomic.AddInt64(&duplicate, 1)
					case "rejected":
						atomic.AddInt64(&rejected, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						acc := atomic.LoadInt64(&accepted)
						dup := atomic.LoadInt64(&duplicate)
						rej := atomic.LoadInt64(&rejected)

						if config.Verbose {
							log.Printf("📊 Progress: %d/%d submitted (accepted: %d, duplicate: %d, rejected: %d)",
								total, len(submissions), acc, dup, rej)
						} else {
							fmt.Printf("\r📤 Submitted: %d/%d (accepted: %d, duplicate: %d, rejected: %d)",
								total, len(submissions), acc, dup, rej)
						}
					}
				}
			}
		}()
	}

	// Send draft indices to workers
	go func() {
		defer close(draftChan)
		for i := range submissions {
			select {
			case <-ctx.Done():
				return
			case draftChan <- i:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.ReportsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.ReportsAccepted = int(atomic.LoadInt64(&accepted))
	stats.ReportsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.ReportsRejected = int(atomic.LoadInt64(&rejected))

	log.Printf(`✅ Report submission completed:
   Accepted: %d
   Duplicate: %d
   Rejected: %d
`, stats.ReportsAccepted, stats.ReportsDuplicate, stats.ReportsRejected)

	// Compact the accepted IDs
	ids := make([]string, 0, len(reportIDs))
	for _, id := range reportIDs {
		if id != "" {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// submitSingleReport submits a single draft and returns the report ID and result
func submitSingleReport(ctx context.Context, client *HTTPClient, url string, submission Submission) (string, string) {
	resp, err := client.Post(ctx, url, submission)
	if err != nil {
		return "", "rejected"
	}

	// Read response body
	body, err := readResponseBody(resp)
	if err != nil {
		return "", "rejected"
	}

	// Parse response based on status code
	switch resp.StatusCode {
	case StatusAccepted:
		// Accepted - new report
		var ack AckResponse
		if err := unmarshalJSON(body, &ack); err != nil {
			return "", "rejected"
		}
		return ack.ID, "accepted"
	case StatusOK:
		// OK - duplicate request ID, resolves to the original report
		var ack AckResponse
		if err := unmarshalJSON(body, &ack); err != nil {
			return "", "rejected"
		}
		return ack.ID, "duplicate"
	default:
		// Error
		return "", "rejected"
	}
}
