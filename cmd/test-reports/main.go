package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/ahadullabaig/Bean/internal/testreports"
)

// Default configuration constants.
const (
	defaultNumReports  = 50
	defaultRecentN     = 25
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultPoll        = 2 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numReports = flag.Int("reports", defaultNumReports, "Number of report drafts to generate and submit")
		recentN    = flag.Int("recent", defaultRecentN, "Number of entries to fetch from the recent listing")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		poll       = flag.Duration("poll", defaultPoll, "Delay between report status polls")
		apiKey     = flag.String("api-key", os.Getenv("BEAN_API_KEY"), "Credential sent as X-API-Key")
		outputFile = flag.String("output", "", "Output file for generated submissions (default: generated_reports_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testreports.ShowHelp()
		return
	}

	// Setup logging
	if err := testreports.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &testreports.Config{
		BaseURL:      *baseURL,
		NumReports:   *numReports,
		RecentN:      *recentN,
		Workers:      *workers,
		Timeout:      *timeout,
		PollInterval: *poll,
		APIKey:       *apiKey,
		OutputFile:   *outputFile,
		LogFile:      *logFile,
		Verbose:      *verbose,
	}

	// Run the test
	if err := testreports.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
