package testreports

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/ahadullabaig/Bean/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "test_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the report load test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Bean Report Load Test Tool
==========================

A concurrent tool for exercising the Bean report generation pipeline.
Each submitted draft runs through extraction, narration and verification,
so every report costs real model calls. Keep counts modest.

Usage:
  go run cmd/test-reports/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -reports int
        Number of report drafts to generate and submit (default 50)
  -recent int
        Number of entries to fetch from the recent listing (default 25)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -poll duration
        Delay between report status polls (default 2s)
  -api-key string
        Credential sent as X-API-Key (default: BEAN_API_KEY env var)
  -output string
        Output file for generated submissions (default: generated_reports_TIMESTAMP.json)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/test-reports/main.go

  # Test with custom parameters
  go run cmd/test-reports/main.go -reports 200 -workers 16 -url http://localhost:8080

  # Test with verbose output
  go run cmd/test-reports/main.go -verbose -reports 20

  # Test with custom log file
  go run cmd/test-reports/main.go -reports 100 -log my_test.log
`)
}
