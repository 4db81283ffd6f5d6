package testreports

import (
	"context"
	"fmt"
	"log"
)

// verifyResults checks the settled reports against the recent listing.
func verifyResults(ctx context.Context, config *Config, settled []ReportStatus, recent []Summary, stats *Stats) error {
	log.Println("🔍 Verifying results...")

	if len(settled) == 0 {
		return fmt.Errorf("no settled reports to verify")
	}

	// Tally terminal statuses and failure kinds
	failureKinds := make(map[string]int)
	for _, status := range settled {
		switch status.Status {
		case statusVerified:
			stats.ReportsVerified++
		case statusFailed:
			stats.ReportsFailed++
			failureKinds[status.FailureKind]++
		}
	}

	// Verify recent listing consistency if we have listing data
	if len(recent) > 0 {
		if err := verifyListingConsistency(settled, recent); err != nil {
			log.Printf("⚠️  Recent listing consistency warning: %v", err)
		} else {
			log.Println("✅ Recent listing consistency verified")
		}
	}

	displayOutcomes(settled, failureKinds, config.Verbose)

	log.Println("✅ Result verification completed")
	return nil
}

// verifyListingConsistency checks that the recent listing reflects settled reports.
func verifyListingConsistency(settled []ReportStatus, recent []Summary) error {
	if len(recent) == 0 {
		return fmt.Errorf("empty recent listing")
	}

	settledByID := make(map[string]ReportStatus, len(settled))
	for _, status := range settled {
		settledByID[status.ID] = status
	}

	// Every listed entry that belongs to this run must carry its settled status
	matched := 0
	for _, entry := range recent {
		status, ok := settledByID[entry.ID]
		if !ok {
			continue // report from an earlier run
		}
		matched++
		if entry.Status != status.Status {
			return fmt.Errorf("listing status for %s is %q but report settled as %q",
				entry.ID, entry.Status, status.Status)
		}
	}

	if matched == 0 {
		return fmt.Errorf("recent listing contains none of this run's reports")
	}

	return nil
}

// displayOutcomes shows the terminal status breakdown.
func displayOutcomes(settled []ReportStatus, failureKinds map[string]int, verbose bool) {
	verified := 0
	failed := 0
	awaiting := 0
	confidenceSum := 0.0

	for _, status := range settled {
		switch status.Status {
		case statusVerified:
			verified++
			confidenceSum += status.ConfidenceScore
		case statusFailed:
			failed++
		case statusAwaitingReview:
			awaiting++
		}
	}

	log.Printf(`📊 Terminal statuses:
   Verified: %d
   Failed: %d
   Awaiting review: %d
`, verified, failed, awaiting)

	for kind, count := range failureKinds {
		log.Printf("   Failure kind %s: %d", kind, count)
	}

	if verbose && verified > 0 {
		log.Printf("📊 Average verification confidence: %.3f", confidenceSum/float64(verified))
	}
}
