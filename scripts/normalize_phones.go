package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog"

	"github.com/AlexTLDR/memories/internal/ledger"
	"github.com/AlexTLDR/memories/internal/rsvp"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	path := os.Getenv("RSVP_FILE")
	if path == "" {
		path = rsvp.DocumentPath
	}
	region := os.Getenv("PHONE_REGION")

	doc := ledger.New[rsvp.Record](ledger.FileBackend(path), log)
	rsvps := rsvp.NewLedger(doc, rsvp.Options{PhoneRegion: region}, log)

	report, err := rsvps.NormalizePhones(context.Background())
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to normalize phones")
	}

	names := make([]string, 0, len(report.Failures))
	for name := range report.Failures {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		log.Warn().Str("guest", name).Str("phone", report.Failures[name]).Msg("Failed to normalize phone")
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total: %d\n", report.Total)
	fmt.Printf("  Updated: %d\n", report.Updated)
	fmt.Printf("  Failed: %d\n", report.Failed)
	fmt.Printf("  Unchanged: %d\n", report.Unchanged)
}
