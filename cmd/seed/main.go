package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusengage/engine/internal/seedclient"
)

// Default seeding configuration.
const (
	defaultExtraStudents = 0
	defaultEventsPer     = 4
	defaultWorkers       = 8
	defaultTimeout       = 10 * time.Second
	defaultTopN          = 10
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "Base URL of the engine service")
		extra   = flag.Int("extra", defaultExtraStudents, "Randomized students on top of the demo roster")
		perEach = flag.Int("events", defaultEventsPer, "Attendance confirmations per random student")
		workers = flag.Int("workers", defaultWorkers, "Number of concurrent workers")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		topN    = flag.Int("top", defaultTopN, "Leaderboard entries to fetch for verification")
		verbose = flag.Bool("verbose", false, "Log per-request outcomes")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &seedclient.Config{
		BaseURL:       *baseURL,
		ExtraStudents: *extra,
		EventsPer:     *perEach,
		Workers:       *workers,
		Timeout:       *timeout,
		TopN:          *topN,
		Verbose:       *verbose,
	}

	if _, err := seedclient.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("seeding failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
