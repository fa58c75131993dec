package seedclient

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Run submits the demo roster plus any configured random volume, then
// fetches the leaderboard and checks its ordering.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{}
	start := time.Now()

	rosters := [][]studentSeed{demoRoster()}
	if cfg.ExtraStudents > 0 {
		rosters = append(rosters, randomStudents(cfg.ExtraStudents, cfg.EventsPer))
	}
	batch := confirmations(rosters...)

	log.Printf("📤 Submitting %d attendance confirmations with %d workers...", len(batch), cfg.Workers)

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if err := submit(ctx, c, cfg, batch, stats); err != nil {
		return stats, err
	}

	rows, err := c.leaderboard(ctx, cfg.TopN)
	if err != nil {
		return stats, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	stats.LeaderboardSize = len(rows)
	if err := verifyOrdering(rows); err != nil {
		return stats, err
	}

	log.Printf("🏆 Leaderboard (top %d):", len(rows))
	for _, row := range rows {
		log.Printf("   #%d %s: %d points", row.Rank, row.StudentName, row.TotalPoints)
	}

	stats.Duration = time.Since(start)
	log.Printf("✅ Seeding completed in %s: awarded=%d duplicate=%d failed=%d badges=%d",
		stats.Duration.Round(time.Millisecond), stats.Awarded, stats.Duplicates, stats.Failed, stats.BadgesUnlocked)
	return stats, nil
}

// submit pushes the batch through a bounded worker pool.
func submit(ctx context.Context, c *client, cfg *Config, batch []attendance, stats *Stats) error {
	var (
		awarded    int64
		duplicates int64
		failed     int64
		badges     int64
	)

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(batch) {
		workers = len(batch)
	}

	work := make(chan attendance, workers*2)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for a := range work {
				select {
				case <-ctx.Done():
					return
				default:
				}
				resp, err := c.confirmAttendance(ctx, a)
				switch {
				case err != nil:
					atomic.AddInt64(&failed, 1)
					if cfg.Verbose {
						log.Printf("❌ %s @ %s: %v", a.StudentID, a.EventID, err)
					}
				case resp.Duplicate:
					atomic.AddInt64(&duplicates, 1)
				default:
					atomic.AddInt64(&awarded, 1)
					if resp.NewBadge != nil {
						atomic.AddInt64(&badges, 1)
						if cfg.Verbose {
							log.Printf("🏅 %s unlocked %s at %d points", a.StudentID, resp.NewBadge.Name, resp.Ledger.TotalPoints)
						}
					}
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, a := range batch {
			select {
			case <-ctx.Done():
				return
			case work <- a:
			}
		}
	}()

	wg.Wait()

	stats.ConfirmationsSent = len(batch)
	stats.Awarded = int(atomic.LoadInt64(&awarded))
	stats.Duplicates = int(atomic.LoadInt64(&duplicates))
	stats.Failed = int(atomic.LoadInt64(&failed))
	stats.BadgesUnlocked = int(atomic.LoadInt64(&badges))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("seeding cancelled: %w", err)
	}
	return nil
}

// verifyOrdering checks that ranks are sequential and point totals never
// increase down the board.
func verifyOrdering(rows []leaderboardRow) error {
	for i, row := range rows {
		if row.Rank != i+1 {
			return fmt.Errorf("leaderboard rank mismatch at index %d: got rank %d", i, row.Rank)
		}
		if i > 0 && row.TotalPoints > rows[i-1].TotalPoints {
			return fmt.Errorf("leaderboard out of order: rank %d has %d points, rank %d has %d",
				row.Rank, row.TotalPoints, rows[i-1].Rank, rows[i-1].TotalPoints)
		}
	}
	return nil
}
