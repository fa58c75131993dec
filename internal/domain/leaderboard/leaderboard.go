// Package leaderboard maintains the materialized, rank-annotated view over
// all student ledgers.
//
// The view is rebuilt synchronously after every ledger mutation and swapped
// in atomically; reads never trigger a recompute. The snapshot persists
// under the "campusLeaderboard" key so the view survives restarts.
package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/campusengage/engine/internal/adapters/kvstore"
	"github.com/campusengage/engine/internal/domain/points"
	"github.com/campusengage/engine/pkg/logger"
	"github.com/campusengage/engine/pkg/metrics"
)

// SnapshotKey is the store key holding the persisted leaderboard view.
const SnapshotKey = "campusLeaderboard"

// DefaultTopN is returned by Top when no explicit limit is given.
const DefaultTopN = 10

// Row is one rank-annotated line of the leaderboard. Derived data only;
// rows are recomputed wholesale, never mutated in place.
type Row struct {
	Rank        int    `json:"rank"`
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	TotalPoints int    `json:"totalPoints"`
}

// Source supplies the ledgers the view is derived from.
type Source interface {
	All(ctx context.Context) ([]points.StudentLedger, error)
}

// Board owns the materialized leaderboard view.
type Board struct {
	source Source
	store  kvstore.Store
	log    logger.Logger

	rebuildMu sync.Mutex // serializes rebuilds so a partial view is never published

	viewMu sync.RWMutex
	rows   []Row
	byID   map[string]Row
}

// Option applies a configuration option to the Board.
type Option func(*Board)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(b *Board) {
		if log != nil {
			b.log = log
		}
	}
}

// New creates a Board over the given ledger source.
func New(source Source, store kvstore.Store, opts ...Option) *Board {
	b := &Board{
		source: source,
		store:  store,
		byID:   make(map[string]Row),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = logger.Get().Named("leaderboard")
	}
	return b
}

// Load restores the persisted snapshot so reads work before the first
// mutation of the process lifetime. A missing or malformed snapshot leaves
// the view empty.
func (b *Board) Load(ctx context.Context) error {
	raw, ok, err := b.store.Get(ctx, SnapshotKey)
	if err != nil {
		return fmt.Errorf("load leaderboard snapshot: %w", err)
	}
	if !ok {
		return nil
	}

	var rows []Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		b.log.Warn(ctx, "discarding malformed leaderboard snapshot", logger.Error(err))
		return nil
	}
	b.swap(rows)
	return nil
}

// Rebuild derives a fresh view from all ledgers: sorted by total points
// descending, ties broken by earliest ledger creation then student id, with
// 1-based ranks. The new view replaces the old atomically and the snapshot
// is persisted.
func (b *Board) Rebuild(ctx context.Context) ([]Row, error) {
	b.rebuildMu.Lock()
	defer b.rebuildMu.Unlock()

	start := time.Now()
	ledgers, err := b.source.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuild leaderboard: %w", err)
	}

	sort.Slice(ledgers, func(i, j int) bool {
		if ledgers[i].TotalPoints != ledgers[j].TotalPoints {
			return ledgers[i].TotalPoints > ledgers[j].TotalPoints
		}
		// First-seen wins ties; student id makes the order total when two
		// ledgers share a creation instant.
		if !ledgers[i].CreatedAt.Equal(ledgers[j].CreatedAt) {
			return ledgers[i].CreatedAt.Before(ledgers[j].CreatedAt)
		}
		return ledgers[i].StudentID < ledgers[j].StudentID
	})

	rows := make([]Row, len(ledgers))
	for i, led := range ledgers {
		rows[i] = Row{
			Rank:        i + 1,
			StudentID:   led.StudentID,
			StudentName: led.StudentName,
			TotalPoints: led.TotalPoints,
		}
	}

	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode leaderboard snapshot: %w", err)
	}
	if err := b.store.Set(ctx, SnapshotKey, raw); err != nil {
		return nil, fmt.Errorf("persist leaderboard snapshot: %w", err)
	}

	b.swap(rows)
	metrics.RecordLeaderboardRebuild(float64(time.Since(start).Milliseconds()), len(rows))
	b.log.Debug(ctx, "leaderboard rebuilt", logger.Int("rows", len(rows)))
	return rows, nil
}

// Reset drops the persisted snapshot and empties the in-memory view. Part of
// the admin wipe; without it a restart would restore rows for students whose
// ledgers no longer exist.
func (b *Board) Reset(ctx context.Context) error {
	b.rebuildMu.Lock()
	defer b.rebuildMu.Unlock()

	if err := b.store.Delete(ctx, SnapshotKey); err != nil {
		return fmt.Errorf("delete leaderboard snapshot: %w", err)
	}
	b.swap(nil)
	b.log.Info(ctx, "leaderboard reset")
	return nil
}

// swap publishes a new view atomically.
func (b *Board) swap(rows []Row) {
	byID := make(map[string]Row, len(rows))
	for _, row := range rows {
		byID[row.StudentID] = row
	}

	b.viewMu.Lock()
	b.rows = rows
	b.byID = byID
	b.viewMu.Unlock()
}

// Rank returns the 1-based rank for a student, or 0 when the student has no
// ledger.
func (b *Board) Rank(ctx context.Context, studentID string) int {
	b.viewMu.RLock()
	defer b.viewMu.RUnlock()

	if row, ok := b.byID[studentID]; ok {
		return row.Rank
	}
	return 0
}

// Row returns the full leaderboard row for a student. ok is false when the
// student is not on the board.
func (b *Board) Row(ctx context.Context, studentID string) (Row, bool) {
	b.viewMu.RLock()
	defer b.viewMu.RUnlock()

	row, ok := b.byID[studentID]
	return row, ok
}

// Top returns the first n rows. n <= 0 selects the default of 10; fewer
// students than n returns all of them.
func (b *Board) Top(ctx context.Context, n int) []Row {
	if n <= 0 {
		n = DefaultTopN
	}

	b.viewMu.RLock()
	defer b.viewMu.RUnlock()

	if n > len(b.rows) {
		n = len(b.rows)
	}
	out := make([]Row, n)
	copy(out, b.rows[:n])
	return out
}

// Size returns the number of students on the board.
func (b *Board) Size(ctx context.Context) int {
	b.viewMu.RLock()
	defer b.viewMu.RUnlock()
	return len(b.rows)
}
