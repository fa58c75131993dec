package badge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/campusengage/engine/internal/adapters/kvstore"
	"github.com/campusengage/engine/pkg/logger"
	"github.com/campusengage/engine/pkg/metrics"
)

// KeyPrefix is the store key prefix for student badge records.
const KeyPrefix = "studentBadges_"

// EarnedTier is a tier plus the timestamp of its first crossing.
type EarnedTier struct {
	Tier
	EarnedAt time.Time `json:"earnedDate"`
}

// Status is the full badge picture for one student.
type Status struct {
	StudentID      string       `json:"studentId"`
	Earned         []EarnedTier `json:"badges"`
	Current        *Tier        `json:"currentBadge"`
	Next           *Tier        `json:"nextBadge"`
	ProgressToNext float64      `json:"progressToNext"`
	PointsToNext   int          `json:"pointsToNext"`
}

// record is the persisted shape: only the earned-at stamps are state.
type record struct {
	StudentID string               `json:"studentId"`
	EarnedAt  map[TierID]time.Time `json:"earnedAt"`
}

// Tracker computes badge status and owns the earned-at stamps.
type Tracker struct {
	store kvstore.Store
	log   logger.Logger
	now   func() time.Time
}

// TrackerOption applies a configuration option to the Tracker.
type TrackerOption func(*Tracker)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) TrackerOption {
	return func(t *Tracker) {
		if log != nil {
			t.log = log
		}
	}
}

// NewTracker creates a Tracker backed by the given store.
func NewTracker(store kvstore.Store, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		t.log = logger.Get().Named("badge")
	}
	return t
}

func (t *Tracker) load(ctx context.Context, studentID string) (record, error) {
	rec := record{StudentID: studentID, EarnedAt: make(map[TierID]time.Time)}

	raw, ok, err := t.store.Get(ctx, KeyPrefix+studentID)
	if err != nil {
		return rec, fmt.Errorf("load badge record for %s: %w", studentID, err)
	}
	if !ok {
		return rec, nil
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.log.Warn(ctx, "discarding malformed badge record",
			logger.String("studentId", studentID),
			logger.Error(err),
		)
		return record{StudentID: studentID, EarnedAt: make(map[TierID]time.Time)}, nil
	}
	if rec.EarnedAt == nil {
		rec.EarnedAt = make(map[TierID]time.Time)
	}
	rec.StudentID = studentID
	return rec, nil
}

func (t *Tracker) save(ctx context.Context, rec record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode badge record for %s: %w", rec.StudentID, err)
	}
	if err := t.store.Set(ctx, KeyPrefix+rec.StudentID, raw); err != nil {
		return fmt.Errorf("persist badge record for %s: %w", rec.StudentID, err)
	}
	return nil
}

// mergeEarnedDates applies the first-write-wins merge rule: each earned tier
// without a stored stamp is stamped now; existing stamps are never
// overwritten. Returns whether the record changed. Stamping already-set
// values is a no-op, so the rule is idempotent under retry.
func (t *Tracker) mergeEarnedDates(rec *record, earned []Tier) bool {
	changed := false
	for _, tier := range earned {
		if _, ok := rec.EarnedAt[tier.ID]; !ok {
			rec.EarnedAt[tier.ID] = t.now().UTC()
			changed = true
		}
	}
	return changed
}

// Status computes the badge status for a student's current point total,
// merging stored earned-at stamps and persisting newly stamped tiers.
func (t *Tracker) Status(ctx context.Context, studentID string, totalPoints int) (Status, error) {
	rec, err := t.load(ctx, studentID)
	if err != nil {
		return Status{}, err
	}

	earned := EarnedTiers(totalPoints)
	if t.mergeEarnedDates(&rec, earned) {
		if err := t.save(ctx, rec); err != nil {
			return Status{}, err
		}
	}

	status := Status{
		StudentID:      studentID,
		Earned:         make([]EarnedTier, 0, len(earned)),
		Current:        CurrentTier(totalPoints),
		Next:           NextTier(totalPoints),
		ProgressToNext: ProgressToNext(totalPoints),
		PointsToNext:   PointsToNext(totalPoints),
	}
	for _, tier := range earned {
		status.Earned = append(status.Earned, EarnedTier{Tier: tier, EarnedAt: rec.EarnedAt[tier.ID]})
	}
	return status, nil
}

// DetectNewlyEarned compares the highest tiers of the old and new totals and
// returns the new tier only when it is strictly higher than the old one.
// The earned-at stamp is written through the same merge rule, so the hook
// fires exactly once per crossing regardless of retries.
func (t *Tracker) DetectNewlyEarned(ctx context.Context, studentID string, oldTotal, newTotal int) (*Tier, error) {
	oldTier := CurrentTier(oldTotal)
	newTier := CurrentTier(newTotal)
	if newTier == nil {
		return nil, nil
	}
	if oldTier != nil && newTier.RequiredPoints <= oldTier.RequiredPoints {
		return nil, nil
	}

	rec, err := t.load(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if t.mergeEarnedDates(&rec, EarnedTiers(newTotal)) {
		if err := t.save(ctx, rec); err != nil {
			return nil, err
		}
	}

	metrics.RecordBadgeUnlock(string(newTier.ID))
	t.log.Info(ctx, "badge unlocked",
		logger.String("studentId", studentID),
		logger.String("tier", string(newTier.ID)),
		logger.Int("totalPoints", newTotal),
	)
	return newTier, nil
}

// StudentsWithTier returns the ids of every student holding the given tier.
func (t *Tracker) StudentsWithTier(ctx context.Context, id TierID) ([]string, error) {
	keys, err := t.store.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("enumerate badge records: %w", err)
	}

	var students []string
	for _, key := range keys {
		rec, err := t.load(ctx, strings.TrimPrefix(key, KeyPrefix))
		if err != nil {
			return nil, err
		}
		if _, ok := rec.EarnedAt[id]; ok {
			students = append(students, rec.StudentID)
		}
	}
	return students, nil
}

// TierCounts returns how many students hold each tier.
func (t *Tracker) TierCounts(ctx context.Context) (map[TierID]int, error) {
	counts := make(map[TierID]int, len(tiers))
	for _, tier := range tiers {
		counts[tier.ID] = 0
	}

	keys, err := t.store.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("enumerate badge records: %w", err)
	}
	for _, key := range keys {
		rec, err := t.load(ctx, strings.TrimPrefix(key, KeyPrefix))
		if err != nil {
			return nil, err
		}
		for id := range rec.EarnedAt {
			counts[id]++
		}
	}
	return counts, nil
}
