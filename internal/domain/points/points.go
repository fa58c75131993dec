// Package points implements the per-student participation points ledger.
//
// The ledger is the source of truth for every derived number in the engine:
// each student owns an append-only log of point-earning entries plus a
// running total, persisted as one JSON record per student under
// "studentPoints_<studentId>". TotalPoints always equals the sum of entry
// points; the two are only ever mutated together under a per-student lock.
package points

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/campusengage/engine/internal/adapters/kvstore"
	"github.com/campusengage/engine/pkg/logger"
	"github.com/campusengage/engine/pkg/metrics"
)

// KeyPrefix is the store key prefix for student ledgers. The full key is
// KeyPrefix + studentID, matching the convention of the surrounding system.
const KeyPrefix = "studentPoints_"

const defaultLockStripes = 64

// Entry records a single point-earning participation. Immutable once
// appended; identity is EventID within a student's ledger.
type Entry struct {
	EventID   string    `json:"eventId"`
	EventName string    `json:"eventName"`
	EventType string    `json:"eventType"`
	Points    int       `json:"points"`
	AwardedAt time.Time `json:"date"`
}

// StudentLedger is one student's append-only participation log plus its
// running total. CreatedAt records when the ledger first came into
// existence and doubles as the leaderboard tie-break key.
type StudentLedger struct {
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName"`
	TotalPoints int       `json:"totalPoints"`
	CreatedAt   time.Time `json:"createdAt"`
	Entries     []Entry   `json:"eventHistory"`
}

// Stats aggregates over every persisted ledger.
type Stats struct {
	TotalStudents int `json:"totalStudents"`
	TotalPoints   int `json:"totalPoints"`
	AveragePoints int `json:"averagePoints"`
	HighestPoints int `json:"highestPoints"`
	LowestPoints  int `json:"lowestPoints"`
}

// eventPoints maps a normalized event type to its point value.
var eventPoints = map[string]int{
	"workshop":    10,
	"hackathon":   20,
	"seminar":     5,
	"conference":  15,
	"competition": 25,
	"cultural":    8,
	"sports":      10,
	"tech talk":   12,
	"webinar":     7,
	"orientation": 5,
	"networking":  10,
}

// defaultEventPoints is awarded for unclassified event types.
const defaultEventPoints = 5

// PointsForEventType returns the point value for an event type.
// Lookup is case-insensitive and ignores surrounding whitespace; unknown
// types fall back to the default value.
func PointsForEventType(eventType string) int {
	if v, ok := eventPoints[strings.ToLower(strings.TrimSpace(eventType))]; ok {
		return v
	}
	return defaultEventPoints
}

// Ledger owns all reads and mutations of student point records.
type Ledger struct {
	store   kvstore.Store
	log     logger.Logger
	now     func() time.Time
	stripes []sync.Mutex
}

// Option applies a configuration option to the Ledger.
type Option func(*Ledger)

// WithLockStripes sets the number of per-student lock stripes.
func WithLockStripes(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.stripes = make([]sync.Mutex, n)
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLedger creates a Ledger backed by the given store.
func NewLedger(store kvstore.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:   store,
		now:     time.Now,
		stripes: make([]sync.Mutex, defaultLockStripes),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = logger.Get().Named("points")
	}
	return l
}

// lock serializes mutations for a single student. Mutations for different
// students map to different stripes and proceed concurrently.
func (l *Ledger) lock(studentID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(studentID))
	return &l.stripes[h.Sum32()%uint32(len(l.stripes))]
}

// Get returns the stored ledger for a student, or an empty one when none
// exists. Missing and malformed records are both valid empty states.
func (l *Ledger) Get(ctx context.Context, studentID string) (StudentLedger, error) {
	return l.load(ctx, studentID)
}

func (l *Ledger) load(ctx context.Context, studentID string) (StudentLedger, error) {
	empty := StudentLedger{StudentID: studentID}

	raw, ok, err := l.store.Get(ctx, KeyPrefix+studentID)
	if err != nil {
		return empty, fmt.Errorf("load ledger for %s: %w", studentID, err)
	}
	if !ok {
		return empty, nil
	}

	var led StudentLedger
	if err := json.Unmarshal(raw, &led); err != nil {
		// One corrupt key must not brick the engine; treat it as absent.
		l.log.Warn(ctx, "discarding malformed ledger record",
			logger.String("studentId", studentID),
			logger.Error(err),
		)
		return empty, nil
	}
	led.StudentID = studentID
	return led, nil
}

func (l *Ledger) save(ctx context.Context, led StudentLedger) error {
	raw, err := json.Marshal(led)
	if err != nil {
		return fmt.Errorf("encode ledger for %s: %w", led.StudentID, err)
	}
	if err := l.store.Set(ctx, KeyPrefix+led.StudentID, raw); err != nil {
		return fmt.Errorf("persist ledger for %s: %w", led.StudentID, err)
	}
	return nil
}

// Award credits a student for a confirmed participation. The point value
// comes from the fixed type table. When the student already holds an entry
// for eventID the call is a no-op and awarded is false, which makes retried
// attendance confirmations safe.
func (l *Ledger) Award(ctx context.Context, studentID, studentName, eventID, eventName, eventType string) (led StudentLedger, awarded bool, err error) {
	mu := l.lock(studentID)
	mu.Lock()
	defer mu.Unlock()

	led, err = l.load(ctx, studentID)
	if err != nil {
		return led, false, err
	}

	for _, e := range led.Entries {
		if e.EventID == eventID {
			metrics.RecordDuplicateAward()
			l.log.Warn(ctx, "student already credited for event",
				logger.String("studentId", studentID),
				logger.String("eventId", eventID),
			)
			return led, false, nil
		}
	}

	now := l.now().UTC()
	if led.CreatedAt.IsZero() {
		led.CreatedAt = now
	}
	pts := PointsForEventType(eventType)
	led.StudentName = studentName
	led.Entries = append(led.Entries, Entry{
		EventID:   eventID,
		EventName: eventName,
		EventType: eventType,
		Points:    pts,
		AwardedAt: now,
	})
	led.TotalPoints += pts

	if err := l.save(ctx, led); err != nil {
		return led, false, err
	}
	metrics.RecordPointsAwarded()
	l.log.Info(ctx, "points awarded",
		logger.String("studentId", studentID),
		logger.String("eventId", eventID),
		logger.Int("points", pts),
		logger.Int("totalPoints", led.TotalPoints),
	)
	return led, true, nil
}

// Revoke removes a previously credited entry, e.g. when attendance was
// recorded by mistake. Removing an entry that does not exist reports
// removed=false and changes nothing.
func (l *Ledger) Revoke(ctx context.Context, studentID, eventID string) (led StudentLedger, removed bool, err error) {
	mu := l.lock(studentID)
	mu.Lock()
	defer mu.Unlock()

	led, err = l.load(ctx, studentID)
	if err != nil {
		return led, false, err
	}

	idx := -1
	for i, e := range led.Entries {
		if e.EventID == eventID {
			idx = i
			break
		}
	}
	if idx == -1 {
		metrics.RecordRevokeMiss()
		l.log.Warn(ctx, "no credited entry to revoke",
			logger.String("studentId", studentID),
			logger.String("eventId", eventID),
		)
		return led, false, nil
	}

	led.TotalPoints -= led.Entries[idx].Points
	led.Entries = append(led.Entries[:idx], led.Entries[idx+1:]...)

	if err := l.save(ctx, led); err != nil {
		return led, false, err
	}
	metrics.RecordPointsRevoked()
	l.log.Info(ctx, "points revoked",
		logger.String("studentId", studentID),
		logger.String("eventId", eventID),
		logger.Int("totalPoints", led.TotalPoints),
	)
	return led, true, nil
}

// All enumerates every persisted ledger. Malformed records are skipped.
func (l *Ledger) All(ctx context.Context) ([]StudentLedger, error) {
	keys, err := l.store.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("enumerate ledgers: %w", err)
	}

	ledgers := make([]StudentLedger, 0, len(keys))
	for _, key := range keys {
		led, err := l.load(ctx, strings.TrimPrefix(key, KeyPrefix))
		if err != nil {
			return nil, err
		}
		if len(led.Entries) == 0 && led.TotalPoints == 0 && led.CreatedAt.IsZero() {
			// Malformed record decoded to an empty ledger; skip it.
			continue
		}
		ledgers = append(ledgers, led)
	}
	return ledgers, nil
}

// Statistics aggregates point totals across all students. All fields are
// zero when no ledgers exist.
func (l *Ledger) Statistics(ctx context.Context) (Stats, error) {
	ledgers, err := l.All(ctx)
	if err != nil {
		return Stats{}, err
	}
	if len(ledgers) == 0 {
		return Stats{}, nil
	}

	sort.Slice(ledgers, func(i, j int) bool {
		return ledgers[i].TotalPoints > ledgers[j].TotalPoints
	})

	total := 0
	for _, led := range ledgers {
		total += led.TotalPoints
	}
	return Stats{
		TotalStudents: len(ledgers),
		TotalPoints:   total,
		AveragePoints: int(float64(total)/float64(len(ledgers)) + 0.5),
		HighestPoints: ledgers[0].TotalPoints,
		LowestPoints:  ledgers[len(ledgers)-1].TotalPoints,
	}, nil
}

// ResetAll wipes every student ledger. Admin operation.
func (l *Ledger) ResetAll(ctx context.Context) error {
	keys, err := l.store.Keys(ctx, KeyPrefix)
	if err != nil {
		return fmt.Errorf("enumerate ledgers: %w", err)
	}
	for _, key := range keys {
		if err := l.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	l.log.Info(ctx, "all ledgers reset", logger.Int("removed", len(keys)))
	return nil
}

// Export returns every ledger as pretty-printed JSON for admin tooling.
func (l *Ledger) Export(ctx context.Context) ([]byte, error) {
	ledgers, err := l.All(ctx)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(ledgers, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return out, nil
}
