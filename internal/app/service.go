// Package app provides the core engine service that implements the
// dependencies required by the HTTP API.
//
// The service owns the wiring between the storage port and the four engine
// components, and orchestrates the data flow the components themselves stay
// ignorant of: a confirmed attendance awards points, a successful award
// checks for a badge crossing and rebuilds the leaderboard, a revoke
// rebuilds the leaderboard.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/campusengage/engine/internal/adapters/kvstore"
	"github.com/campusengage/engine/internal/domain/badge"
	"github.com/campusengage/engine/internal/domain/leaderboard"
	"github.com/campusengage/engine/internal/domain/match"
	"github.com/campusengage/engine/internal/domain/points"
	"github.com/campusengage/engine/pkg/logger"
)

// AwardResult is what an attendance confirmation produces: the updated
// ledger, whether the award actually happened (false on duplicates) and the
// badge tier the award unlocked, if any.
type AwardResult struct {
	Ledger    points.StudentLedger `json:"ledger"`
	Awarded   bool                 `json:"awarded"`
	Duplicate bool                 `json:"duplicate"`
	NewBadge  *badge.Tier          `json:"newBadge,omitempty"`
}

// Service wires the engine components over a shared storage port.
type Service struct {
	mu sync.Mutex

	store       kvstore.Store
	ledger      *points.Ledger
	badges      *badge.Tracker
	board       *leaderboard.Board
	matcher     *match.Matcher
	alerts      *match.Alerts
	lockStripes int
	alertExpiry time.Duration

	started bool
	log     logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the key-value backend. Defaults to an in-memory store.
func WithStore(store kvstore.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLockStripes sets the per-student lock stripe count for the ledger.
func WithLockStripes(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.lockStripes = n
		}
	}
}

// WithAlertExpiry sets the dismissed-alert expiry window.
func WithAlertExpiry(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.alertExpiry = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		lockStripes: 64,
		alertExpiry: match.DefaultExpiry,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the engine components and restores the persisted
// leaderboard view.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Get().Named("engine")
	}
	if s.store == nil {
		s.store = kvstore.NewMemoryStore()
	}

	s.ledger = points.NewLedger(s.store,
		points.WithLockStripes(s.lockStripes),
		points.WithLogger(s.log.Named("points")),
	)
	s.badges = badge.NewTracker(s.store,
		badge.WithLogger(s.log.Named("badge")),
	)
	s.board = leaderboard.New(s.ledger, s.store,
		leaderboard.WithLogger(s.log.Named("leaderboard")),
	)
	s.matcher = match.NewMatcher()
	s.alerts = match.NewAlerts(s.store,
		match.WithExpiry(s.alertExpiry),
		match.WithAlertsLogger(s.log.Named("alerts")),
	)

	if err := s.board.Load(ctx); err != nil {
		return err
	}
	if err := s.alerts.ClearExpired(ctx); err != nil {
		return err
	}

	s.started = true
	s.log.Info(ctx, "engagement engine started",
		logger.Int("lockStripes", s.lockStripes),
		logger.Int("leaderboardSize", s.board.Size(ctx)),
	)
	return nil
}

// Stop shuts the service down. The engine holds no background goroutines;
// only a closeable store needs releasing.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	s.started = false
	s.log.Info(context.Background(), "engagement engine stopped")
}

// AwardPoints handles an attendance confirmation signal. Duplicate
// confirmations are safe: they return the unchanged ledger with
// Duplicate=true. A successful award synchronously rebuilds the leaderboard
// and reports any badge tier the new total unlocked.
func (s *Service) AwardPoints(ctx context.Context, studentID, studentName, eventID, eventName, eventType string) (AwardResult, error) {
	led, awarded, err := s.ledger.Award(ctx, studentID, studentName, eventID, eventName, eventType)
	if err != nil {
		return AwardResult{}, err
	}
	if !awarded {
		return AwardResult{Ledger: led, Duplicate: true}, nil
	}

	result := AwardResult{Ledger: led, Awarded: true}

	oldTotal := led.TotalPoints
	for _, e := range led.Entries {
		if e.EventID == eventID {
			oldTotal -= e.Points
			break
		}
	}
	newTier, badgeErr := s.badges.DetectNewlyEarned(ctx, studentID, oldTotal, led.TotalPoints)
	if badgeErr == nil {
		result.NewBadge = newTier
	}

	// The ledger mutation is already persisted, so the view must be rebuilt
	// even when badge detection failed; otherwise it lags until the next
	// mutation.
	_, rebuildErr := s.board.Rebuild(ctx)
	return result, errors.Join(badgeErr, rebuildErr)
}

// RevokePoints removes a credited event from a student's ledger, e.g. after
// an attendance correction. found is false when there was nothing to do.
func (s *Service) RevokePoints(ctx context.Context, studentID, eventID string) (points.StudentLedger, bool, error) {
	led, removed, err := s.ledger.Revoke(ctx, studentID, eventID)
	if err != nil {
		return led, false, err
	}
	if !removed {
		return led, false, nil
	}
	if _, err := s.board.Rebuild(ctx); err != nil {
		return led, true, err
	}
	return led, true, nil
}

// Ledger returns a student's ledger, empty when none exists.
func (s *Service) Ledger(ctx context.Context, studentID string) (points.StudentLedger, error) {
	return s.ledger.Get(ctx, studentID)
}

// Statistics aggregates point totals across all students.
func (s *Service) Statistics(ctx context.Context) (points.Stats, error) {
	return s.ledger.Statistics(ctx)
}

// BadgeStatus returns the badge picture for a student. When totalPoints is
// negative the student's current ledger total is used.
func (s *Service) BadgeStatus(ctx context.Context, studentID string, totalPoints int) (badge.Status, error) {
	if totalPoints < 0 {
		led, err := s.ledger.Get(ctx, studentID)
		if err != nil {
			return badge.Status{}, err
		}
		totalPoints = led.TotalPoints
	}
	return s.badges.Status(ctx, studentID, totalPoints)
}

// TopN returns the first n leaderboard rows.
func (s *Service) TopN(ctx context.Context, n int) []leaderboard.Row {
	return s.board.Top(ctx, n)
}

// Rank returns the leaderboard row for a student. Unknown students get a
// zero rank with their id echoed back.
func (s *Service) Rank(ctx context.Context, studentID string) leaderboard.Row {
	if row, ok := s.board.Row(ctx, studentID); ok {
		return row
	}
	return leaderboard.Row{StudentID: studentID}
}

// Match scores an event against a student profile.
func (s *Service) Match(ctx context.Context, event match.Event, student match.Student) (match.Result, bool, bool) {
	result := s.matcher.Calculate(event, student)
	closing := s.matcher.ClosingSoon(event)
	return result, closing, result.Percentage >= match.RecommendThreshold && closing
}

// AlertMessage renders the alert sentence for an event/student pair.
func (s *Service) AlertMessage(ctx context.Context, event match.Event, student match.Student) string {
	return s.matcher.AlertMessage(event, student)
}

// IsDismissed reports whether an alert was dismissed, applying the expiry
// policy first so stale dismissals do not suppress fresh alerts.
func (s *Service) IsDismissed(ctx context.Context, eventID string) (bool, error) {
	if err := s.alerts.ClearExpired(ctx); err != nil {
		return false, err
	}
	return s.alerts.IsDismissed(ctx, eventID)
}

// DismissAlert records an alert as acknowledged.
func (s *Service) DismissAlert(ctx context.Context, eventID string) error {
	return s.alerts.Dismiss(ctx, eventID)
}

// ClearAlerts drops all dismissals.
func (s *Service) ClearAlerts(ctx context.Context) error {
	return s.alerts.ClearAll(ctx)
}

// ResetAll is the admin wipe: every student ledger is deleted and the
// leaderboard snapshot is dropped with it, so a restart cannot resurrect rows
// for students that no longer exist.
func (s *Service) ResetAll(ctx context.Context) error {
	if err := s.ledger.ResetAll(ctx); err != nil {
		return err
	}
	return s.board.Reset(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	stats := map[string]any{
		"started":     started,
		"lockStripes": s.lockStripes,
	}
	if started {
		stats["leaderboardSize"] = s.board.Size(ctx)
	}
	return stats
}
