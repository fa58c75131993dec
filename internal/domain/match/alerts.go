package match

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/campusengage/engine/internal/adapters/kvstore"
	"github.com/campusengage/engine/pkg/logger"
	"github.com/campusengage/engine/pkg/metrics"
)

// Store keys for dismissal tracking.
const (
	DismissedKey = "dismissedAlerts"
	LastClearKey = "lastAlertClear"
)

// DefaultExpiry is how long the dismissed set survives before the global
// expiry policy wipes it.
const DefaultExpiry = 7 * 24 * time.Hour

// Alerts tracks which opportunity alerts the user has dismissed. The expiry
// policy is deliberately blunt: once DefaultExpiry has elapsed since the
// last clear, the whole set is dropped, not individual entries.
type Alerts struct {
	store  kvstore.Store
	log    logger.Logger
	now    func() time.Time
	expiry time.Duration

	mu sync.Mutex
}

// AlertsOption applies a configuration option to Alerts.
type AlertsOption func(*Alerts)

// WithAlertsClock overrides the time source. Used by tests.
func WithAlertsClock(now func() time.Time) AlertsOption {
	return func(a *Alerts) {
		if now != nil {
			a.now = now
		}
	}
}

// WithExpiry overrides the global expiry window.
func WithExpiry(d time.Duration) AlertsOption {
	return func(a *Alerts) {
		if d > 0 {
			a.expiry = d
		}
	}
}

// WithAlertsLogger sets a custom logger.
func WithAlertsLogger(log logger.Logger) AlertsOption {
	return func(a *Alerts) {
		if log != nil {
			a.log = log
		}
	}
}

// NewAlerts creates the dismissal tracker backed by the given store.
func NewAlerts(store kvstore.Store, opts ...AlertsOption) *Alerts {
	a := &Alerts{
		store:  store,
		now:    time.Now,
		expiry: DefaultExpiry,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Get().Named("alerts")
	}
	return a
}

// load reads the dismissed set; a missing or malformed record is an empty set.
func (a *Alerts) load(ctx context.Context) (map[string]struct{}, error) {
	raw, ok, err := a.store.Get(ctx, DismissedKey)
	if err != nil {
		return nil, fmt.Errorf("load dismissed alerts: %w", err)
	}
	set := make(map[string]struct{})
	if !ok {
		return set, nil
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		a.log.Warn(ctx, "discarding malformed dismissed-alert record", logger.Error(err))
		return set, nil
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (a *Alerts) save(ctx context.Context, set map[string]struct{}) error {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode dismissed alerts: %w", err)
	}
	if err := a.store.Set(ctx, DismissedKey, raw); err != nil {
		return fmt.Errorf("persist dismissed alerts: %w", err)
	}
	return nil
}

// IsDismissed reports whether the alert for an event has been dismissed.
func (a *Alerts) IsDismissed(ctx context.Context, eventID string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	set, err := a.load(ctx)
	if err != nil {
		return false, err
	}
	_, ok := set[eventID]
	return ok, nil
}

// Dismiss records an event alert as acknowledged. Dismissing an already
// dismissed alert is a no-op.
func (a *Alerts) Dismiss(ctx context.Context, eventID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	set, err := a.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := set[eventID]; ok {
		return nil
	}
	set[eventID] = struct{}{}
	if err := a.save(ctx, set); err != nil {
		return err
	}
	metrics.RecordAlertDismissal()
	return nil
}

// ClearAll drops the entire dismissed set.
func (a *Alerts) ClearAll(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clearAll(ctx)
}

func (a *Alerts) clearAll(ctx context.Context) error {
	if err := a.store.Delete(ctx, DismissedKey); err != nil {
		return fmt.Errorf("clear dismissed alerts: %w", err)
	}
	return nil
}

// ClearExpired applies the global expiry policy: when the configured window
// has elapsed since the last recorded clear, the whole set is dropped and
// the clear timestamp is reset. Safe to call on every read path.
func (a *Alerts) ClearExpired(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()

	raw, ok, err := a.store.Get(ctx, LastClearKey)
	if err != nil {
		return fmt.Errorf("load last alert clear: %w", err)
	}
	if ok {
		ms, err := strconv.ParseInt(string(raw), 10, 64)
		if err == nil && now.Sub(time.UnixMilli(ms)) <= a.expiry {
			return nil
		}
	}

	if err := a.clearAll(ctx); err != nil {
		return err
	}
	stamp := strconv.FormatInt(now.UnixMilli(), 10)
	if err := a.store.Set(ctx, LastClearKey, []byte(stamp)); err != nil {
		return fmt.Errorf("persist last alert clear: %w", err)
	}
	metrics.RecordAlertExpiry()
	a.log.Info(ctx, "dismissed alerts expired and cleared")
	return nil
}
