package match_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/campusengage/engine/internal/adapters/kvstore"
	"github.com/campusengage/engine/internal/domain/match"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAlerts_Dismiss(t *testing.T) {
	Convey("Given an alert tracker over an in-memory store", t, func() {
		ctx := context.Background()
		store := kvstore.NewMemoryStore()
		alerts := match.NewAlerts(store)

		Convey("When an alert has not been dismissed", func() {
			dismissed, err := alerts.IsDismissed(ctx, "ev1")

			Convey("Then it reads as not dismissed", func() {
				So(err, ShouldBeNil)
				So(dismissed, ShouldBeFalse)
			})
		})

		Convey("When an alert is dismissed", func() {
			So(alerts.Dismiss(ctx, "ev1"), ShouldBeNil)

			Convey("Then it reads as dismissed", func() {
				dismissed, err := alerts.IsDismissed(ctx, "ev1")
				So(err, ShouldBeNil)
				So(dismissed, ShouldBeTrue)
			})

			Convey("And other alerts are unaffected", func() {
				dismissed, err := alerts.IsDismissed(ctx, "ev2")
				So(err, ShouldBeNil)
				So(dismissed, ShouldBeFalse)
			})

			Convey("And dismissing it again is a no-op", func() {
				So(alerts.Dismiss(ctx, "ev1"), ShouldBeNil)
				dismissed, err := alerts.IsDismissed(ctx, "ev1")
				So(err, ShouldBeNil)
				So(dismissed, ShouldBeTrue)
			})
		})

		Convey("When the whole set is cleared", func() {
			So(alerts.Dismiss(ctx, "ev1"), ShouldBeNil)
			So(alerts.Dismiss(ctx, "ev2"), ShouldBeNil)
			So(alerts.ClearAll(ctx), ShouldBeNil)

			Convey("Then nothing reads as dismissed", func() {
				for _, id := range []string{"ev1", "ev2"} {
					dismissed, err := alerts.IsDismissed(ctx, id)
					So(err, ShouldBeNil)
					So(dismissed, ShouldBeFalse)
				}
			})
		})

		Convey("When the stored record is corrupt", func() {
			So(store.Set(ctx, match.DismissedKey, []byte("{{")), ShouldBeNil)

			Convey("Then it reads as an empty set", func() {
				dismissed, err := alerts.IsDismissed(ctx, "ev1")
				So(err, ShouldBeNil)
				So(dismissed, ShouldBeFalse)
			})
		})
	})
}

func TestAlerts_ClearExpired(t *testing.T) {
	Convey("Given an alert tracker with a controllable clock", t, func() {
		ctx := context.Background()
		store := kvstore.NewMemoryStore()
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		alerts := match.NewAlerts(store, match.WithAlertsClock(func() time.Time { return now }))

		Convey("When no clear timestamp exists yet", func() {
			So(alerts.Dismiss(ctx, "ev1"), ShouldBeNil)
			So(alerts.ClearExpired(ctx), ShouldBeNil)

			Convey("Then the set is cleared and a stamp is written", func() {
				dismissed, err := alerts.IsDismissed(ctx, "ev1")
				So(err, ShouldBeNil)
				So(dismissed, ShouldBeFalse)

				raw, ok, err := store.Get(ctx, match.LastClearKey)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				ms, err := strconv.ParseInt(string(raw), 10, 64)
				So(err, ShouldBeNil)
				So(time.UnixMilli(ms).Equal(now), ShouldBeTrue)
			})
		})

		Convey("When the window has not elapsed since the last clear", func() {
			So(alerts.ClearExpired(ctx), ShouldBeNil) // writes the stamp
			So(alerts.Dismiss(ctx, "ev1"), ShouldBeNil)

			now = now.Add(3 * 24 * time.Hour)
			So(alerts.ClearExpired(ctx), ShouldBeNil)

			Convey("Then dismissals survive", func() {
				dismissed, err := alerts.IsDismissed(ctx, "ev1")
				So(err, ShouldBeNil)
				So(dismissed, ShouldBeTrue)
			})
		})

		Convey("When the window has elapsed", func() {
			So(alerts.ClearExpired(ctx), ShouldBeNil)
			So(alerts.Dismiss(ctx, "ev1"), ShouldBeNil)
			So(alerts.Dismiss(ctx, "ev2"), ShouldBeNil)

			now = now.Add(7*24*time.Hour + time.Minute)
			So(alerts.ClearExpired(ctx), ShouldBeNil)

			Convey("Then the entire set is dropped at once", func() {
				for _, id := range []string{"ev1", "ev2"} {
					dismissed, err := alerts.IsDismissed(ctx, id)
					So(err, ShouldBeNil)
					So(dismissed, ShouldBeFalse)
				}
			})

			Convey("And the clear timestamp is reset", func() {
				raw, ok, err := store.Get(ctx, match.LastClearKey)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				ms, err := strconv.ParseInt(string(raw), 10, 64)
				So(err, ShouldBeNil)
				So(time.UnixMilli(ms).Equal(now), ShouldBeTrue)
			})
		})

		Convey("When a shorter expiry is configured", func() {
			short := match.NewAlerts(store,
				match.WithAlertsClock(func() time.Time { return now }),
				match.WithExpiry(time.Hour),
			)
			So(short.ClearExpired(ctx), ShouldBeNil)
			So(short.Dismiss(ctx, "ev1"), ShouldBeNil)

			now = now.Add(2 * time.Hour)
			So(short.ClearExpired(ctx), ShouldBeNil)

			Convey("Then it expires on the shorter window", func() {
				dismissed, err := short.IsDismissed(ctx, "ev1")
				So(err, ShouldBeNil)
				So(dismissed, ShouldBeFalse)
			})
		})
	})
}
