package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/campusengage/engine/internal/adapters/kvstore"
	"github.com/campusengage/engine/internal/app"
	"github.com/campusengage/engine/internal/domain/badge"
	"github.com/campusengage/engine/internal/domain/leaderboard"
	"github.com/campusengage/engine/internal/domain/match"
	. "github.com/smartystreets/goconvey/convey"
)

func startedService(ctx context.Context, opts ...app.Option) *app.Service {
	svc := app.New(opts...)
	So(svc.Start(ctx), ShouldBeNil)
	return svc
}

func TestService_AwardFlow(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startedService(ctx)
		defer svc.Stop()

		Convey("When an attendance confirmation arrives", func() {
			result, err := svc.AwardPoints(ctx, "s1", "Alice Johnson", "ev1", "Tech Hackathon", "hackathon")

			Convey("Then points land and the leaderboard updates in the same call", func() {
				So(err, ShouldBeNil)
				So(result.Awarded, ShouldBeTrue)
				So(result.Duplicate, ShouldBeFalse)
				So(result.Ledger.TotalPoints, ShouldEqual, 20)
				So(result.NewBadge, ShouldBeNil)

				row := svc.Rank(ctx, "s1")
				So(row.Rank, ShouldEqual, 1)
				So(row.TotalPoints, ShouldEqual, 20)
			})
		})

		Convey("When the same confirmation is retried", func() {
			_, err := svc.AwardPoints(ctx, "s1", "Alice Johnson", "ev1", "Tech Hackathon", "hackathon")
			So(err, ShouldBeNil)

			result, err := svc.AwardPoints(ctx, "s1", "Alice Johnson", "ev1", "Tech Hackathon", "hackathon")

			Convey("Then the retry reports a duplicate and changes nothing", func() {
				So(err, ShouldBeNil)
				So(result.Awarded, ShouldBeFalse)
				So(result.Duplicate, ShouldBeTrue)
				So(result.Ledger.TotalPoints, ShouldEqual, 20)
				So(result.NewBadge, ShouldBeNil)
			})
		})

		Convey("When an award crosses a badge threshold", func() {
			// Two competitions land at 50 points exactly.
			_, err := svc.AwardPoints(ctx, "s1", "Alice Johnson", "ev1", "Contest A", "competition")
			So(err, ShouldBeNil)
			result, err := svc.AwardPoints(ctx, "s1", "Alice Johnson", "ev2", "Contest B", "competition")

			Convey("Then the unlocked tier rides along in the result", func() {
				So(err, ShouldBeNil)
				So(result.Ledger.TotalPoints, ShouldEqual, 50)
				So(result.NewBadge, ShouldNotBeNil)
				So(result.NewBadge.ID, ShouldEqual, badge.Bronze)
			})

			Convey("And the next award inside the tier carries no badge", func() {
				next, err := svc.AwardPoints(ctx, "s1", "Alice Johnson", "ev3", "Seminar", "seminar")
				So(err, ShouldBeNil)
				So(next.NewBadge, ShouldBeNil)
			})
		})
	})
}

func TestService_RevokeFlow(t *testing.T) {
	Convey("Given a service with two ranked students", t, func() {
		ctx := context.Background()
		svc := startedService(ctx)
		defer svc.Stop()

		_, err := svc.AwardPoints(ctx, "s1", "Alice Johnson", "ev1", "Coding Contest", "competition") // 25
		So(err, ShouldBeNil)
		_, err = svc.AwardPoints(ctx, "s2", "Bob Smith", "ev2", "Tech Hackathon", "hackathon") // 20
		So(err, ShouldBeNil)

		Convey("When the leader's event is revoked", func() {
			led, found, err := svc.RevokePoints(ctx, "s1", "ev1")

			Convey("Then the points and the rank both drop", func() {
				So(err, ShouldBeNil)
				So(found, ShouldBeTrue)
				So(led.TotalPoints, ShouldEqual, 0)
				So(svc.Rank(ctx, "s2").Rank, ShouldEqual, 1)
			})
		})

		Convey("When revoking something that never happened", func() {
			_, found, err := svc.RevokePoints(ctx, "s1", "ev-ghost")

			Convey("Then the call is a safe no-op", func() {
				So(err, ShouldBeNil)
				So(found, ShouldBeFalse)
				So(svc.Rank(ctx, "s1").Rank, ShouldEqual, 1)
			})
		})
	})
}

func TestService_Queries(t *testing.T) {
	Convey("Given a started service with some history", t, func() {
		ctx := context.Background()
		svc := startedService(ctx)
		defer svc.Stop()

		_, err := svc.AwardPoints(ctx, "s1", "Alice Johnson", "ev1", "Tech Hackathon", "hackathon")
		So(err, ShouldBeNil)

		Convey("When fetching a ledger", func() {
			led, err := svc.Ledger(ctx, "s1")
			So(err, ShouldBeNil)
			So(led.TotalPoints, ShouldEqual, 20)
		})

		Convey("When fetching badge status without an explicit total", func() {
			status, err := svc.BadgeStatus(ctx, "s1", -1)

			Convey("Then the ledger total is used", func() {
				So(err, ShouldBeNil)
				So(status.Earned, ShouldBeEmpty)
				So(status.Next.ID, ShouldEqual, badge.Bronze)
				So(status.PointsToNext, ShouldEqual, 30)
			})
		})

		Convey("When fetching badge status with an explicit total", func() {
			status, err := svc.BadgeStatus(ctx, "s1", 200)
			So(err, ShouldBeNil)
			So(status.Current.ID, ShouldEqual, badge.Silver)
		})

		Convey("When asking for an unknown student's rank", func() {
			row := svc.Rank(ctx, "ghost")
			So(row.Rank, ShouldEqual, 0)
			So(row.StudentID, ShouldEqual, "ghost")
		})

		Convey("When aggregating statistics", func() {
			stats, err := svc.Statistics(ctx)
			So(err, ShouldBeNil)
			So(stats.TotalStudents, ShouldEqual, 1)
			So(stats.TotalPoints, ShouldEqual, 20)
		})

		Convey("When reading service stats", func() {
			got := svc.GetStats(ctx)
			So(got["started"], ShouldBeTrue)
			So(got["leaderboardSize"], ShouldEqual, 1)
		})
	})
}

func TestService_MatchAndAlerts(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startedService(ctx)
		defer svc.Stop()

		deadline := time.Now().Add(30 * time.Hour)
		event := match.Event{
			ID:                   "ev1",
			Category:             "AI",
			Department:           "Computer Science",
			RegistrationDeadline: &deadline,
		}
		student := match.Student{
			ID:           "s1",
			Branch:       "Computer Science",
			Interests:    []string{"AI"},
			PastEventIDs: []string{"ai-workshop"},
		}

		Convey("When scoring a strong pair inside the window", func() {
			result, closing, recommended := svc.Match(ctx, event, student)

			Convey("Then a recommendation comes out", func() {
				So(result.Percentage, ShouldBeGreaterThanOrEqualTo, match.RecommendThreshold)
				So(closing, ShouldBeTrue)
				So(recommended, ShouldBeTrue)
			})

			Convey("And the alert message is renderable", func() {
				msg := svc.AlertMessage(ctx, event, student)
				So(msg, ShouldContainSubstring, "Registration closes soon.")
			})
		})

		Convey("When dismissing the alert", func() {
			So(svc.DismissAlert(ctx, "ev1"), ShouldBeNil)

			dismissed, err := svc.IsDismissed(ctx, "ev1")

			Convey("Then it reads as dismissed", func() {
				So(err, ShouldBeNil)
				So(dismissed, ShouldBeTrue)
			})

			Convey("And clearing resets it", func() {
				So(svc.ClearAlerts(ctx), ShouldBeNil)
				dismissed, err := svc.IsDismissed(ctx, "ev1")
				So(err, ShouldBeNil)
				So(dismissed, ShouldBeFalse)
			})
		})
	})
}

func TestService_ResetAll(t *testing.T) {
	Convey("Given a service with ranked students", t, func() {
		ctx := context.Background()
		store := kvstore.NewMemoryStore()
		svc := startedService(ctx, app.WithStore(store))
		defer svc.Stop()

		_, err := svc.AwardPoints(ctx, "s1", "Alice Johnson", "ev1", "Tech Hackathon", "hackathon")
		So(err, ShouldBeNil)
		_, err = svc.AwardPoints(ctx, "s2", "Bob Smith", "ev2", "Coding Contest", "competition")
		So(err, ShouldBeNil)

		Convey("When the admin wipe runs", func() {
			So(svc.ResetAll(ctx), ShouldBeNil)

			Convey("Then every ledger is gone", func() {
				stats, err := svc.Statistics(ctx)
				So(err, ShouldBeNil)
				So(stats.TotalStudents, ShouldEqual, 0)
			})

			Convey("And the leaderboard snapshot is gone with them", func() {
				_, ok, err := store.Get(ctx, leaderboard.SnapshotKey)
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
				So(svc.Rank(ctx, "s1").Rank, ShouldEqual, 0)
				So(svc.TopN(ctx, 10), ShouldBeEmpty)
			})

			Convey("And a restart over the same store serves no ghost rows", func() {
				svc.Stop()
				fresh := startedService(ctx, app.WithStore(store))
				defer fresh.Stop()
				So(fresh.TopN(ctx, 10), ShouldBeEmpty)
				So(fresh.Rank(ctx, "s1").Rank, ShouldEqual, 0)
			})
		})
	})
}

// failingStore rejects reads for keys under a prefix and delegates the rest.
type failingStore struct {
	kvstore.Store
	failPrefix string
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if strings.HasPrefix(key, f.failPrefix) {
		return nil, false, errors.New("backend unavailable")
	}
	return f.Store.Get(ctx, key)
}

func TestService_AwardRebuildsDespiteBadgeFailure(t *testing.T) {
	Convey("Given a store that fails badge-record reads only", t, func() {
		ctx := context.Background()
		store := &failingStore{Store: kvstore.NewMemoryStore(), failPrefix: badge.KeyPrefix}
		svc := startedService(ctx, app.WithStore(store))
		defer svc.Stop()

		_, err := svc.AwardPoints(ctx, "s1", "Alice Johnson", "ev1", "Contest A", "competition")
		So(err, ShouldBeNil)

		Convey("When an award crosses a tier and badge detection errors", func() {
			result, err := svc.AwardPoints(ctx, "s1", "Alice Johnson", "ev2", "Contest B", "competition")

			Convey("Then the error surfaces without a badge", func() {
				So(err, ShouldNotBeNil)
				So(result.Awarded, ShouldBeTrue)
				So(result.NewBadge, ShouldBeNil)
			})

			Convey("And the leaderboard still reflects the persisted ledger", func() {
				row := svc.Rank(ctx, "s1")
				So(row.Rank, ShouldEqual, 1)
				So(row.TotalPoints, ShouldEqual, 50)
			})
		})
	})
}

func TestService_Restart(t *testing.T) {
	Convey("Given state persisted by a previous service instance", t, func() {
		ctx := context.Background()
		store := kvstore.NewMemoryStore()

		first := startedService(ctx, app.WithStore(store))
		_, err := first.AwardPoints(ctx, "s1", "Alice Johnson", "ev1", "Tech Hackathon", "hackathon")
		So(err, ShouldBeNil)
		first.Stop()

		Convey("When a new instance starts over the same store", func() {
			second := startedService(ctx, app.WithStore(store))
			defer second.Stop()

			Convey("Then the leaderboard snapshot is restored before any mutation", func() {
				So(second.Rank(ctx, "s1").Rank, ShouldEqual, 1)
				So(second.TopN(ctx, 10), ShouldHaveLength, 1)
			})

			Convey("And a duplicate confirmation is still refused", func() {
				result, err := second.AwardPoints(ctx, "s1", "Alice Johnson", "ev1", "Tech Hackathon", "hackathon")
				So(err, ShouldBeNil)
				So(result.Duplicate, ShouldBeTrue)
			})
		})
	})
}
