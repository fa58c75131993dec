package badge_test

import (
	"context"
	"testing"
	"time"

	"github.com/campusengage/engine/internal/adapters/kvstore"
	"github.com/campusengage/engine/internal/domain/badge"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTierLadder(t *testing.T) {
	Convey("Given the fixed tier ladder", t, func() {
		all := badge.AllTiers()

		Convey("Then there are five tiers ascending by threshold", func() {
			So(all, ShouldHaveLength, 5)
			thresholds := []int{50, 150, 300, 500, 1000}
			for i, tier := range all {
				So(tier.RequiredPoints, ShouldEqual, thresholds[i])
			}
		})

		Convey("Then each id resolves through Lookup", func() {
			for _, id := range []badge.TierID{badge.Bronze, badge.Silver, badge.Gold, badge.Platinum, badge.Diamond} {
				tier, ok := badge.Lookup(id)
				So(ok, ShouldBeTrue)
				So(tier.ID, ShouldEqual, id)
			}
			_, ok := badge.Lookup("wood")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestEarnedTiers(t *testing.T) {
	Convey("Given point totals around the thresholds", t, func() {
		Convey("Then below bronze nothing is earned", func() {
			So(badge.EarnedTiers(0), ShouldBeEmpty)
			So(badge.EarnedTiers(49), ShouldBeEmpty)
			So(badge.CurrentTier(49), ShouldBeNil)
		})

		Convey("Then exactly at a threshold the tier is earned", func() {
			earned := badge.EarnedTiers(50)
			So(earned, ShouldHaveLength, 1)
			So(earned[0].ID, ShouldEqual, badge.Bronze)
		})

		Convey("Then a high total earns every lower tier", func() {
			earned := badge.EarnedTiers(320)
			So(earned, ShouldHaveLength, 3)
			So(earned[2].ID, ShouldEqual, badge.Gold)

			cur := badge.CurrentTier(320)
			So(cur, ShouldNotBeNil)
			So(cur.ID, ShouldEqual, badge.Gold)
		})

		Convey("Then beyond diamond everything is earned", func() {
			So(badge.EarnedTiers(1500), ShouldHaveLength, 5)
			So(badge.NextTier(1500), ShouldBeNil)
			So(badge.PointsToNext(1500), ShouldEqual, 0)
		})
	})
}

func TestProgressToNext(t *testing.T) {
	Convey("Given progress computation between tiers", t, func() {
		Convey("Then progress is measured from the previous threshold", func() {
			// 100 points: between bronze (50) and silver (150), halfway.
			So(badge.ProgressToNext(100), ShouldEqual, 50)
			So(badge.PointsToNext(100), ShouldEqual, 50)
		})

		Convey("Then progress before any tier counts from zero", func() {
			So(badge.ProgressToNext(25), ShouldEqual, 50)
			So(badge.PointsToNext(25), ShouldEqual, 25)
		})

		Convey("Then progress stays within [0,100]", func() {
			for _, pts := range []int{0, 49, 50, 149, 150, 999, 1000, 5000} {
				p := badge.ProgressToNext(pts)
				So(p, ShouldBeGreaterThanOrEqualTo, 0)
				So(p, ShouldBeLessThanOrEqualTo, 100)
			}
		})

		Convey("Then a maxed-out student reads 100", func() {
			So(badge.ProgressToNext(1000), ShouldEqual, 100)
		})
	})
}

func TestTracker_Status(t *testing.T) {
	Convey("Given a tracker over an in-memory store", t, func() {
		ctx := context.Background()
		store := kvstore.NewMemoryStore()
		fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		tracker := badge.NewTracker(store, badge.WithClock(func() time.Time { return fixed }))

		Convey("When a student sits between bronze and silver", func() {
			status, err := tracker.Status(ctx, "s1", 100)

			Convey("Then the status carries tier, progress and stamps", func() {
				So(err, ShouldBeNil)
				So(status.Earned, ShouldHaveLength, 1)
				So(status.Earned[0].ID, ShouldEqual, badge.Bronze)
				So(status.Earned[0].EarnedAt.Equal(fixed), ShouldBeTrue)
				So(status.Current.ID, ShouldEqual, badge.Bronze)
				So(status.Next.ID, ShouldEqual, badge.Silver)
				So(status.ProgressToNext, ShouldEqual, 50)
				So(status.PointsToNext, ShouldEqual, 50)
			})
		})

		Convey("When the status is recomputed after more points", func() {
			_, err := tracker.Status(ctx, "s1", 100)
			So(err, ShouldBeNil)

			later := fixed.Add(48 * time.Hour)
			tracker2 := badge.NewTracker(store, badge.WithClock(func() time.Time { return later }))
			status, err := tracker2.Status(ctx, "s1", 200)

			Convey("Then the bronze stamp keeps its first-crossing date", func() {
				So(err, ShouldBeNil)
				So(status.Earned, ShouldHaveLength, 2)
				So(status.Earned[0].EarnedAt.Equal(fixed), ShouldBeTrue)
				So(status.Earned[1].EarnedAt.Equal(later), ShouldBeTrue)
			})
		})
	})
}

func TestTracker_DetectNewlyEarned(t *testing.T) {
	Convey("Given a tracker over an in-memory store", t, func() {
		ctx := context.Background()
		store := kvstore.NewMemoryStore()
		tracker := badge.NewTracker(store)

		Convey("When a total crosses the bronze threshold", func() {
			tier, err := tracker.DetectNewlyEarned(ctx, "s1", 45, 55)

			Convey("Then bronze is reported once", func() {
				So(err, ShouldBeNil)
				So(tier, ShouldNotBeNil)
				So(tier.ID, ShouldEqual, badge.Bronze)
			})

			Convey("And a later award inside the same tier reports nothing", func() {
				again, err := tracker.DetectNewlyEarned(ctx, "s1", 55, 70)
				So(err, ShouldBeNil)
				So(again, ShouldBeNil)
			})
		})

		Convey("When a total moves without crossing anything", func() {
			tier, err := tracker.DetectNewlyEarned(ctx, "s1", 10, 30)

			Convey("Then nothing is reported", func() {
				So(err, ShouldBeNil)
				So(tier, ShouldBeNil)
			})
		})

		Convey("When a single award jumps several tiers", func() {
			tier, err := tracker.DetectNewlyEarned(ctx, "s1", 40, 200)

			Convey("Then the highest new tier is reported", func() {
				So(err, ShouldBeNil)
				So(tier, ShouldNotBeNil)
				So(tier.ID, ShouldEqual, badge.Silver)
			})

			Convey("And both crossed tiers got stamped", func() {
				status, err := tracker.Status(ctx, "s1", 200)
				So(err, ShouldBeNil)
				So(status.Earned, ShouldHaveLength, 2)
			})
		})

		Convey("When a total drops after a revoke", func() {
			_, err := tracker.DetectNewlyEarned(ctx, "s1", 0, 60)
			So(err, ShouldBeNil)

			tier, err := tracker.DetectNewlyEarned(ctx, "s1", 60, 40)

			Convey("Then no unlock fires on the way down", func() {
				So(err, ShouldBeNil)
				So(tier, ShouldBeNil)
			})
		})
	})
}

func TestTracker_TierQueries(t *testing.T) {
	Convey("Given several students with stamped tiers", t, func() {
		ctx := context.Background()
		store := kvstore.NewMemoryStore()
		tracker := badge.NewTracker(store)

		_, err := tracker.Status(ctx, "s1", 100) // bronze
		So(err, ShouldBeNil)
		_, err = tracker.Status(ctx, "s2", 200) // bronze, silver
		So(err, ShouldBeNil)
		_, err = tracker.Status(ctx, "s3", 10) // nothing
		So(err, ShouldBeNil)

		Convey("When querying holders of bronze", func() {
			students, err := tracker.StudentsWithTier(ctx, badge.Bronze)

			Convey("Then both stamped students are found", func() {
				So(err, ShouldBeNil)
				So(students, ShouldHaveLength, 2)
				So(students, ShouldContain, "s1")
				So(students, ShouldContain, "s2")
			})
		})

		Convey("When counting holders per tier", func() {
			counts, err := tracker.TierCounts(ctx)

			Convey("Then counts cover every tier including empty ones", func() {
				So(err, ShouldBeNil)
				So(counts[badge.Bronze], ShouldEqual, 2)
				So(counts[badge.Silver], ShouldEqual, 1)
				So(counts[badge.Gold], ShouldEqual, 0)
				So(counts[badge.Diamond], ShouldEqual, 0)
			})
		})
	})
}
