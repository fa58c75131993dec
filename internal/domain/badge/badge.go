// Package badge derives badge tiers and progress from a point total.
//
// The five tiers are static configuration; the only state is the per-student
// earned-at timestamp for each tier, stamped exactly once the first time the
// threshold is crossed and persisted under "studentBadges_<studentId>".
package badge

import (
	"math"
)

// TierID identifies one of the five fixed badge tiers.
type TierID string

const (
	Bronze   TierID = "bronze"
	Silver   TierID = "silver"
	Gold     TierID = "gold"
	Platinum TierID = "platinum"
	Diamond  TierID = "diamond"
)

// Tier is one rung of the fixed progression ladder.
type Tier struct {
	ID             TierID `json:"type"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	RequiredPoints int    `json:"requiredPoints"`
	Icon           string `json:"icon"`
	Color          string `json:"color"`
	Gradient       string `json:"gradient"`
}

// tiers is ordered ascending by threshold. Display tokens follow the
// campus UI conventions.
var tiers = []Tier{
	{
		ID:             Bronze,
		Name:           "Bronze Explorer",
		Description:    "Awarded for earning 50 points",
		RequiredPoints: 50,
		Icon:           "🥉",
		Color:          "#CD7F32",
		Gradient:       "from-amber-600 to-orange-700",
	},
	{
		ID:             Silver,
		Name:           "Silver Achiever",
		Description:    "Awarded for earning 150 points",
		RequiredPoints: 150,
		Icon:           "🥈",
		Color:          "#C0C0C0",
		Gradient:       "from-gray-300 to-gray-500",
	},
	{
		ID:             Gold,
		Name:           "Gold Champion",
		Description:    "Awarded for earning 300 points",
		RequiredPoints: 300,
		Icon:           "🥇",
		Color:          "#FFD700",
		Gradient:       "from-yellow-400 to-yellow-600",
	},
	{
		ID:             Platinum,
		Name:           "Platinum Legend",
		Description:    "Awarded for earning 500 points",
		RequiredPoints: 500,
		Icon:           "💎",
		Color:          "#E5E4E2",
		Gradient:       "from-cyan-300 to-blue-500",
	},
	{
		ID:             Diamond,
		Name:           "Diamond Elite",
		Description:    "Awarded for earning 1000 points",
		RequiredPoints: 1000,
		Icon:           "👑",
		Color:          "#B9F2FF",
		Gradient:       "from-purple-400 to-pink-600",
	},
}

// AllTiers returns the tier table ordered ascending by threshold.
func AllTiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// Lookup returns the tier for an id.
func Lookup(id TierID) (Tier, bool) {
	for _, t := range tiers {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}

// EarnedTiers returns every tier whose threshold is within totalPoints,
// ascending.
func EarnedTiers(totalPoints int) []Tier {
	var earned []Tier
	for _, t := range tiers {
		if totalPoints >= t.RequiredPoints {
			earned = append(earned, t)
		}
	}
	return earned
}

// CurrentTier returns the highest earned tier, or nil when none is earned.
func CurrentTier(totalPoints int) *Tier {
	earned := EarnedTiers(totalPoints)
	if len(earned) == 0 {
		return nil
	}
	t := earned[len(earned)-1]
	return &t
}

// NextTier returns the first tier whose threshold exceeds totalPoints, or
// nil when all tiers are earned.
func NextTier(totalPoints int) *Tier {
	for _, t := range tiers {
		if totalPoints < t.RequiredPoints {
			next := t
			return &next
		}
	}
	return nil
}

// PointsToNext returns the points still needed for the next tier, or 0 when
// every tier is earned.
func PointsToNext(totalPoints int) int {
	next := NextTier(totalPoints)
	if next == nil {
		return 0
	}
	return next.RequiredPoints - totalPoints
}

// ProgressToNext returns the progress toward the next tier as a percentage
// in [0,100]. With every tier earned the progress is 100.
func ProgressToNext(totalPoints int) float64 {
	next := NextTier(totalPoints)
	if next == nil {
		return 100
	}

	prevThreshold := 0
	if cur := CurrentTier(totalPoints); cur != nil {
		prevThreshold = cur.RequiredPoints
	}
	progress := float64(totalPoints-prevThreshold) / float64(next.RequiredPoints-prevThreshold) * 100
	return math.Min(math.Max(progress, 0), 100)
}
