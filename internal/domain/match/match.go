// Package match scores the relevance of a campus event to a student profile
// and decides when a "missed opportunity" alert is worth showing.
//
// The score is a weighted blend of three 0-100 sub-scores: declared
// interests (40%), department alignment (30%) and past participation (30%).
package match

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/campusengage/engine/pkg/metrics"
)

// Weighting of the three sub-scores.
const (
	interestWeight      = 0.4
	departmentWeight    = 0.3
	participationWeight = 0.3
)

// RecommendThreshold is the minimum match percentage for a recommendation.
const RecommendThreshold = 70

// Closing-soon window bounds, inclusive.
const (
	closingSoonMin = 24 * time.Hour
	closingSoonMax = 48 * time.Hour
)

// Event is the read-only descriptor supplied by the event catalog.
type Event struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Category             string     `json:"category"`
	Department           string     `json:"department"`
	Tags                 []string   `json:"tags"`
	RegistrationDeadline *time.Time `json:"registrationDeadline"`
	Type                 string     `json:"type"`
}

// Student is the read-only profile supplied by the profile store.
type Student struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Branch       string   `json:"branch"`
	Department   string   `json:"department"`
	Program      string   `json:"program"`
	Interests    []string `json:"interests"`
	PastEventIDs []string `json:"pastEvents"`
}

// Result is the pure outcome of a match computation.
type Result struct {
	Percentage             int    `json:"percentage"`
	InterestScore          int    `json:"interestScore"`
	DepartmentScore        int    `json:"departmentScore"`
	PastParticipationScore int    `json:"pastParticipationScore"`
	PrimaryInterest        string `json:"primaryInterest"`
}

// Matcher computes match scores. It carries a clock so deadline checks are
// testable; all scoring is otherwise pure.
type Matcher struct {
	now func() time.Time
}

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(m *Matcher) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMatcher creates a Matcher.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Calculate scores the relevance of an event to a student. Identical inputs
// always produce identical results.
func (m *Matcher) Calculate(event Event, student Student) Result {
	interestScore, primaryInterest := scoreInterests(event, student)
	departmentScore := scoreDepartment(event, student)
	participationScore := scoreParticipation(event, student)

	percentage := int(math.Round(
		interestScore*interestWeight +
			departmentScore*departmentWeight +
			participationScore*participationWeight,
	))

	result := Result{
		Percentage:             percentage,
		InterestScore:          int(math.Round(interestScore)),
		DepartmentScore:        int(math.Round(departmentScore)),
		PastParticipationScore: int(math.Round(participationScore)),
		PrimaryInterest:        primaryInterest,
	}
	metrics.RecordMatchComputation(percentage >= RecommendThreshold)
	return result
}

// scoreInterests matches the student's declared interests against the
// event's category set (category, type and tags, lower-cased). An interest
// matches a category when either string contains the other.
func scoreInterests(event Event, student Student) (score float64, primary string) {
	primary = event.Category
	if primary == "" {
		primary = event.Type
	}
	if primary == "" {
		primary = "this category"
	}

	if len(student.Interests) == 0 {
		return 50, primary // neutral default without declared interests
	}

	var categories []string
	for _, c := range []string{event.Category, event.Type} {
		if c != "" {
			categories = append(categories, strings.ToLower(c))
		}
	}
	for _, tag := range event.Tags {
		if tag != "" {
			categories = append(categories, strings.ToLower(tag))
		}
	}
	if len(categories) == 0 {
		return 0, primary
	}

	interests := make([]string, 0, len(student.Interests))
	for _, in := range student.Interests {
		interests = append(interests, strings.ToLower(in))
	}

	var matched []string
	for _, cat := range categories {
		for _, in := range interests {
			if strings.Contains(cat, in) || strings.Contains(in, cat) {
				matched = append(matched, cat)
				break
			}
		}
	}
	if len(matched) == 0 {
		return 0, primary
	}
	return math.Min(100, float64(len(matched))/float64(len(categories))*100), matched[0]
}

// scoreDepartment compares the student's branch/department/program (first
// non-empty) against the event's department.
func scoreDepartment(event Event, student Student) float64 {
	studentDept := strings.ToLower(firstNonEmpty(student.Branch, student.Department, student.Program))
	eventDept := strings.ToLower(event.Department)

	switch {
	case studentDept == "" || eventDept == "":
		return 75 // no department specified, assume open to all
	case strings.Contains(studentDept, eventDept) || strings.Contains(eventDept, studentDept):
		return 100
	case strings.Contains(eventDept, "all") || strings.Contains(eventDept, "general"):
		return 80
	default:
		return 30 // cross-department events still carry some value
	}
}

// scoreParticipation applies the coarse history heuristic: a past event id
// whose text contains the current event's category counts as similar
// participation. The heuristic is intentionally preserved from the
// surrounding system; pastEvents identifiers have no documented structure.
func scoreParticipation(event Event, student Student) float64 {
	if len(student.PastEventIDs) == 0 {
		return 50 // no history, give the benefit of the doubt
	}

	category := strings.ToLower(event.Category)
	similar := 0
	for _, id := range student.PastEventIDs {
		if strings.Contains(strings.ToLower(id), category) {
			similar++
		}
	}
	if similar > 0 {
		return math.Min(100, float64(similar)*25)
	}
	return 60 // active student, new territory
}

// ClosingSoon reports whether the event's registration deadline falls
// between 24 and 48 hours from now, inclusive on both bounds. Events
// without a deadline never close soon.
func (m *Matcher) ClosingSoon(event Event) bool {
	if event.RegistrationDeadline == nil {
		return false
	}
	until := event.RegistrationDeadline.Sub(m.now())
	return until >= closingSoonMin && until <= closingSoonMax
}

// ShouldRecommend reports whether a missed-opportunity alert is warranted:
// the match must reach the threshold and registration must be closing soon.
func (m *Matcher) ShouldRecommend(event Event, student Student) bool {
	return m.Calculate(event, student).Percentage >= RecommendThreshold && m.ClosingSoon(event)
}

// AlertMessage renders the human-readable alert sentence for an event.
func (m *Matcher) AlertMessage(event Event, student Student) string {
	result := m.Calculate(event, student)
	return fmt.Sprintf(
		"Based on your interest in %s, this event matches your profile by %d%%. Registration closes soon.",
		result.PrimaryInterest, result.Percentage,
	)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
