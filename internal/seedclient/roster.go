package seedclient

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// attendance is a single confirmation to submit.
type attendance struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	EventID     string `json:"event_id"`
	EventName   string `json:"event_name"`
	EventType   string `json:"event_type"`
}

// eventSeed names a campus event a demo student attended.
type eventSeed struct {
	id, name, typ string
}

// studentSeed is one roster entry with its attendance history.
type studentSeed struct {
	id, name string
	events   []eventSeed
}

// Shared demo events so roster students overlap on the leaderboard the way a
// real campus would.
var demoEvents = []eventSeed{
	{"demo-workshop-1", "AI/ML Workshop", "workshop"},
	{"demo-hackathon-1", "Tech Hackathon", "hackathon"},
	{"demo-seminar-1", "Career Guidance Seminar", "seminar"},
	{"demo-conference-1", "Annual Tech Conference", "conference"},
	{"demo-competition-1", "Coding Competition", "competition"},
	{"demo-cultural-1", "Cultural Fest", "cultural"},
	{"demo-sports-1", "Inter-Branch Sports Meet", "sports"},
	{"demo-techtalk-1", "Industry Tech Talk", "tech talk"},
	{"demo-webinar-1", "Cloud Computing Webinar", "webinar"},
	{"demo-networking-1", "Alumni Networking Night", "networking"},
}

// demoRoster returns the fixed five-student roster. Histories are chosen so
// the students land on distinct badge tiers.
func demoRoster() []studentSeed {
	return []studentSeed{
		{id: "student-001", name: "Alice Johnson", events: demoEvents[:8]},
		{id: "student-002", name: "Bob Smith", events: demoEvents[:5]},
		{id: "student-003", name: "Charlie Davis", events: demoEvents[:3]},
		{id: "student-004", name: "Diana Prince", events: demoEvents},
		{id: "student-005", name: "Eve Wilson", events: demoEvents[:2]},
	}
}

var randomEventTypes = []string{
	"workshop", "hackathon", "seminar", "conference", "competition",
	"cultural", "sports", "tech talk", "webinar", "networking",
}

var randomFirstNames = []string{
	"Arjun", "Priya", "Rahul", "Sneha", "Vikram", "Ananya", "Karan", "Meera",
	"Rohan", "Divya", "Aditya", "Kavya", "Nikhil", "Pooja", "Sameer", "Riya",
}

var randomLastNames = []string{
	"Sharma", "Patel", "Reddy", "Iyer", "Khan", "Gupta", "Nair", "Singh",
	"Mehta", "Joshi", "Rao", "Desai",
}

func pick(items []string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(items))))
	return items[n.Int64()]
}

// randomStudents generates n synthetic students with eventsPer confirmations
// each. Event ids are unique per student so every confirmation awards.
func randomStudents(n, eventsPer int) []studentSeed {
	students := make([]studentSeed, n)
	for i := range students {
		id := uuid.New().String()
		events := make([]eventSeed, eventsPer)
		for j := range events {
			typ := pick(randomEventTypes)
			events[j] = eventSeed{
				id:   fmt.Sprintf("seed-%s-%d", id[:8], j),
				name: fmt.Sprintf("Seeded %s %d", typ, j+1),
				typ:  typ,
			}
		}
		students[i] = studentSeed{
			id:     "student-" + id[:8],
			name:   pick(randomFirstNames) + " " + pick(randomLastNames),
			events: events,
		}
	}
	return students
}

// confirmations flattens rosters into the submission list.
func confirmations(rosters ...[]studentSeed) []attendance {
	var out []attendance
	for _, roster := range rosters {
		for _, s := range roster {
			for _, e := range s.events {
				out = append(out, attendance{
					StudentID:   s.id,
					StudentName: s.name,
					EventID:     e.id,
					EventName:   e.name,
					EventType:   e.typ,
				})
			}
		}
	}
	return out
}
