// Package seedclient drives a running engine instance over HTTP to seed a
// demo campus roster and optionally a volume of randomized attendance, then
// verifies the resulting leaderboard.
package seedclient

import "time"

// Config holds the seeding run configuration.
type Config struct {
	BaseURL       string        // Base URL of the engine service
	ExtraStudents int           // Randomized students on top of the demo roster
	EventsPer     int           // Attendance confirmations per random student
	Workers       int           // Concurrent submission workers
	Timeout       time.Duration // HTTP request timeout
	TopN          int           // Leaderboard entries to fetch for verification
	Verbose       bool          // Log per-request outcomes
}

// Stats tracks the outcome of a seeding run.
type Stats struct {
	ConfirmationsSent int
	Awarded           int
	Duplicates        int
	Failed            int
	BadgesUnlocked    int
	LeaderboardSize   int
	Duration          time.Duration
}
