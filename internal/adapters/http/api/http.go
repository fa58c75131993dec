// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/campusengage/engine/internal/app"
	"github.com/campusengage/engine/internal/domain/badge"
	"github.com/campusengage/engine/internal/domain/leaderboard"
	"github.com/campusengage/engine/internal/domain/match"
	"github.com/campusengage/engine/internal/domain/points"
)

// Dependencies required by the HTTP handlers. An interface bundle keeps the
// handler layer loosely coupled to the app service.
type Dependencies interface {
	AwardPoints(ctx context.Context, studentID, studentName, eventID, eventName, eventType string) (app.AwardResult, error)
	RevokePoints(ctx context.Context, studentID, eventID string) (points.StudentLedger, bool, error)
	Ledger(ctx context.Context, studentID string) (points.StudentLedger, error)
	Statistics(ctx context.Context) (points.Stats, error)

	BadgeStatus(ctx context.Context, studentID string, totalPoints int) (badge.Status, error)

	TopN(ctx context.Context, n int) []leaderboard.Row
	Rank(ctx context.Context, studentID string) leaderboard.Row

	Match(ctx context.Context, event match.Event, student match.Student) (match.Result, bool, bool)
	AlertMessage(ctx context.Context, event match.Event, student match.Student) string
	IsDismissed(ctx context.Context, eventID string) (bool, error)
	DismissAlert(ctx context.Context, eventID string) error
	ClearAlerts(ctx context.Context) error
}

// StatsProvider exposes service runtime statistics.
type StatsProvider interface {
	GetStats(ctx context.Context) map[string]any
}

// Server wires HTTP routes for the engine API.
type Server struct {
	attendanceHandler  *AttendanceHandler
	ledgerHandler      *LedgerHandler
	badgesHandler      *BadgesHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	statsHandler       *StatsHandler
	matchHandler       *MatchHandler
	alertsHandler      *AlertsHandler
	healthHandler      *HealthHandler
}

// NewServer creates an API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		attendanceHandler:  NewAttendanceHandler(deps),
		ledgerHandler:      NewLedgerHandler(deps),
		badgesHandler:      NewBadgesHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		rankHandler:        NewRankHandler(deps),
		statsHandler:       NewStatsHandler(deps, statsProvider),
		matchHandler:       NewMatchHandler(deps),
		alertsHandler:      NewAlertsHandler(deps),
		healthHandler:      NewHealthHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/attendance", MetricsMiddleware(s.attendanceHandler.HandleConfirm, "attendance"))
	mux.HandleFunc("/attendance/revoke", MetricsMiddleware(s.attendanceHandler.HandleRevoke, "attendance_revoke"))
	mux.HandleFunc("/ledger/", MetricsMiddleware(s.ledgerHandler.HandleGetLedger, "ledger"))
	mux.HandleFunc("/badges/", MetricsMiddleware(s.badgesHandler.HandleGetBadges, "badges"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/match", MetricsMiddleware(s.matchHandler.HandleMatch, "match"))
	mux.HandleFunc("/alerts/dismiss", MetricsMiddleware(s.alertsHandler.HandleDismiss, "alerts_dismiss"))
	mux.HandleFunc("/alerts/clear", MetricsMiddleware(s.alertsHandler.HandleClear, "alerts_clear"))
	mux.HandleFunc("/alerts/dismissed/", MetricsMiddleware(s.alertsHandler.HandleIsDismissed, "alerts_dismissed"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
