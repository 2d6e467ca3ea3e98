package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sakina-app/sakina-server/internal/api/recovery"
	"github.com/sakina-app/sakina-server/internal/auth"
	"github.com/sakina-app/sakina-server/internal/health"
	"github.com/sakina-app/sakina-server/internal/services"
)

// Deps wires the services and cross-cutting components into the router.
type Deps struct {
	Users         *services.UserService
	Journal       *services.JournalService
	Interventions *services.InterventionService
	Nudge         *services.NudgeService
	Insights      *services.InsightsService
	Dashboard     *services.DashboardService

	Verifier       auth.Verifier
	Health         *health.ServiceHealthChecker
	AllowedOrigins string
	Log            zerolog.Logger
}

// NewDeps builds every service over the shared service dependencies.
func NewDeps(sd services.Deps) Deps {
	journal := services.NewJournalService(sd)
	nudge := services.NewNudgeService(sd)
	insights := services.NewInsightsService(sd)
	return Deps{
		Users:         services.NewUserService(sd.Store),
		Journal:       journal,
		Interventions: services.NewInterventionService(sd),
		Nudge:         nudge,
		Insights:      insights,
		Dashboard:     services.NewDashboardService(journal, nudge, insights),
	}
}

// NewRouter creates the HTTP handler with all API routes.
func NewRouter(d Deps) http.Handler {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(requestLogger(d.Log), recovery.Middleware)

	healthHandler := NewHealthHandler(d.Health)
	journalHandler := NewJournalHandler(d.Journal)
	interventionHandler := NewInterventionHandler(d.Interventions)
	nudgeHandler := NewNudgeHandler(d.Nudge)
	insightsHandler := NewInsightsHandler(d.Insights, d.Dashboard)
	userHandler := NewUserHandler(d.Users)

	// Public endpoints
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Authenticated endpoints
	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.Middleware(d.Verifier), ensureUser(d.Users))

	api.HandleFunc("/journal", journalHandler.CreateEntry).Methods("POST")
	api.HandleFunc("/journal", journalHandler.ListEntries).Methods("GET")
	api.HandleFunc("/journal/analyze", journalHandler.AnalyzeEntry).Methods("POST")
	api.HandleFunc("/journal/{entryId}", journalHandler.GetEntry).Methods("GET")
	api.HandleFunc("/journal/{entryId}", journalHandler.DeleteEntry).Methods("DELETE")

	api.HandleFunc("/interventions", interventionHandler.LogIntervention).Methods("POST")
	api.HandleFunc("/interventions", interventionHandler.ListInterventions).Methods("GET")
	api.HandleFunc("/interventions/recent", interventionHandler.RecentInterventions).Methods("GET")

	api.HandleFunc("/nudge/check", nudgeHandler.Check).Methods("POST")
	api.HandleFunc("/nudge/status", nudgeHandler.Status).Methods("GET")
	api.HandleFunc("/nudge/shown", nudgeHandler.Shown).Methods("POST")

	api.HandleFunc("/insights/weekly", insightsHandler.Weekly).Methods("POST")
	api.HandleFunc("/insights/stats", insightsHandler.Stats).Methods("GET")
	api.HandleFunc("/insights/streak", insightsHandler.Streak).Methods("GET")
	api.HandleFunc("/dashboard/summary", insightsHandler.Dashboard).Methods("GET")

	api.HandleFunc("/users/profile", userHandler.GetProfile).Methods("GET")
	api.HandleFunc("/users/preferences", userHandler.UpdatePreferences).Methods("PATCH")

	return cors(strings.Split(d.AllowedOrigins, ","), router)
}
