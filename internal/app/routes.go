package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Dashboard
	r.HandleFunc("/api/dashboard", deps.DashboardHandler.Get).Methods("GET")

	// Transactions
	r.HandleFunc("/api/transaction", deps.TransactionHandler.List).Methods("GET")
	r.HandleFunc("/api/transaction", deps.TransactionHandler.Create).Methods("POST")
	r.HandleFunc("/api/transaction/parse", deps.VoiceHandler.Parse).Methods("POST")
	r.HandleFunc("/api/transaction/voice", deps.VoiceHandler.Voice).Methods("POST")
	r.HandleFunc("/api/transaction/{transactionId}", deps.TransactionHandler.Update).Methods("PUT")
	r.HandleFunc("/api/transaction/{transactionId}", deps.TransactionHandler.Delete).Methods("DELETE")

	// Recurring rules
	r.HandleFunc("/api/recurring", deps.RecurringHandler.List).Methods("GET")
	r.HandleFunc("/api/recurring/process", deps.RecurringHandler.Process).Methods("POST")
	r.HandleFunc("/api/recurring/{ruleId}", deps.RecurringHandler.Delete).Methods("DELETE")

	// Budget
	r.HandleFunc("/api/budget", deps.BudgetHandler.Get).Methods("GET")
	r.HandleFunc("/api/budget", deps.BudgetHandler.Set).Methods("PUT")

	// Stats
	r.HandleFunc("/api/stats", deps.StatsHandler.GetStats).Methods("GET")
	r.HandleFunc("/api/stats/csv", deps.StatsHandler.GetStatsCsv).Methods("GET")
	r.HandleFunc("/api/stats/chart", deps.StatsHandler.GetChart).Methods("GET")

	// Notifications
	r.HandleFunc("/api/notification/permission", deps.NotificationHandler.GetPermission).Methods("GET")
	r.HandleFunc("/api/notification/permission", deps.NotificationHandler.RequestPermission).Methods("POST")

	// User management
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user/current", deps.UserHandler.UpdateUser).Methods("PUT")
	r.HandleFunc("/api/user/current", deps.UserHandler.DeleteCurrentUser).Methods("DELETE")
	r.HandleFunc("/api/user/name-availability", deps.UserHandler.IsUsernameAvailable).Methods("GET").Queries("username", "{username}")

	// Google integration
	r.HandleFunc("/api/integrations/google/auth/login", deps.GoogleAuth.OAuthLogin).Methods("GET")
	r.HandleFunc("/api/integrations/google/auth/logout", deps.GoogleAuth.OAuthLogout).Methods("POST")
	r.HandleFunc("/api/integrations/google/auth/callback", deps.GoogleAuth.OAuthCallback).Methods("GET")
	r.HandleFunc("/api/integrations/google/calendars", deps.GoogleHandler.ListCalendars).Methods("GET")
}
