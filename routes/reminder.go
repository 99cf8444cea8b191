package routes

import (
	"database/sql"

	"github.com/gorilla/mux"
	"mindtrace.com/mindtrace-server/handlers"
	"mindtrace.com/mindtrace-server/middleware"
)

func CreateReminderRoutes(db *sql.DB, router *mux.Router) *mux.Router {
	reminders := router.PathPrefix("/reminders").Subrouter()
	reminders.Use(middleware.RequireAuth)

	reminders.HandleFunc("", handlers.GetReminders(db)).Methods("GET")
	reminders.HandleFunc("", handlers.CreateReminder(db)).Methods("POST")
	reminders.HandleFunc("/{id}", handlers.UpdateReminder(db)).Methods("PUT")
	reminders.HandleFunc("/{id}", handlers.DeleteReminder(db)).Methods("DELETE")
	reminders.HandleFunc("/{id}/complete", handlers.CompleteReminder(db)).Methods("PUT")

	return router
}

func CreateAlertRoutes(db *sql.DB, router *mux.Router) *mux.Router {
	alerts := router.PathPrefix("/alerts").Subrouter()
	alerts.Use(middleware.RequireAuth)

	alerts.HandleFunc("", handlers.GetAlerts(db)).Methods("GET")
	alerts.HandleFunc("/read-all", handlers.MarkAllAlertsRead(db)).Methods("PUT")
	alerts.HandleFunc("/{id}/read", handlers.MarkAlertRead(db)).Methods("PUT")

	return router
}
