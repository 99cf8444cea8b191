package routes

import (
	"database/sql"

	"github.com/gorilla/mux"
	"mindtrace.com/mindtrace-server/handlers"
	"mindtrace.com/mindtrace-server/middleware"
)

func CreateSOSRoutes(db *sql.DB, router *mux.Router) *mux.Router {
	sos := router.PathPrefix("/sos").Subrouter()
	sos.Use(middleware.RequireAuth)

	sos.HandleFunc("/contacts", handlers.GetSOSContacts(db)).Methods("GET")
	sos.HandleFunc("/contacts", handlers.CreateSOSContact(db)).Methods("POST")
	sos.HandleFunc("/contacts/{id}", handlers.DeleteSOSContact(db)).Methods("DELETE")

	sos.HandleFunc("/config", handlers.GetSOSConfig(db)).Methods("GET")
	sos.HandleFunc("/config", handlers.UpdateSOSConfig(db)).Methods("PUT")

	sos.HandleFunc("/alerts", handlers.CreateSOSAlert(db)).Methods("POST")
	sos.HandleFunc("/alerts", handlers.GetSOSAlerts(db)).Methods("GET")
	sos.HandleFunc("/alerts/active", handlers.GetActiveSOSAlert(db)).Methods("GET")
	sos.HandleFunc("/alerts/history", handlers.ClearSOSAlertHistory(db)).Methods("DELETE")
	sos.HandleFunc("/alerts/{id}", handlers.UpdateSOSAlert(db)).Methods("PUT")

	return router
}
