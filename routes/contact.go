package routes

import (
	"database/sql"

	"github.com/gorilla/mux"
	"mindtrace.com/mindtrace-server/handlers"
	"mindtrace.com/mindtrace-server/middleware"
)

func CreateContactRoutes(db *sql.DB, router *mux.Router) *mux.Router {
	contacts := router.PathPrefix("/contacts").Subrouter()
	contacts.Use(middleware.RequireAuth)

	contacts.HandleFunc("", handlers.GetContacts(db)).Methods("GET")
	contacts.HandleFunc("", handlers.CreateContact(db)).Methods("POST")
	contacts.HandleFunc("/with-photo", handlers.CreateContactWithPhoto(db)).Methods("POST")
	contacts.HandleFunc("/{id}", handlers.GetContact(db)).Methods("GET")
	contacts.HandleFunc("/{id}", handlers.UpdateContact(db)).Methods("PUT")
	contacts.HandleFunc("/{id}", handlers.DeleteContact(db)).Methods("DELETE")

	return router
}
