package routes

import (
	"database/sql"

	"github.com/gorilla/mux"
	"mindtrace.com/mindtrace-server/handlers"
)

func CreateAuthRoutes(db *sql.DB, router *mux.Router) *mux.Router {
	auth := router.PathPrefix("/auth").Subrouter()

	auth.HandleFunc("/signup", handlers.Signup(db)).Methods("POST")
	auth.HandleFunc("/login", handlers.Login(db)).Methods("POST")
	auth.HandleFunc("/logout", handlers.Logout()).Methods("POST")
	auth.HandleFunc("/forgot-password", handlers.ForgotPassword(db)).Methods("POST")
	auth.HandleFunc("/reset-password", handlers.ResetPassword(db)).Methods("POST")

	return router
}
