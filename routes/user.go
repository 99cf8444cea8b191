package routes

import (
	"database/sql"

	"github.com/gorilla/mux"
	"mindtrace.com/mindtrace-server/handlers"
	"mindtrace.com/mindtrace-server/middleware"
)

func CreateUserRoutes(db *sql.DB, router *mux.Router) *mux.Router {
	user := router.PathPrefix("/user").Subrouter()
	user.Use(middleware.RequireAuth)

	user.HandleFunc("/profile", handlers.GetProfile(db)).Methods("GET")
	user.HandleFunc("/profile", handlers.UpdateProfile(db)).Methods("PUT")
	user.HandleFunc("/change-password", handlers.ChangePassword(db)).Methods("POST")
	user.HandleFunc("/account", handlers.DeleteAccount(db)).Methods("DELETE")
	user.HandleFunc("/profile-image", handlers.UploadProfileImage(db)).Methods("POST")
	user.HandleFunc("/profile-image", handlers.DeleteProfileImage(db)).Methods("DELETE")
	user.HandleFunc("/fcm-token", handlers.RegisterFCMToken(db)).Methods("POST")

	return router
}
