package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorilla "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"mindtrace.com/mindtrace-server/database"
	"mindtrace.com/mindtrace-server/routes"
	"mindtrace.com/mindtrace-server/scheduler"
	"mindtrace.com/mindtrace-server/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db, err := database.ConnectDB()
	if err != nil {
		log.Fatal("Server: DB connection failed:", err)
	}
	defer db.Close()

	firebaseReady := false
	if path := os.Getenv("FIREBASE_CREDENTIALS_PATH"); path != "" {
		if err := services.InitFirebase(path); err != nil {
			log.Printf("Server: Firebase init failed: %v", err)
		} else {
			firebaseReady = true
		}
	} else {
		log.Println("FIREBASE_CREDENTIALS_PATH not set, push notifications disabled")
	}

	router := mux.NewRouter()
	router.HandleFunc("/", serverStatus).Methods("GET")
	routes.CreateAuthRoutes(db, router)
	routes.CreateUserRoutes(db, router)
	routes.CreateContactRoutes(db, router)
	routes.CreateReminderRoutes(db, router)
	routes.CreateAlertRoutes(db, router)
	routes.CreateSOSRoutes(db, router)

	sched := scheduler.New(scheduler.NewPostgresStore(db))
	if firebaseReady {
		sched.Notifier = &services.AlertNotifier{DB: db}
	}
	sched.Start()
	defer sched.Stop()

	clientURL := os.Getenv("CLIENT_URL")
	if clientURL == "" {
		clientURL = "http://localhost:5173"
	}
	cors := gorilla.CORS(
		gorilla.AllowedOrigins([]string{clientURL, "http://localhost:5173"}),
		gorilla.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilla.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		gorilla.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      cors(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("[Server] Listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("[Server] Shutting down")
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[Server] Shutdown error: %v", err)
	}
}

func serverStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Server is live"})
}
