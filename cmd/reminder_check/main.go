package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"mindtrace.com/mindtrace-server/database"
	"mindtrace.com/mindtrace-server/scheduler"
	"mindtrace.com/mindtrace-server/services"
)

// Runs a single reset-then-scan scheduler pass and exits. Meant for
// deployments that drive the reminder check from cron instead of the
// long-lived loop inside the server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db, err := database.ConnectDB()
	if err != nil {
		log.Fatal("ReminderCheck: DB connection failed:", err)
	}
	defer db.Close()

	sched := scheduler.New(scheduler.NewPostgresStore(db))

	if path := os.Getenv("FIREBASE_CREDENTIALS_PATH"); path != "" {
		if err := services.InitFirebase(path); err != nil {
			log.Printf("ReminderCheck: Firebase init failed: %v", err)
		} else {
			sched.Notifier = &services.AlertNotifier{DB: db}
		}
	}

	log.Println("⏰ Running reminder check pass")
	sched.RunPass()
	log.Println("✅ Reminder check pass finished")
}
