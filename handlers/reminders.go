package handlers

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"mindtrace.com/mindtrace-server/middleware"
	"mindtrace.com/mindtrace-server/models"
)

var validRecurrences = map[string]bool{
	"daily":    true,
	"weekly":   true,
	"weekdays": true,
	"weekends": true,
	"custom":   true,
}

// decodeReminder decodes a reminder body. Enabled defaults to true when the
// field is absent, matching the column default; an explicit false sticks.
func decodeReminder(body io.Reader) (models.Reminder, error) {
	reminder := models.Reminder{Enabled: true}
	err := json.NewDecoder(body).Decode(&reminder)
	return reminder, err
}

func validateReminder(r *models.Reminder) string {
	if r.Title == "" {
		return "Title is required"
	}
	if _, err := time.Parse("15:04", r.Time); err != nil {
		return "Time must be in 24-hour HH:MM format"
	}
	if r.Type == "" {
		r.Type = models.ReminderTypeOther
	}
	if r.Recurrence == "" {
		r.Recurrence = "daily"
	}
	if !validRecurrences[strings.ToLower(r.Recurrence)] {
		return "Recurrence must be one of daily, weekly, weekdays, weekends, custom"
	}
	return ""
}

func scanReminderRow(row interface {
	Scan(dest ...interface{}) error
}) (models.Reminder, error) {
	var r models.Reminder
	var notes sql.NullString
	var lastTriggered sql.NullTime

	err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.Type, &r.Time, &r.Date,
		&r.Recurrence, &r.Enabled, &r.Completed, &notes, &lastTriggered, &r.CreatedAt)
	if err != nil {
		return r, err
	}
	if notes.Valid {
		r.Notes = &notes.String
	}
	if lastTriggered.Valid {
		t := lastTriggered.Time
		r.LastTriggered = &t
	}
	return r, nil
}

func GetReminders(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		rows, err := db.Query(`
			SELECT id, user_id, title, type, time, date, recurrence,
			       enabled, completed, notes, last_triggered, created_at
			FROM reminders
			WHERE user_id = $1
			ORDER BY time, id`,
			userID)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Printf("GetReminders error: %v", err)
			return
		}
		defer rows.Close()

		reminders := []models.Reminder{}
		for rows.Next() {
			reminder, err := scanReminderRow(rows)
			if err != nil {
				http.Error(w, "Error scanning reminders", http.StatusInternalServerError)
				log.Printf("GetReminders scan error: %v", err)
				return
			}
			reminders = append(reminders, reminder)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "Error iterating reminders", http.StatusInternalServerError)
			log.Printf("GetReminders rows error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reminders)
	}
}

func CreateReminder(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		reminder, err := decodeReminder(r.Body)
		if err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if msg := validateReminder(&reminder); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		reminder.UserID = userID
		if reminder.Date.IsZero() {
			reminder.Date = time.Now()
		}

		err = db.QueryRow(`
			INSERT INTO reminders (user_id, title, type, time, date, recurrence,
			                       enabled, completed, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, NOW())
			RETURNING id, created_at`,
			reminder.UserID, reminder.Title, reminder.Type, reminder.Time,
			reminder.Date, reminder.Recurrence, reminder.Enabled, reminder.Notes,
		).Scan(&reminder.ID, &reminder.CreatedAt)
		if err != nil {
			http.Error(w, "Failed to create reminder", http.StatusInternalServerError)
			log.Printf("CreateReminder error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reminder)
	}
}

func UpdateReminder(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)
		reminderID := mux.Vars(r)["id"]

		var req models.Reminder
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if msg := validateReminder(&req); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		res, err := db.Exec(`
			UPDATE reminders
			SET title = $1, type = $2, time = $3, recurrence = $4,
			    enabled = $5, completed = $6, notes = $7
			WHERE id = $8 AND user_id = $9`,
			req.Title, req.Type, req.Time, req.Recurrence,
			req.Enabled, req.Completed, req.Notes, reminderID, userID)
		if err != nil {
			http.Error(w, "Failed to update reminder", http.StatusInternalServerError)
			log.Printf("UpdateReminder error: %v", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			http.Error(w, "Reminder not found", http.StatusNotFound)
			return
		}

		reminder, err := scanReminderRow(db.QueryRow(`
			SELECT id, user_id, title, type, time, date, recurrence,
			       enabled, completed, notes, last_triggered, created_at
			FROM reminders
			WHERE id = $1 AND user_id = $2`,
			reminderID, userID))
		if err != nil {
			http.Error(w, "Failed to fetch reminder", http.StatusInternalServerError)
			log.Printf("UpdateReminder fetch error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reminder)
	}
}

// CompleteReminder marks a reminder done for the current day. The scheduler
// resets the flag at midnight for recurring reminders.
func CompleteReminder(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)
		reminderID := mux.Vars(r)["id"]

		res, err := db.Exec(`
			UPDATE reminders
			SET completed = TRUE
			WHERE id = $1 AND user_id = $2`,
			reminderID, userID)
		if err != nil {
			http.Error(w, "Failed to complete reminder", http.StatusInternalServerError)
			log.Printf("CompleteReminder error: %v", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			http.Error(w, "Reminder not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Reminder marked as completed"})
	}
}

func DeleteReminder(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)
		reminderID := mux.Vars(r)["id"]

		res, err := db.Exec(`
			DELETE FROM reminders
			WHERE id = $1 AND user_id = $2`,
			reminderID, userID)
		if err != nil {
			http.Error(w, "Failed to delete reminder", http.StatusInternalServerError)
			log.Printf("DeleteReminder error: %v", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			http.Error(w, "Reminder not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Reminder deleted successfully"})
	}
}
