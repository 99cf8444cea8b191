package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"mindtrace.com/mindtrace-server/middleware"
	"mindtrace.com/mindtrace-server/models"
)

// GetAlerts lists alerts produced for the user, newest first. Supports
// ?limit=N and ?unread=true.
func GetAlerts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 || limit > 200 {
			limit = 50
		}
		unreadOnly := r.URL.Query().Get("unread") == "true"

		query := `
			SELECT id, user_id, type, severity, title, message, data, read, created_at
			FROM alerts
			WHERE user_id = $1`
		if unreadOnly {
			query += ` AND read = FALSE`
		}
		query += ` ORDER BY created_at DESC LIMIT ` + strconv.Itoa(limit)

		rows, err := db.Query(query, userID)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Printf("GetAlerts error: %v", err)
			return
		}
		defer rows.Close()

		alerts := []models.Alert{}
		for rows.Next() {
			var a models.Alert
			var data []byte
			if err := rows.Scan(&a.ID, &a.UserID, &a.Type, &a.Severity,
				&a.Title, &a.Message, &data, &a.Read, &a.CreatedAt); err != nil {
				http.Error(w, "Error scanning alerts", http.StatusInternalServerError)
				log.Printf("GetAlerts scan error: %v", err)
				return
			}
			a.Data = data
			alerts = append(alerts, a)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "Error iterating alerts", http.StatusInternalServerError)
			log.Printf("GetAlerts rows error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(alerts)
	}
}

func MarkAlertRead(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)
		alertID := mux.Vars(r)["id"]

		res, err := db.Exec(`
			UPDATE alerts
			SET read = TRUE
			WHERE id = $1 AND user_id = $2`,
			alertID, userID)
		if err != nil {
			http.Error(w, "Failed to mark alert as read", http.StatusInternalServerError)
			log.Printf("MarkAlertRead error: %v", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			http.Error(w, "Alert not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Alert marked as read"})
	}
}

func MarkAllAlertsRead(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		res, err := db.Exec(`
			UPDATE alerts
			SET read = TRUE
			WHERE user_id = $1 AND read = FALSE`,
			userID)
		if err != nil {
			http.Error(w, "Failed to mark alerts as read", http.StatusInternalServerError)
			log.Printf("MarkAllAlertsRead error: %v", err)
			return
		}

		n, _ := res.RowsAffected()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "All alerts marked as read",
			"updated": n,
		})
	}
}
