package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"mindtrace.com/mindtrace-server/middleware"
	"mindtrace.com/mindtrace-server/models"
	"mindtrace.com/mindtrace-server/services"
)

func GetSOSContacts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		rows, err := db.Query(`
			SELECT id, user_id, name, phone, email, relationship, priority
			FROM sos_contacts
			WHERE user_id = $1
			ORDER BY priority`,
			userID)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Printf("GetSOSContacts error: %v", err)
			return
		}
		defer rows.Close()

		contacts := []models.SOSContact{}
		for rows.Next() {
			var c models.SOSContact
			var email, relationship sql.NullString
			if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone,
				&email, &relationship, &c.Priority); err != nil {
				http.Error(w, "Error scanning SOS contacts", http.StatusInternalServerError)
				log.Printf("GetSOSContacts scan error: %v", err)
				return
			}
			if email.Valid {
				c.Email = &email.String
			}
			if relationship.Valid {
				c.Relationship = &relationship.String
			}
			contacts = append(contacts, c)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "Error iterating SOS contacts", http.StatusInternalServerError)
			log.Printf("GetSOSContacts rows error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(contacts)
	}
}

func CreateSOSContact(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		var c models.SOSContact
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if c.Name == "" || c.Phone == "" {
			http.Error(w, "Name and phone are required", http.StatusBadRequest)
			return
		}
		if c.Priority <= 0 {
			c.Priority = 1
		}
		c.UserID = userID

		err := db.QueryRow(`
			INSERT INTO sos_contacts (user_id, name, phone, email, relationship, priority)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			c.UserID, c.Name, c.Phone, c.Email, c.Relationship, c.Priority,
		).Scan(&c.ID)
		if err != nil {
			http.Error(w, "Failed to create SOS contact", http.StatusInternalServerError)
			log.Printf("CreateSOSContact error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c)
	}
}

func DeleteSOSContact(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)
		contactID := mux.Vars(r)["id"]

		res, err := db.Exec(`
			DELETE FROM sos_contacts
			WHERE id = $1 AND user_id = $2`,
			contactID, userID)
		if err != nil {
			http.Error(w, "Failed to delete SOS contact", http.StatusInternalServerError)
			log.Printf("DeleteSOSContact error: %v", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			http.Error(w, "Contact not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Contact deleted successfully"})
	}
}

func fetchOrCreateSOSConfig(db *sql.DB, userID int) (models.SOSConfig, error) {
	var cfg models.SOSConfig
	err := db.QueryRow(`
		SELECT id, user_id, send_sms, make_call, share_location,
		       record_audio, email_alert, alert_services
		FROM sos_configs
		WHERE user_id = $1`,
		userID).Scan(&cfg.ID, &cfg.UserID, &cfg.SendSMS, &cfg.MakeCall,
		&cfg.ShareLocation, &cfg.RecordAudio, &cfg.EmailAlert, &cfg.AlertServices)
	if err == sql.ErrNoRows {
		cfg = models.SOSConfig{
			UserID:        userID,
			SendSMS:       true,
			MakeCall:      true,
			ShareLocation: true,
			EmailAlert:    true,
		}
		err = db.QueryRow(`
			INSERT INTO sos_configs (user_id, send_sms, make_call, share_location,
			                         record_audio, email_alert, alert_services)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			cfg.UserID, cfg.SendSMS, cfg.MakeCall, cfg.ShareLocation,
			cfg.RecordAudio, cfg.EmailAlert, cfg.AlertServices,
		).Scan(&cfg.ID)
	}
	return cfg, err
}

func GetSOSConfig(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		cfg, err := fetchOrCreateSOSConfig(db, userID)
		if err != nil {
			http.Error(w, "Failed to fetch SOS config", http.StatusInternalServerError)
			log.Printf("GetSOSConfig error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cfg)
	}
}

func UpdateSOSConfig(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		var req models.SOSConfig
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		cfg, err := fetchOrCreateSOSConfig(db, userID)
		if err != nil {
			http.Error(w, "Failed to fetch SOS config", http.StatusInternalServerError)
			log.Printf("UpdateSOSConfig fetch error: %v", err)
			return
		}

		cfg.SendSMS = req.SendSMS
		cfg.MakeCall = req.MakeCall
		cfg.ShareLocation = req.ShareLocation
		cfg.RecordAudio = req.RecordAudio
		cfg.EmailAlert = req.EmailAlert
		cfg.AlertServices = req.AlertServices

		_, err = db.Exec(`
			UPDATE sos_configs
			SET send_sms = $1, make_call = $2, share_location = $3,
			    record_audio = $4, email_alert = $5, alert_services = $6
			WHERE id = $7`,
			cfg.SendSMS, cfg.MakeCall, cfg.ShareLocation, cfg.RecordAudio,
			cfg.EmailAlert, cfg.AlertServices, cfg.ID)
		if err != nil {
			http.Error(w, "Failed to update SOS config", http.StatusInternalServerError)
			log.Printf("UpdateSOSConfig error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cfg)
	}
}

const sosAlertColumns = `id, user_id, status, timestamp, resolved_at, resolved_by,
       notes, latitude, longitude, accuracy, address,
       battery_level, connection_status, is_test`

func scanSOSAlert(row interface {
	Scan(dest ...interface{}) error
}) (models.SOSAlert, error) {
	var a models.SOSAlert
	var resolvedAt sql.NullTime
	var resolvedBy, notes, latitude, longitude, accuracy, address, connectionStatus sql.NullString
	var batteryLevel sql.NullInt64

	err := row.Scan(&a.ID, &a.UserID, &a.Status, &a.Timestamp, &resolvedAt,
		&resolvedBy, &notes, &latitude, &longitude, &accuracy, &address,
		&batteryLevel, &connectionStatus, &a.IsTest)
	if err != nil {
		return a, err
	}

	if resolvedAt.Valid {
		t := resolvedAt.Time
		a.ResolvedAt = &t
	}
	if resolvedBy.Valid {
		a.ResolvedBy = &resolvedBy.String
	}
	if notes.Valid {
		a.Notes = &notes.String
	}
	if batteryLevel.Valid {
		n := int(batteryLevel.Int64)
		a.BatteryLevel = &n
	}
	if connectionStatus.Valid {
		a.ConnectionStatus = &connectionStatus.String
	}

	if latitude.Valid && longitude.Valid {
		lat, latErr := strconv.ParseFloat(latitude.String, 64)
		lng, lngErr := strconv.ParseFloat(longitude.String, 64)
		if latErr == nil && lngErr == nil {
			loc := &models.Location{Lat: lat, Lng: lng}
			if accuracy.Valid {
				if acc, err := strconv.ParseFloat(accuracy.String, 64); err == nil {
					loc.Accuracy = &acc
				}
			}
			if address.Valid {
				loc.Address = &address.String
			}
			a.Location = loc
		}
	}
	return a, nil
}

func locationStrings(loc *models.Location) (lat, lng, accuracy, address interface{}) {
	if loc == nil {
		return nil, nil, nil, nil
	}
	lat = strconv.FormatFloat(loc.Lat, 'f', -1, 64)
	lng = strconv.FormatFloat(loc.Lng, 'f', -1, 64)
	if loc.Accuracy != nil {
		accuracy = strconv.FormatFloat(*loc.Accuracy, 'f', -1, 64)
	}
	if loc.Address != nil {
		address = *loc.Address
	}
	return
}

func CreateSOSAlert(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		var req struct {
			Location         *models.Location `json:"location"`
			BatteryLevel     *int             `json:"battery_level"`
			ConnectionStatus *string          `json:"connection_status"`
			IsTest           bool             `json:"is_test"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		lat, lng, accuracy, address := locationStrings(req.Location)

		var alertID int
		err := db.QueryRow(`
			INSERT INTO sos_alerts (user_id, status, timestamp, latitude, longitude,
			                        accuracy, address, battery_level, connection_status, is_test)
			VALUES ($1, 'pending', NOW(), $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			userID, lat, lng, accuracy, address,
			req.BatteryLevel, req.ConnectionStatus, req.IsTest,
		).Scan(&alertID)
		if err != nil {
			http.Error(w, "Failed to create SOS alert", http.StatusInternalServerError)
			log.Printf("CreateSOSAlert error: %v", err)
			return
		}

		log.Printf("[SOS] Alert %d created for user %d (test=%v)", alertID, userID, req.IsTest)

		alert, err := fetchSOSAlert(db, alertID, userID)
		if err != nil {
			http.Error(w, "Failed to fetch SOS alert", http.StatusInternalServerError)
			log.Printf("CreateSOSAlert fetch error: %v", err)
			return
		}

		services.PushSOSAlert(db, alert)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(alert)
	}
}

func fetchSOSAlert(db *sql.DB, alertID, userID int) (models.SOSAlert, error) {
	a, err := scanSOSAlert(db.QueryRow(`
		SELECT `+sosAlertColumns+`
		FROM sos_alerts
		WHERE id = $1 AND user_id = $2`,
		alertID, userID))
	if err != nil {
		return a, err
	}

	var fullName string
	if nameErr := db.QueryRow(`SELECT full_name FROM users WHERE id = $1`, userID).
		Scan(&fullName); nameErr == nil && fullName != "" {
		a.WearerName = &fullName
	}
	return a, nil
}

func GetSOSAlerts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 || limit > 200 {
			limit = 50
		}
		status := r.URL.Query().Get("status")

		query := `SELECT ` + sosAlertColumns + `
			FROM sos_alerts
			WHERE user_id = $1`
		args := []interface{}{userID}
		if status != "" {
			query += ` AND status = $2`
			args = append(args, status)
		}
		query += ` ORDER BY timestamp DESC LIMIT ` + strconv.Itoa(limit)

		rows, err := db.Query(query, args...)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Printf("GetSOSAlerts error: %v", err)
			return
		}
		defer rows.Close()

		alerts := []models.SOSAlert{}
		for rows.Next() {
			a, err := scanSOSAlert(rows)
			if err != nil {
				http.Error(w, "Error scanning SOS alerts", http.StatusInternalServerError)
				log.Printf("GetSOSAlerts scan error: %v", err)
				return
			}
			alerts = append(alerts, a)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "Error iterating SOS alerts", http.StatusInternalServerError)
			log.Printf("GetSOSAlerts rows error: %v", err)
			return
		}

		var fullName string
		if err := db.QueryRow(`SELECT full_name FROM users WHERE id = $1`, userID).
			Scan(&fullName); err == nil && fullName != "" {
			for i := range alerts {
				name := fullName
				alerts[i].WearerName = &name
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(alerts)
	}
}

// GetActiveSOSAlert returns the newest pending or acknowledged alert, or
// null when there is none.
func GetActiveSOSAlert(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		a, err := scanSOSAlert(db.QueryRow(`
			SELECT `+sosAlertColumns+`
			FROM sos_alerts
			WHERE user_id = $1 AND status IN ('pending', 'acknowledged')
			ORDER BY timestamp DESC
			LIMIT 1`,
			userID))
		if err == sql.ErrNoRows {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte("null\n"))
			return
		} else if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Printf("GetActiveSOSAlert error: %v", err)
			return
		}

		var fullName string
		if nameErr := db.QueryRow(`SELECT full_name FROM users WHERE id = $1`, userID).
			Scan(&fullName); nameErr == nil && fullName != "" {
			a.WearerName = &fullName
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(a)
	}
}

func UpdateSOSAlert(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)
		alertIDStr := mux.Vars(r)["id"]
		alertID, err := strconv.Atoi(alertIDStr)
		if err != nil {
			http.Error(w, "Invalid alert ID", http.StatusBadRequest)
			return
		}

		var req struct {
			Status     *string          `json:"status"`
			ResolvedBy *string          `json:"resolved_by"`
			Notes      *string          `json:"notes"`
			Location   *models.Location `json:"location"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		var exists bool
		err = db.QueryRow(`
			SELECT EXISTS (SELECT 1 FROM sos_alerts WHERE id = $1 AND user_id = $2)`,
			alertID, userID).Scan(&exists)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Printf("UpdateSOSAlert error: %v", err)
			return
		}
		if !exists {
			http.Error(w, "Alert not found", http.StatusNotFound)
			return
		}

		if req.Status != nil {
			if _, err := db.Exec(`UPDATE sos_alerts SET status = $1 WHERE id = $2`, *req.Status, alertID); err != nil {
				http.Error(w, "Failed to update alert", http.StatusInternalServerError)
				log.Printf("UpdateSOSAlert status error: %v", err)
				return
			}
			if *req.Status == models.SOSStatusResolved {
				if _, err := db.Exec(`UPDATE sos_alerts SET resolved_at = $1 WHERE id = $2`, time.Now(), alertID); err != nil {
					log.Printf("UpdateSOSAlert resolved_at error: %v", err)
				}
			}
		}
		if req.ResolvedBy != nil {
			if _, err := db.Exec(`UPDATE sos_alerts SET resolved_by = $1 WHERE id = $2`, *req.ResolvedBy, alertID); err != nil {
				log.Printf("UpdateSOSAlert resolved_by error: %v", err)
			}
		}
		if req.Notes != nil {
			if _, err := db.Exec(`UPDATE sos_alerts SET notes = $1 WHERE id = $2`, *req.Notes, alertID); err != nil {
				log.Printf("UpdateSOSAlert notes error: %v", err)
			}
		}
		if req.Location != nil {
			lat, lng, accuracy, address := locationStrings(req.Location)
			if _, err := db.Exec(`
				UPDATE sos_alerts
				SET latitude = $1, longitude = $2, accuracy = $3, address = $4
				WHERE id = $5`,
				lat, lng, accuracy, address, alertID); err != nil {
				log.Printf("UpdateSOSAlert location error: %v", err)
			}
		}

		alert, err := fetchSOSAlert(db, alertID, userID)
		if err != nil {
			http.Error(w, "Failed to fetch alert", http.StatusInternalServerError)
			log.Printf("UpdateSOSAlert fetch error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(alert)
	}
}

// ClearSOSAlertHistory removes resolved alerts only; anything still open
// stays.
func ClearSOSAlertHistory(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		_, err := db.Exec(`
			DELETE FROM sos_alerts
			WHERE user_id = $1 AND status = 'resolved'`,
			userID)
		if err != nil {
			http.Error(w, "Failed to clear alert history", http.StatusInternalServerError)
			log.Printf("ClearSOSAlertHistory error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Alert history cleared successfully"})
	}
}
