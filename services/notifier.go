package services

import (
	"database/sql"
	"fmt"
	"log"
	"strconv"

	"mindtrace.com/mindtrace-server/models"
)

// userTokens returns the user's registered device tokens.
func userTokens(db *sql.DB, userID int) ([]string, error) {
	rows, err := db.Query(`
		SELECT token FROM fcm_tokens
		WHERE user_id = $1 AND token IS NOT NULL AND token != ''`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err == nil {
			tokens = append(tokens, token)
		}
	}
	return tokens, rows.Err()
}

// AlertNotifier pushes scheduler-created alerts to the user's registered
// devices over FCM. It satisfies scheduler.Notifier.
type AlertNotifier struct {
	DB *sql.DB
}

func (n *AlertNotifier) NotifyAlert(userID int, a models.Alert) {
	tokens, err := userTokens(n.DB, userID)
	if err != nil {
		log.Printf("[FCM] Error fetching tokens for user %d: %v", userID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	success, failure, err := SendMultipleNotifications(
		n.DB,
		tokens,
		a.Title,
		a.Message,
		map[string]string{
			"type":     a.Type,
			"severity": a.Severity,
			"user_id":  strconv.Itoa(userID),
		},
	)
	if err != nil {
		log.Printf("[FCM] Push failed for user %d: %v", userID, err)
		return
	}

	log.Printf("[FCM] Alert push | user=%d success=%d failure=%d", userID, success, failure)
}

// sosNotification builds the push payload for a raised SOS alert.
func sosNotification(a models.SOSAlert) (title, body string, data map[string]string) {
	title = "SOS Alert"
	if a.IsTest {
		title = "SOS Test Alert"
	}

	body = "An SOS alert was triggered"
	if a.WearerName != nil && *a.WearerName != "" {
		body = fmt.Sprintf("%s triggered an SOS alert", *a.WearerName)
	}

	data = map[string]string{
		"type":     "sos",
		"alert_id": strconv.Itoa(a.ID),
		"status":   a.Status,
	}
	return
}

// PushSOSAlert notifies the wearer's registered devices that an SOS alert
// was raised. Best effort: failures are logged, never surfaced.
func PushSOSAlert(db *sql.DB, a models.SOSAlert) {
	tokens, err := userTokens(db, a.UserID)
	if err != nil {
		log.Printf("[FCM] Error fetching tokens for user %d: %v", a.UserID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	title, body, data := sosNotification(a)

	// A wearer typically carries one device; skip the multicast path then.
	if len(tokens) == 1 {
		if err := SendNotification(tokens[0], title, body, data); err != nil {
			log.Printf("[FCM] SOS push failed for user %d: %v", a.UserID, err)
		}
		return
	}

	success, failure, err := SendMultipleNotifications(db, tokens, title, body, data)
	if err != nil {
		log.Printf("[FCM] SOS push failed for user %d: %v", a.UserID, err)
		return
	}
	log.Printf("[FCM] SOS push | user=%d success=%d failure=%d", a.UserID, success, failure)
}
