package services

import (
	"testing"

	"mindtrace.com/mindtrace-server/models"
)

func TestSOSNotificationPayload(t *testing.T) {
	name := "Margaret Hale"
	title, body, data := sosNotification(models.SOSAlert{
		ID:         7,
		UserID:     3,
		Status:     models.SOSStatusPending,
		WearerName: &name,
	})

	if title != "SOS Alert" {
		t.Errorf("title = %q, want %q", title, "SOS Alert")
	}
	if body != "Margaret Hale triggered an SOS alert" {
		t.Errorf("body = %q", body)
	}
	if data["type"] != "sos" || data["alert_id"] != "7" || data["status"] != models.SOSStatusPending {
		t.Errorf("data = %v", data)
	}
}

func TestSOSNotificationTestAlert(t *testing.T) {
	title, body, _ := sosNotification(models.SOSAlert{ID: 8, Status: models.SOSStatusPending, IsTest: true})

	if title != "SOS Test Alert" {
		t.Errorf("title = %q, want %q", title, "SOS Test Alert")
	}
	if body != "An SOS alert was triggered" {
		t.Errorf("body = %q", body)
	}
}

func TestGetMessagingClientUninitialized(t *testing.T) {
	if _, err := GetMessagingClient(); err == nil {
		t.Fatal("expected an error before Firebase initialization")
	}
}
