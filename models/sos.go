package models

import "time"

type SOSContact struct {
	ID           int     `json:"id"`
	UserID       int     `json:"user_id"`
	Name         string  `json:"name"`
	Phone        string  `json:"phone"`
	Email        *string `json:"email,omitempty"`
	Relationship *string `json:"relationship,omitempty"`
	Priority     int     `json:"priority"`
}

type SOSConfig struct {
	ID            int  `json:"id"`
	UserID        int  `json:"user_id"`
	SendSMS       bool `json:"send_sms"`
	MakeCall      bool `json:"make_call"`
	ShareLocation bool `json:"share_location"`
	RecordAudio   bool `json:"record_audio"`
	EmailAlert    bool `json:"email_alert"`
	AlertServices bool `json:"alert_services"`
}

// SOS alert statuses.
const (
	SOSStatusPending      = "pending"
	SOSStatusAcknowledged = "acknowledged"
	SOSStatusResolved     = "resolved"
)

type Location struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Accuracy *float64 `json:"accuracy,omitempty"`
	Address  *string  `json:"address,omitempty"`
}

type SOSAlert struct {
	ID               int        `json:"id"`
	UserID           int        `json:"user_id"`
	Status           string     `json:"status"`
	Timestamp        time.Time  `json:"timestamp"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy       *string    `json:"resolved_by,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	Location         *Location  `json:"location,omitempty"`
	BatteryLevel     *int       `json:"battery_level,omitempty"`
	ConnectionStatus *string    `json:"connection_status,omitempty"`
	WearerName       *string    `json:"wearer_name,omitempty"`
	IsTest           bool       `json:"is_test"`
}
