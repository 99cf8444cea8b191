package models

import "time"

// Reminder types understood by the alert severity mapping. The column is an
// open string; anything else is treated as "other".
const (
	ReminderTypeMedication  = "medication"
	ReminderTypeAppointment = "appointment"
	ReminderTypeMeal        = "meal"
	ReminderTypeActivity    = "activity"
	ReminderTypeHydration   = "hydration"
	ReminderTypeOther       = "other"
)

type Reminder struct {
	ID            int        `json:"id"`
	UserID        int        `json:"user_id"`
	Title         string     `json:"title"`
	Type          string     `json:"type"`
	Time          string     `json:"time"` // 24-hour "HH:MM"
	Date          time.Time  `json:"date"` // anchor date, weekly recurrence derives its weekday from this
	Recurrence    string     `json:"recurrence"`
	Enabled       bool       `json:"enabled"`
	Completed     bool       `json:"completed"`
	Notes         *string    `json:"notes,omitempty"`
	LastTriggered *time.Time `json:"last_triggered,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
