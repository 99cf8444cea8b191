package models

import "time"

type Contact struct {
	ID                 int        `json:"id"`
	UserID             int        `json:"user_id"`
	Name               string     `json:"name"`
	Relationship       string     `json:"relationship"`
	RelationshipDetail *string    `json:"relationship_detail,omitempty"`
	Avatar             *string    `json:"avatar,omitempty"`
	Color              string     `json:"color"`
	PhoneNumber        *string    `json:"phone_number,omitempty"`
	Email              *string    `json:"email,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	VisitFrequency     *string    `json:"visit_frequency,omitempty"`
	ProfilePhoto       *string    `json:"profile_photo,omitempty"`
	LastSeen           *time.Time `json:"last_seen,omitempty"`
	IsActive           bool       `json:"is_active"`
}
