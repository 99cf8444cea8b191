package models

import "time"

type User struct {
	ID                int        `json:"id"`
	Email             string     `json:"email"`
	Password          string     `json:"password,omitempty"`
	FullName          string     `json:"full_name"`
	ProfileImage      *string    `json:"profile_image,omitempty"`
	IsActive          bool       `json:"is_active"`
	ResetToken        *string    `json:"-"`
	ResetTokenExpires *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
}
