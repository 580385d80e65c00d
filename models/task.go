package models

import "time"

type Task struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id,omitempty"`
	GuestID   *string   `json:"-"` // Session token, never exposed in API responses
	Title     string    `json:"title"`
	Notes     string    `json:"notes"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}
