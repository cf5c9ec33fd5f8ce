package domain

import "time"

// Notification is a message attached to an event, authored by a user.
// It moves from unread to read; only the create path resets it to unread.
type Notification struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
