package domain

import "time"

// DateLayout is the wire and storage format of an event date.
const DateLayout = "2006-01-02"

// Event is something users can organize and participate in.
// Date carries only a calendar day (UTC midnight).
type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	OrganizerID string    `json:"organizer_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventParticipantCount pairs an event with its number of participants.
type EventParticipantCount struct {
	Event        Event `json:"event"`
	Participants int64 `json:"participants"`
}

// EventUnreadCount pairs an event id with its unread notification count.
type EventUnreadCount struct {
	EventID string `json:"event_id"`
	Unread  int64  `json:"unread"`
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate renders a calendar day as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// IsFutureDate reports whether day is strictly after the calendar day of now.
func IsFutureDate(day, now time.Time) bool {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return d.After(today)
}
