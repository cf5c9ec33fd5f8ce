package handler

import (
	"time"

	"github.com/eventsphere/eventsphere/internal/core/domain"
	"github.com/eventsphere/eventsphere/internal/core/ports"
)

type registerRequest struct {
	Username        string `json:"username"         validate:"required,min=3"`
	Email           string `json:"email"            validate:"required,email"`
	ConfirmEmail    string `json:"confirm_email"    validate:"required,email,eqfield=Email"`
	Password        string `json:"password"         validate:"required,min=5,strongpwd"`
	ConfirmPassword string `json:"confirm_password" validate:"required,min=5,eqfield=Password"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateProfileRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=5"`
}

type eventRequest struct {
	Name     string `json:"name"     validate:"required"`
	Date     string `json:"date"     validate:"required,futuredate"`
	Location string `json:"location" validate:"required"`
}

type participantRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type notificationRequest struct {
	Content string `json:"content"  validate:"required"`
	EventID string `json:"event_id" validate:"required"`
	// UserID is the author; empty means the caller.
	UserID string `json:"user_id"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	Token     string            `json:"token"`
	TokenType string            `json:"token_type"`
	Principal *domain.Principal `json:"principal"`
}

type dashboardResponse struct {
	Username    string   `json:"username"`
	Authorities []string `json:"authorities"`
	IsAdmin     bool     `json:"is_admin"`
}

// eventResponse renders an event with its date as a calendar day.
type eventResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Date        string    `json:"date"`
	Location    string    `json:"location"`
	OrganizerID string    `json:"organizer_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type organizedEventResponse struct {
	Event        eventResponse `json:"event"`
	Participants int64         `json:"participants"`
}

type participantResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func toEventResponse(e domain.Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Date:        domain.FormatDate(e.Date),
		Location:    e.Location,
		OrganizerID: e.OrganizerID,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toEventResponses(events []domain.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	return out
}

func toParticipantResponses(users []domain.User) []participantResponse {
	out := make([]participantResponse, 0, len(users))
	for _, u := range users {
		out = append(out, participantResponse{ID: u.ID, Username: u.Username, Email: u.Email})
	}
	return out
}

// toEventInput assumes req already passed validation.
func (r eventRequest) toEventInput() (ports.EventInput, error) {
	day, err := domain.ParseDate(r.Date)
	if err != nil {
		return ports.EventInput{}, err
	}
	return ports.EventInput{Name: r.Name, Date: day, Location: r.Location}, nil
}

// errorResponse documents the envelope rendered by the API error handler.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
