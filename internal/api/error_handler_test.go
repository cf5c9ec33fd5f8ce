package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eventsphere/eventsphere/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "not found carries lookup detail",
			err:      fmt.Errorf("fetch event: %w", domain.NotFound("Event", "id", "42")),
			wantCode: http.StatusNotFound,
			wantMsg:  "Event not found with the given input data id : '42'",
		},
		{
			name:     "bare not found",
			err:      domain.ErrResourceNotFound,
			wantCode: http.StatusNotFound,
			wantMsg:  "resource not found",
		},
		{
			name:     "duplicate",
			err:      domain.AlreadyExists("Event already exists with given infos %s : %s : %s", "a", "b", "c"),
			wantCode: http.StatusConflict,
			wantMsg:  "Event already exists with given infos a : b : c",
		},
		{
			name:     "invalid credentials",
			err:      fmt.Errorf("login: %w", domain.ErrInvalidCredentials),
			wantCode: http.StatusUnauthorized,
			wantMsg:  "invalid credentials",
		},
		{
			name:     "forbidden",
			err:      domain.ErrForbidden,
			wantCode: http.StatusForbidden,
			wantMsg:  "access forbidden",
		},
		{
			name:     "echo error",
			err:      echo.NewHTTPError(http.StatusBadRequest, "invalid payload"),
			wantCode: http.StatusBadRequest,
			wantMsg:  "invalid payload",
		},
		{
			name:     "unexpected error is masked",
			err:      errors.New("disk on fire"),
			wantCode: http.StatusInternalServerError,
			wantMsg:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			NewHTTPErrorHandler(zerolog.New(io.Discard))(tt.err, c)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error != tt.wantMsg {
				t.Fatalf("expected %q, got %q", tt.wantMsg, body.Error)
			}
		})
	}
}

func TestHTTPErrorHandler_ValidationFields(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := &domain.ValidationError{Fields: map[string]string{"date": "date must be in the future"}}
	NewHTTPErrorHandler(zerolog.New(io.Discard))(err, c)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Fields["date"] != "date must be in the future" {
		t.Fatalf("unexpected fields: %v", body.Fields)
	}
}

func TestHTTPErrorHandler_CommittedResponse(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = c.NoContent(http.StatusNoContent)
	NewHTTPErrorHandler(zerolog.New(io.Discard))(errors.New("late"), c)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 to stand, got %d", rec.Code)
	}
}
