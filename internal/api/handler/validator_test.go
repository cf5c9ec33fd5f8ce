package handler

import (
	"errors"
	"testing"
	"time"

	"github.com/eventsphere/eventsphere/internal/core/domain"
)

func TestValidator_FutureDate(t *testing.T) {
	v := newValidator(func() time.Time { return fixedNow })

	tests := []struct {
		date string
		ok   bool
	}{
		{"2026-03-11", true},
		{"2027-01-01", true},
		{"2026-03-10", false}, // today
		{"2026-03-09", false},
		{"10.03.2027", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			err := v.Validate(&eventRequest{Name: "Meetup", Date: tt.date, Location: "Berlin"})
			if tt.ok && err != nil {
				t.Fatalf("expected %q to pass, got %v", tt.date, err)
			}
			if !tt.ok {
				var ve *domain.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("expected ValidationError for %q, got %v", tt.date, err)
				}
				if _, ok := ve.Fields["date"]; !ok {
					t.Fatalf("expected date violation, got %v", ve.Fields)
				}
			}
		})
	}
}

func TestValidator_BlankFields(t *testing.T) {
	v := newValidator(func() time.Time { return fixedNow })

	err := v.Validate(&eventRequest{Date: "2027-01-01"})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Fields["name"] != "name must not be blank" {
		t.Fatalf("unexpected name message: %q", ve.Fields["name"])
	}
	if ve.Fields["location"] != "location must not be blank" {
		t.Fatalf("unexpected location message: %q", ve.Fields["location"])
	}
}

func TestValidator_StrongPassword(t *testing.T) {
	v := newValidator(func() time.Time { return fixedNow })

	req := &registerRequest{
		Username:        "alice",
		Email:           "alice@example.com",
		ConfirmEmail:    "alice@example.com",
		Password:        "QWERTY",
		ConfirmPassword: "QWERTY",
	}
	err := v.Validate(req)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Fields["password"] != "please choose a strong password" {
		t.Fatalf("unexpected password message: %q", ve.Fields["password"])
	}
}
