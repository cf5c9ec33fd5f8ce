package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrResourceNotFound   = errors.New("resource not found")
	ErrDataAlreadyExists  = errors.New("data already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
	ErrValidation         = errors.New("validation failed")
)

// ResourceNotFoundError describes which lookup came back empty.
type ResourceNotFoundError struct {
	Resource string
	Field    string
	Value    string
}

// NotFound builds a ResourceNotFoundError.
func NotFound(resource, field, value string) error {
	return &ResourceNotFoundError{Resource: resource, Field: field, Value: value}
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("%s not found with the given input data %s : '%s'", e.Resource, e.Field, e.Value)
}

func (e *ResourceNotFoundError) Unwrap() error { return ErrResourceNotFound }

// AlreadyExistsError carries a user-facing message for a duplicate-key rejection.
type AlreadyExistsError struct {
	Message string
}

// AlreadyExists builds an AlreadyExistsError with a formatted message.
func AlreadyExists(format string, args ...any) error {
	return &AlreadyExistsError{Message: fmt.Sprintf(format, args...)}
}

func (e *AlreadyExistsError) Error() string { return e.Message }

func (e *AlreadyExistsError) Unwrap() error { return ErrDataAlreadyExists }

// ValidationError reports structural input violations per field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
