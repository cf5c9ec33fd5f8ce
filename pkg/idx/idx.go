// Package idx generates entity identifiers: ULIDs rendered as 26-character
// strings, so ids sort by creation time in both storage drivers.
package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrInvalid reports a malformed id.
var ErrInvalid = errors.New("idx: invalid id")

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns a fresh id for the current time.
func New() string {
	return NewAt(time.Now().UTC())
}

// NewAt returns a fresh id stamped with t.
func NewAt(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Parse validates s and returns it in canonical upper-case form.
func Parse(s string) (string, error) {
	s = strings.TrimSpace(s)
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return "", ErrInvalid
	}
	return u.String(), nil
}

// Valid reports whether s is a well-formed id.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}
