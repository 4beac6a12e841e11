// Package store defines the narrow persistence boundary used by submission.
// Backends live in subpackages; backend.New selects one from config.
package store

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/cases"

	"devthon-registration/internal/models"
)

// Gateway is the only side-effecting dependency of a submission.
type Gateway interface {
	// IsTeamNameTaken reports whether a registration with the same name,
	// compared case-insensitively, already exists.
	IsTeamNameTaken(ctx context.Context, name string) (bool, error)
	// Insert persists reg with payment_status pending and returns its id.
	Insert(ctx context.Context, reg models.Registration) (string, error)
}

// ErrTeamNameTaken is returned by backends that enforce uniqueness themselves.
var ErrTeamNameTaken = errors.New("team name is already taken")

// StoreError carries an underlying service failure. Its message is the
// underlying message, unchanged, so it can be shown to the user.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// NameKey is the comparison key for team names: trimmed and case folded.
// Casers are stateful, so one is built per call.
func NameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
