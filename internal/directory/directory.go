// Package directory looks up user accounts by login identifier.
package directory

import (
	"context"
	"errors"

	"schoolleave/internal/model"
)

// ErrNotFound means no account carries the identifier.
var ErrNotFound = errors.New("identifier not found in directory")

// Directory is the source of accounts the credential verifier consults.
// Lookup matches the identifier exactly and returns the first match.
type Directory interface {
	Lookup(ctx context.Context, studentID string) (*model.User, error)
}
