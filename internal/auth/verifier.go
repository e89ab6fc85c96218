// Package auth verifies login credentials against the user directory.
package auth

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"schoolleave/internal/directory"
	"schoolleave/internal/metrics"
	"schoolleave/internal/model"
)

var (
	ErrIdentifierNotFound   = errors.New("identifier not found")
	ErrSecretMismatch       = errors.New("secret mismatch")
	ErrDirectoryUnreachable = errors.New("directory unreachable")
	ErrRoleNotRecognized    = errors.New("role not recognized")
)

// Login results as reported to metrics.
const (
	ResultSuccess              = "success"
	ResultIdentifierNotFound   = "identifier_not_found"
	ResultSecretMismatch       = "secret_mismatch"
	ResultDirectoryUnreachable = "directory_unreachable"
	ResultRoleNotRecognized    = "role_not_recognized"
)

// Verifier checks an identifier and plaintext secret. Attempts are never
// throttled or locked out.
type Verifier struct {
	dir     directory.Directory
	metrics metrics.Recorder
	log     *slog.Logger
}

func NewVerifier(dir directory.Directory, rec metrics.Recorder, log *slog.Logger) *Verifier {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Verifier{dir: dir, metrics: rec, log: log}
}

// Verify returns the identity of the account whose identifier matches exactly
// and whose stored bcrypt digest matches secret.
func (v *Verifier) Verify(ctx context.Context, identifier, secret string) (model.Identity, error) {
	user, err := v.dir.Lookup(ctx, identifier)
	if errors.Is(err, directory.ErrNotFound) {
		v.metrics.RecordLogin(ResultIdentifierNotFound)
		return model.Identity{}, ErrIdentifierNotFound
	}
	if err != nil {
		v.log.Error("directory lookup failed", "error", err)
		v.metrics.RecordLogin(ResultDirectoryUnreachable)
		return model.Identity{}, ErrDirectoryUnreachable
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(secret)); err != nil {
		v.metrics.RecordLogin(ResultSecretMismatch)
		return model.Identity{}, ErrSecretMismatch
	}

	if !user.Role.Valid() {
		v.log.Warn("account has an unrecognized role", "student_id", identifier, "role", string(user.Role))
		v.metrics.RecordLogin(ResultRoleNotRecognized)
		return model.Identity{}, ErrRoleNotRecognized
	}

	v.metrics.RecordLogin(ResultSuccess)
	return user.Identity(), nil
}
