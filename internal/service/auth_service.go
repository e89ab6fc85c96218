package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"schoolleave/internal/model"
	"schoolleave/internal/repository"
	"schoolleave/internal/session"
)

type LoginRequest struct {
	StudentID string `json:"studentId" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

// LoginResult carries the session token and where the client should land.
type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      model.Identity `json:"user"`
	Redirect  string         `json:"redirect"`
}

// CredentialVerifier checks a login identifier and secret.
type CredentialVerifier interface {
	Verify(ctx context.Context, identifier, secret string) (model.Identity, error)
}

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, token string)
	Me(ctx context.Context, identity model.Identity) (*UserResponse, error)
}

type authService struct {
	verifier CredentialVerifier
	sessions *session.Manager
	users    repository.UserRepository
}

func NewAuthService(verifier CredentialVerifier, sessions *session.Manager, users repository.UserRepository) AuthService {
	return &authService{verifier: verifier, sessions: sessions, users: users}
}

// Login verifies the credentials and opens a session. Verifier errors are
// returned unchanged so callers can tell them apart.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	identity, err := s.verifier.Verify(ctx, req.StudentID, req.Password)
	if err != nil {
		return nil, err
	}

	token, _, err := s.sessions.Open(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: time.Now().Add(s.sessions.TTL()),
		User:      identity,
		Redirect:  identity.Role.HomePath(),
	}, nil
}

func (s *authService) Logout(_ context.Context, token string) {
	if token != "" {
		s.sessions.Close(token)
	}
}

// Me returns the profile behind the session. Accounts that live only in a
// remote directory are described by the identity alone.
func (s *authService) Me(ctx context.Context, identity model.Identity) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, identity.ID)
	if err == nil && user.StudentID == identity.Username {
		return mapToResponse(user), nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &UserResponse{
		ID:        identity.ID,
		StudentID: identity.Username,
		Role:      string(identity.Role),
		Profile:   Profile{Department: identity.Department, Classroom: identity.Classroom},
	}, nil
}
