package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"schoolleave/internal/model"
)

var ErrInvalidToken = errors.New("invalid session token")

// Claims is the signed payload of a session token.
type Claims struct {
	SessionID string `json:"sid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Manager keeps live sessions in memory. Nothing survives a restart, so every
// restart requires users to sign in again.
type Manager struct {
	secret   []byte
	ttl      time.Duration
	sessions *expirable.LRU[string, *Store]
}

// NewManager creates a manager holding at most capacity sessions for ttl each.
func NewManager(secret []byte, ttl time.Duration, capacity int) *Manager {
	onEvict := func(_ string, s *Store) { s.Logout() }
	return &Manager{
		secret:   secret,
		ttl:      ttl,
		sessions: expirable.NewLRU[string, *Store](capacity, onEvict, ttl),
	}
}

// TTL is the lifetime of a session and its token.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Open starts a session for an identity the verifier already accepted.
func (m *Manager) Open(identity model.Identity) (string, *Store, error) {
	sid := uuid.NewString()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SessionID: sid,
		Role:      string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sid,
			Subject:   strconv.FormatUint(uint64(identity.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	store := NewStore()
	store.Login(identity)
	m.sessions.Add(sid, store)
	return signed, store, nil
}

// Parse validates a token signature and expiry.
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Resume finds the store behind a token. Missing, invalid and unknown tokens
// resolve to an unauthenticated store. If ctx is already done the probe cannot
// run and the returned store stays initializing.
func (m *Manager) Resume(ctx context.Context, tokenString string) *Store {
	store := NewStore()
	if ctx.Err() != nil {
		return store
	}
	if tokenString == "" {
		store.Resolve(nil)
		return store
	}
	claims, err := m.Parse(tokenString)
	if err != nil {
		store.Resolve(nil)
		return store
	}
	live, ok := m.sessions.Get(claims.SessionID)
	if !ok {
		store.Resolve(nil)
		return store
	}
	return live
}

// Close ends the session behind a token. Unknown tokens are ignored.
func (m *Manager) Close(tokenString string) {
	claims, err := m.Parse(tokenString)
	if err != nil {
		return
	}
	if live, ok := m.sessions.Peek(claims.SessionID); ok {
		live.Logout()
	}
	m.sessions.Remove(claims.SessionID)
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	return m.sessions.Len()
}
