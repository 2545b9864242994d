// Package auth is the authentication collaborator: it issues and verifies
// session tokens and tells listeners when the auth state changes. Who gets
// to sign in is decided upstream; this package only manages the session
// lifecycle once an identity has been established.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"campus-relay/internal/session"
)

var ErrNoSession = errors.New("no live session")

// Session is the opaque session object handed to the role resolver.
type Session struct {
	ID          string
	PrincipalID string
	Email       string
	ExpiresAt   time.Time
}

// Listener is called with the new session on sign-in and nil on sign-out.
type Listener func(*Session)

type Service struct {
	secret   string
	issuer   string
	tokenTTL time.Duration
	sessions session.Store

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

func NewService(secret, issuer string, tokenTTL time.Duration, sessions session.Store) *Service {
	return &Service{
		secret:    secret,
		issuer:    issuer,
		tokenTTL:  tokenTTL,
		sessions:  sessions,
		listeners: make(map[int]Listener),
	}
}

// SignIn records a live session for the given principal and returns the
// signed token. Callers are expected to have authenticated the principal
// already.
func (s *Service) SignIn(ctx context.Context, principalID, email string) (string, *Session, error) {
	id := uuid.NewString()
	rec := session.Record{PrincipalID: principalID, Email: email}
	if err := s.sessions.Save(ctx, id, rec, s.tokenTTL); err != nil {
		return "", nil, fmt.Errorf("save session: %w", err)
	}

	claims := Claims{PrincipalID: principalID, Email: email}
	claims.RegisteredClaims.ID = id
	token, err := NewToken(s.secret, s.issuer, s.tokenTTL, claims)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	sess := &Session{
		ID:          id,
		PrincipalID: principalID,
		Email:       email,
		ExpiresAt:   time.Now().UTC().Add(s.tokenTTL),
	}
	s.fire(sess)
	return token, sess, nil
}

// GetSession verifies the token and confirms the session has not been
// revoked. Returns ErrNoSession for anything that should be treated as
// logged out rather than as a failure.
func (s *Service) GetSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	claims, err := ParseToken(s.secret, token)
	if err != nil {
		return nil, ErrNoSession
	}
	if _, err := s.sessions.Lookup(ctx, claims.RegisteredClaims.ID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	return &Session{
		ID:          claims.RegisteredClaims.ID,
		PrincipalID: claims.PrincipalID,
		Email:       claims.Email,
		ExpiresAt:   claims.RegisteredClaims.ExpiresAt.Time,
	}, nil
}

// SignOut revokes the token's session and notifies listeners.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := ParseToken(s.secret, token)
	if err != nil {
		return ErrNoSession
	}
	if err := s.sessions.Revoke(ctx, claims.RegisteredClaims.ID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.fire(nil)
	return nil
}

// OnAuthStateChange registers fn for sign-in/sign-out events and returns
// an unsubscribe func.
func (s *Service) OnAuthStateChange(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Service) fire(sess *Session) {
	s.mu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(sess)
	}
}
