// Package session provides storage backends for live login sessions.
package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found or expired")

// Record is what we keep per live session, keyed by the token's JTI.
type Record struct {
	PrincipalID string    `json:"principal_id"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
}

type Store interface {
	Save(ctx context.Context, id string, rec Record, ttl time.Duration) error
	Lookup(ctx context.Context, id string) (Record, error)
	Revoke(ctx context.Context, id string) error
}
