// Package store is the storage collaborator boundary: typed query/insert/
// update access over the relational tables plus a best-effort realtime
// feed of row inserts. Everything above this package works in terms of
// these interfaces; the gorm, memory and dead implementations are
// interchangeable.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("record not found")

type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*Profile, error)
	InsertProfile(ctx context.Context, p *Profile) error
	ListProfiles(ctx context.Context) ([]Profile, error)
}

type MessageStore interface {
	InsertMessage(ctx context.Context, m *Message) error
	// MessagesBetween returns both directions of the (a, b) pair,
	// ordered ascending by creation time.
	MessagesBetween(ctx context.Context, a, b string) ([]Message, error)
	// BroadcastMessages returns every message with a null recipient,
	// ordered ascending by creation time.
	BroadcastMessages(ctx context.Context) ([]Message, error)
}

type NotificationStore interface {
	InsertNotifications(ctx context.Context, rows []Notification) error
	RecentNotifications(ctx context.Context, recipientID string, limit int) ([]Notification, error)
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
	MarkAllRead(ctx context.Context, recipientID string) error
}

type RosterStore interface {
	StudentIDs(ctx context.Context) ([]string, error)
	EmployeeIDs(ctx context.Context) ([]string, error)
}

// Realtime is the push side of the store: a live feed of insert events.
// Delivery is best-effort; a slow subscriber loses events rather than
// blocking writers, and the poll path is expected to heal the gap.
type Realtime interface {
	Subscribe(table string) *Subscription
}

type Store interface {
	ProfileStore
	MessageStore
	NotificationStore
	RosterStore
	Realtime
}
