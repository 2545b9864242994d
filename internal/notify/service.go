// Package notify fans notifications out to recipients and tracks their
// read state. Delivery is a side-effect of other actions and is always
// best-effort: a failed notification never fails the action that
// triggered it.
package notify

import (
	"context"
	"fmt"
	"log"

	"campus-relay/internal/store"
)

const (
	KindInfo    = "info"
	KindAlert   = "alert"
	KindMessage = "message"
)

type Service struct {
	notifications store.NotificationStore
	roster        store.RosterStore
}

func NewService(notifications store.NotificationStore, roster store.RosterStore) *Service {
	return &Service{notifications: notifications, roster: roster}
}

// Notify inserts a single notification row for one recipient. Failures
// are logged and swallowed.
func (s *Service) Notify(ctx context.Context, recipientID, title, body, kind string) {
	if recipientID == "" {
		return
	}
	row := store.Notification{
		RecipientID: recipientID,
		Title:       title,
		Body:        body,
		Kind:        kind,
	}
	if err := s.notifications.InsertNotifications(ctx, []store.Notification{row}); err != nil {
		log.Printf("notify: send to %s failed: %v", recipientID, err)
	}
}

// BroadcastNotify fans one event out to every student and employee except
// the excluded sender, one unread row per recipient, in a single bulk
// insert. An empty recipient set is a no-op. Returns how many rows were
// written.
func (s *Service) BroadcastNotify(ctx context.Context, title, body, kind, excludeID string) int {
	students, err := s.roster.StudentIDs(ctx)
	if err != nil {
		log.Printf("notify: student roster unavailable: %v", err)
	}
	employees, err := s.roster.EmployeeIDs(ctx)
	if err != nil {
		log.Printf("notify: employee roster unavailable: %v", err)
	}

	seen := make(map[string]struct{})
	var rows []store.Notification
	for _, id := range append(students, employees...) {
		if id == "" || id == excludeID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		rows = append(rows, store.Notification{
			RecipientID: id,
			Title:       title,
			Body:        body,
			Kind:        kind,
		})
	}
	if len(rows) == 0 {
		return 0
	}
	if err := s.notifications.InsertNotifications(ctx, rows); err != nil {
		log.Printf("notify: broadcast insert failed: %v", err)
		return 0
	}
	return len(rows)
}

// MarkAllRead flips every unread row for the recipient to read. When
// nothing is unread the update is skipped entirely. Idempotent.
func (s *Service) MarkAllRead(ctx context.Context, recipientID string) error {
	n, err := s.notifications.UnreadCount(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	if n == 0 {
		return nil
	}
	return s.notifications.MarkAllRead(ctx, recipientID)
}

func (s *Service) FetchRecent(ctx context.Context, recipientID string, limit int) ([]store.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.notifications.RecentNotifications(ctx, recipientID, limit)
}

func (s *Service) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return s.notifications.UnreadCount(ctx, recipientID)
}
