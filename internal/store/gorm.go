package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gorm is the sqlite-backed Store. Inserts publish on the realtime bus
// only after the database has acknowledged the row; this core never
// assumes a write took effect before that.
type Gorm struct {
	db  *gorm.DB
	bus *Bus
}

func NewGorm(db *gorm.DB, bus *Bus) *Gorm {
	return &Gorm{db: db, bus: bus}
}

func (s *Gorm) AutoMigrate() error {
	return s.db.AutoMigrate(
		&Profile{},
		&Message{},
		&Notification{},
		&Student{},
		&Employee{},
	)
}

func (s *Gorm) Subscribe(table string) *Subscription {
	return s.bus.Subscribe(table)
}

func (s *Gorm) GetProfile(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}
	return &p, nil
}

func (s *Gorm) GetProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	var p Profile
	err := s.db.WithContext(ctx).First(&p, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile by email: %w", err)
	}
	return &p, nil
}

func (s *Gorm) InsertProfile(ctx context.Context, p *Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *Gorm) ListProfiles(ctx context.Context) ([]Profile, error) {
	var out []Profile
	if err := s.db.WithContext(ctx).Order("full_name ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return out, nil
}

func (s *Gorm) InsertMessage(ctx context.Context, m *Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	row := *m
	s.bus.Publish(Event{Table: TableMessages, Kind: EventInsert, Message: &row})
	return nil
}

func (s *Gorm) MessagesBetween(ctx context.Context, a, b string) ([]Message, error) {
	var out []Message
	err := s.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("load direct messages: %w", err)
	}
	return out, nil
}

func (s *Gorm) BroadcastMessages(ctx context.Context) ([]Message, error) {
	var out []Message
	err := s.db.WithContext(ctx).
		Where("recipient_id IS NULL").
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("load broadcast messages: %w", err)
	}
	return out, nil
}

func (s *Gorm) InsertNotifications(ctx context.Context, rows []Notification) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
		if rows[i].CreatedAt.IsZero() {
			rows[i].CreatedAt = now
		}
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert notifications: %w", err)
	}
	for i := range rows {
		row := rows[i]
		s.bus.Publish(Event{Table: TableNotifications, Kind: EventInsert, Notification: &row})
	}
	return nil
}

func (s *Gorm) RecentNotifications(ctx context.Context, recipientID string, limit int) ([]Notification, error) {
	var out []Notification
	err := s.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("recent notifications: %w", err)
	}
	return out, nil
}

func (s *Gorm) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return n, nil
}

func (s *Gorm) MarkAllRead(ctx context.Context, recipientID string) error {
	err := s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

func (s *Gorm) StudentIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&Student{}).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("student ids: %w", err)
	}
	return ids, nil
}

func (s *Gorm) EmployeeIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&Employee{}).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("employee ids: %w", err)
	}
	return ids, nil
}
