package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a map-backed Store with the same ordering and realtime
// semantics as the gorm implementation. Tests lean on it heavily; it is
// also handy for running the server without a database on disk.
type Memory struct {
	mu            sync.Mutex
	bus           *Bus
	profiles      map[string]Profile
	messages      []Message
	notifications []Notification
	students      []string
	employees     []string

	// Fail, when set, makes every store call return it. Lets tests
	// exercise the fail-soft paths without a real outage.
	Fail error
}

func NewMemory() *Memory {
	return &Memory{
		bus:      NewBus(),
		profiles: make(map[string]Profile),
	}
}

func (s *Memory) Subscribe(table string) *Subscription {
	return s.bus.Subscribe(table)
}

func (s *Memory) AddStudent(id string) {
	s.mu.Lock()
	s.students = append(s.students, id)
	s.mu.Unlock()
}

func (s *Memory) AddEmployee(id string) {
	s.mu.Lock()
	s.employees = append(s.employees, id)
	s.mu.Unlock()
}

func (s *Memory) GetProfile(ctx context.Context, id string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *Memory) GetProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	for _, p := range s.profiles {
		if p.Email == email {
			p := p
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) InsertProfile(ctx context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.profiles[p.ID] = *p
	return nil
}

func (s *Memory) ListProfiles(ctx context.Context) ([]Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	out := make([]Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

// ProfileCount reports how many profile rows exist; used by tests to check
// auto-provisioning happens exactly once.
func (s *Memory) ProfileCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles)
}

func (s *Memory) InsertMessage(ctx context.Context, m *Message) error {
	s.mu.Lock()
	if s.Fail != nil {
		s.mu.Unlock()
		return s.Fail
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.messages = append(s.messages, *m)
	row := *m
	s.mu.Unlock()
	s.bus.Publish(Event{Table: TableMessages, Kind: EventInsert, Message: &row})
	return nil
}

func sortMessages(out []Message) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
}

func (s *Memory) MessagesBetween(ctx context.Context, a, b string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	var out []Message
	for _, m := range s.messages {
		if m.RecipientID == nil {
			continue
		}
		r := *m.RecipientID
		if (m.SenderID == a && r == b) || (m.SenderID == b && r == a) {
			out = append(out, m)
		}
	}
	sortMessages(out)
	return out, nil
}

func (s *Memory) BroadcastMessages(ctx context.Context) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	var out []Message
	for _, m := range s.messages {
		if m.RecipientID == nil {
			out = append(out, m)
		}
	}
	sortMessages(out)
	return out, nil
}

func (s *Memory) InsertNotifications(ctx context.Context, rows []Notification) error {
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	if s.Fail != nil {
		s.mu.Unlock()
		return s.Fail
	}
	now := time.Now().UTC()
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
		if rows[i].CreatedAt.IsZero() {
			rows[i].CreatedAt = now
		}
		s.notifications = append(s.notifications, rows[i])
	}
	published := make([]Notification, len(rows))
	copy(published, rows)
	s.mu.Unlock()
	for i := range published {
		row := published[i]
		s.bus.Publish(Event{Table: TableNotifications, Kind: EventInsert, Notification: &row})
	}
	return nil
}

func (s *Memory) RecentNotifications(ctx context.Context, recipientID string, limit int) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	var out []Notification
	for _, n := range s.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Memory) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return 0, s.Fail
	}
	var n int64
	for _, row := range s.notifications {
		if row.RecipientID == recipientID && !row.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *Memory) MarkAllRead(ctx context.Context, recipientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	for i := range s.notifications {
		if s.notifications[i].RecipientID == recipientID {
			s.notifications[i].IsRead = true
		}
	}
	return nil
}

func (s *Memory) StudentIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	return append([]string(nil), s.students...), nil
}

func (s *Memory) EmployeeIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	return append([]string(nil), s.employees...), nil
}
