package store

import "context"

// Dead is a Store with no storage behind it: every read comes back empty,
// every write succeeds without effect, and the realtime feed never fires.
// It exists so a deployment with no database configured can still serve
// the UI instead of crashing. Only wired in when the operator explicitly
// opts in (allow_degraded), since it makes the school look empty.
type Dead struct {
	bus *Bus
}

func NewDead() *Dead {
	return &Dead{bus: NewBus()}
}

func (d *Dead) Subscribe(table string) *Subscription { return d.bus.Subscribe(table) }

func (d *Dead) GetProfile(ctx context.Context, id string) (*Profile, error) {
	return nil, ErrNotFound
}

func (d *Dead) GetProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	return nil, ErrNotFound
}

func (d *Dead) InsertProfile(ctx context.Context, p *Profile) error { return nil }

func (d *Dead) ListProfiles(ctx context.Context) ([]Profile, error) { return nil, nil }

func (d *Dead) InsertMessage(ctx context.Context, m *Message) error { return nil }

func (d *Dead) MessagesBetween(ctx context.Context, a, b string) ([]Message, error) {
	return nil, nil
}

func (d *Dead) BroadcastMessages(ctx context.Context) ([]Message, error) { return nil, nil }

func (d *Dead) InsertNotifications(ctx context.Context, rows []Notification) error { return nil }

func (d *Dead) RecentNotifications(ctx context.Context, recipientID string, limit int) ([]Notification, error) {
	return nil, nil
}

func (d *Dead) UnreadCount(ctx context.Context, recipientID string) (int64, error) { return 0, nil }

func (d *Dead) MarkAllRead(ctx context.Context, recipientID string) error { return nil }

func (d *Dead) StudentIDs(ctx context.Context) ([]string, error) { return nil, nil }

func (d *Dead) EmployeeIDs(ctx context.Context) ([]string, error) { return nil, nil }
