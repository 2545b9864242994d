package store

import (
	"log"
	"sync"
	"sync/atomic"
)

// subscriptionBuffer bounds how far a subscriber may fall behind before
// events are dropped on the floor.
const subscriptionBuffer = 64

type EventKind string

const EventInsert EventKind = "INSERT"

// Event describes one row insert. Exactly one of the payload fields is set,
// matching Table.
type Event struct {
	Table        string
	Kind         EventKind
	Message      *Message
	Notification *Notification
}

// Subscription is a handle on the realtime feed. Events arrive on C; Cancel
// detaches the subscriber and closes C. Cancel is idempotent.
type Subscription struct {
	C chan Event

	bus   *Bus
	table string
	once  sync.Once
}

func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.bus.remove(s)
	})
}

// Bus is the in-process realtime dispatcher. Store implementations publish
// an event after every acknowledged insert; subscribers receive them on
// buffered channels. A full buffer drops the event rather than blocking the
// write path, so subscribers must treat the feed as lossy.
type Bus struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	dropped int64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a subscriber for inserts on table. An empty table
// subscribes to every event.
func (b *Bus) Subscribe(table string) *Subscription {
	s := &Subscription{
		C:     make(chan Event, subscriptionBuffer),
		bus:   b,
		table: table,
	}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; !ok {
		return
	}
	delete(b.subs, s)
	close(s.C)
}

func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		if s.table != "" && s.table != ev.Table {
			continue
		}
		select {
		case s.C <- ev:
		default:
			atomic.AddInt64(&b.dropped, 1)
			log.Printf("realtime: subscriber buffer full, dropping %s event", ev.Table)
		}
	}
}

// Dropped reports how many events have been discarded since startup.
func (b *Bus) Dropped() int64 {
	return atomic.LoadInt64(&b.dropped)
}
