package notify

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"campus-relay/internal/store"
)

// Watcher keeps one recipient's badge count and recent list converged,
// with the same two-source discipline as the chat timeline: realtime
// insert events for immediacy, a poll for ground truth when events are
// missed.
type Watcher struct {
	svc         *Service
	realtime    store.Realtime
	recipientID string
	interval    time.Duration
	limit       int

	mu     sync.Mutex
	recent []store.Notification
	unread int64

	sub    *store.Subscription
	cancel context.CancelFunc
	wg     sync.WaitGroup

	onChange func(unread int64, recent []store.Notification)
}

func NewWatcher(svc *Service, realtime store.Realtime, recipientID string, interval time.Duration, limit int) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if limit <= 0 {
		limit = 20
	}
	return &Watcher{
		svc:         svc,
		realtime:    realtime,
		recipientID: recipientID,
		interval:    interval,
		limit:       limit,
	}
}

func (w *Watcher) SetChangeFunc(fn func(unread int64, recent []store.Notification)) {
	w.mu.Lock()
	w.onChange = fn
	w.mu.Unlock()
}

// Start does an initial fetch, then runs the push and poll loops until
// Stop. A failed initial fetch is healed by the first poll tick.
func (w *Watcher) Start(ctx context.Context) {
	sub := w.realtime.Subscribe(store.TableNotifications)
	runCtx, cancel := context.WithCancel(context.Background())

	w.mu.Lock()
	w.sub = sub
	w.cancel = cancel
	w.mu.Unlock()

	w.refresh(ctx)

	w.wg.Add(2)
	go w.pushLoop(runCtx, sub)
	go w.pollLoop(runCtx)
}

func (w *Watcher) Stop() {
	w.mu.Lock()
	sub, cancel := w.sub, w.cancel
	w.sub, w.cancel = nil, nil
	w.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

func (w *Watcher) pushLoop(ctx context.Context, sub *store.Subscription) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if ev.Kind != store.EventInsert || ev.Notification == nil {
				continue
			}
			if ev.Notification.RecipientID != w.recipientID {
				continue
			}
			w.applyPush(*ev.Notification)
		}
	}
}

func (w *Watcher) pollLoop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

// refresh replaces the materialized state with the store's answer.
func (w *Watcher) refresh(ctx context.Context) {
	recent, err := w.svc.FetchRecent(ctx, w.recipientID, w.limit)
	if err != nil {
		log.Printf("notify: watcher fetch for %s failed: %v", w.recipientID, err)
		return
	}
	unread, err := w.svc.UnreadCount(ctx, w.recipientID)
	if err != nil {
		log.Printf("notify: watcher count for %s failed: %v", w.recipientID, err)
		return
	}

	w.mu.Lock()
	w.recent = recent
	w.unread = unread
	snapshot, fn := w.snapshotLocked()
	w.mu.Unlock()
	w.notifyChange(fn, unread, snapshot)
}

func (w *Watcher) applyPush(n store.Notification) {
	w.mu.Lock()
	for _, existing := range w.recent {
		if existing.ID == n.ID {
			w.mu.Unlock()
			return
		}
	}
	w.recent = append(w.recent, n)
	sort.Slice(w.recent, func(i, j int) bool {
		if !w.recent[i].CreatedAt.Equal(w.recent[j].CreatedAt) {
			return w.recent[i].CreatedAt.After(w.recent[j].CreatedAt)
		}
		return w.recent[i].ID > w.recent[j].ID
	})
	if len(w.recent) > w.limit {
		w.recent = w.recent[:w.limit]
	}
	if !n.IsRead {
		w.unread++
	}
	unread := w.unread
	snapshot, fn := w.snapshotLocked()
	w.mu.Unlock()
	w.notifyChange(fn, unread, snapshot)
}

func (w *Watcher) snapshotLocked() ([]store.Notification, func(int64, []store.Notification)) {
	snapshot := make([]store.Notification, len(w.recent))
	copy(snapshot, w.recent)
	return snapshot, w.onChange
}

func (w *Watcher) notifyChange(fn func(int64, []store.Notification), unread int64, recent []store.Notification) {
	if fn != nil {
		fn(unread, recent)
	}
}

func (w *Watcher) Unread() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.unread
}

func (w *Watcher) Recent() []store.Notification {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]store.Notification, len(w.recent))
	copy(out, w.recent)
	return out
}
