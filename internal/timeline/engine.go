// Package timeline keeps an in-memory ordered view of one chat channel
// converged against an unreliable push feed. Two producers feed the same
// buffer: realtime insert events (fast, lossy) and a periodic full
// re-fetch (slow, authoritative). Merging is by message identity, so the
// two can interleave in any order.
package timeline

import (
	"context"
	"log"
	"sync"
	"time"

	"campus-relay/internal/message"
	"campus-relay/internal/store"
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateLive
	StateClosed
)

// Loader is the pull side, normally the message router's Load.
type Loader interface {
	Load(ctx context.Context, ch message.Channel) ([]store.Message, error)
}

// Engine materializes the timeline for at most one active channel.
// Switching channels discards the old buffer; a generation counter keeps
// late results from a previous activation out of the new buffer.
type Engine struct {
	loader   Loader
	realtime store.Realtime
	interval time.Duration

	mu       sync.Mutex
	state    State
	channel  message.Channel
	timeline []store.Message
	gen      uint64

	sub    *store.Subscription
	cancel context.CancelFunc
	wg     sync.WaitGroup

	onUpdate func([]store.Message)
}

func NewEngine(loader Loader, realtime store.Realtime, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Engine{
		loader:   loader,
		realtime: realtime,
		interval: interval,
	}
}

// SetUpdateFunc registers a callback invoked with a fresh snapshot after
// every timeline change. Set it before Activate.
func (e *Engine) SetUpdateFunc(fn func([]store.Message)) {
	e.mu.Lock()
	e.onUpdate = fn
	e.mu.Unlock()
}

// Activate makes ch the active channel: tears down the previous channel's
// push subscription and poller, clears the buffer, runs the initial load,
// then goes Live with both update sources running. A failed initial load
// still transitions to Live — the next poll tick retries.
func (e *Engine) Activate(ctx context.Context, ch message.Channel) error {
	e.deactivate()

	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return nil
	}
	e.gen++
	gen := e.gen
	e.channel = ch
	e.timeline = nil
	e.state = StateLoading
	e.mu.Unlock()

	// Subscribe before the initial fetch so nothing falls into the gap
	// between them; the merge discipline makes the overlap harmless.
	sub := e.realtime.Subscribe(store.TableMessages)
	runCtx, cancel := context.WithCancel(context.Background())

	e.mu.Lock()
	e.sub = sub
	e.cancel = cancel
	e.mu.Unlock()

	msgs, err := e.loader.Load(ctx, ch)
	if err != nil {
		log.Printf("timeline: initial load of %s failed: %v", ch, err)
		msgs = nil
	}
	e.applyFetch(gen, msgs)

	e.wg.Add(2)
	go e.pushLoop(runCtx, gen, ch, sub)
	go e.pollLoop(runCtx, gen, ch)
	return err
}

// Deactivate returns the engine to Idle, discarding the buffer. The push
// subscription is cancelled before the poll timer so neither source can
// write once teardown has begun; callers may start a new Activate
// immediately after.
func (e *Engine) Deactivate() {
	e.deactivate()
}

// Close tears the engine down for good.
func (e *Engine) Close() {
	e.deactivate()
	e.mu.Lock()
	e.state = StateClosed
	e.mu.Unlock()
}

func (e *Engine) deactivate() {
	e.mu.Lock()
	sub, cancel := e.sub, e.cancel
	e.sub, e.cancel = nil, nil
	e.timeline = nil
	if e.state != StateClosed {
		e.state = StateIdle
	}
	e.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
}

func (e *Engine) pushLoop(ctx context.Context, gen uint64, ch message.Channel, sub *store.Subscription) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if ev.Kind != store.EventInsert || ev.Message == nil {
				continue
			}
			// The subscription is table-wide, not channel-filtered:
			// apply the membership test before accepting.
			if !ch.Contains(*ev.Message) {
				continue
			}
			e.applyPush(gen, *ev.Message)
		}
	}
}

func (e *Engine) pollLoop(ctx context.Context, gen uint64, ch message.Channel) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msgs, err := e.loader.Load(ctx, ch)
			if err != nil {
				// Background polls swallow transient errors; the next
				// tick retries.
				log.Printf("timeline: poll of %s failed: %v", ch, err)
				continue
			}
			e.applyFetch(gen, msgs)
		}
	}
}

// applyFetch merges an authoritative fetch into the buffer. Anything
// pushed since the fetch left survives the merge.
func (e *Engine) applyFetch(gen uint64, msgs []store.Message) {
	e.mu.Lock()
	if gen != e.gen || e.state == StateClosed {
		e.mu.Unlock()
		return
	}
	e.timeline = Merge(msgs, e.timeline)
	e.state = StateLive
	snapshot, fn := e.snapshotLocked()
	e.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
}

func (e *Engine) applyPush(gen uint64, m store.Message) {
	e.mu.Lock()
	if gen != e.gen || e.state == StateClosed {
		e.mu.Unlock()
		return
	}
	before := len(e.timeline)
	e.timeline = InsertSorted(e.timeline, m)
	if len(e.timeline) == before { // duplicate
		e.mu.Unlock()
		return
	}
	snapshot, fn := e.snapshotLocked()
	e.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
}

func (e *Engine) snapshotLocked() ([]store.Message, func([]store.Message)) {
	snapshot := make([]store.Message, len(e.timeline))
	copy(snapshot, e.timeline)
	return snapshot, e.onUpdate
}

// Timeline returns a copy of the materialized timeline.
func (e *Engine) Timeline() []store.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]store.Message, len(e.timeline))
	copy(out, e.timeline)
	return out
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ActiveChannel returns the channel the engine is serving, if any.
func (e *Engine) ActiveChannel() (message.Channel, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateLoading && e.state != StateLive {
		return message.Channel{}, false
	}
	return e.channel, true
}
