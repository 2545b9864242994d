package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-relay/internal/store"
)

func TestWatcherSeesExistingAndPushed(t *testing.T) {
	mem := store.NewMemory()
	svc := NewService(mem, mem)
	ctx := context.Background()

	svc.Notify(ctx, "u1", "first", "b", KindInfo)

	w := NewWatcher(svc, mem, "u1", time.Hour, 20)
	w.Start(ctx)
	defer w.Stop()

	assert.Equal(t, int64(1), w.Unread(), "initial fetch should see the existing row")

	svc.Notify(ctx, "u1", "second", "b", KindInfo)
	require.Eventually(t, func() bool { return w.Unread() == 2 },
		2*time.Second, 5*time.Millisecond, "pushed insert should land")

	recent := w.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "second", recent[0].Title, "recent list is newest first")
}

func TestWatcherIgnoresOtherRecipients(t *testing.T) {
	mem := store.NewMemory()
	svc := NewService(mem, mem)
	ctx := context.Background()

	w := NewWatcher(svc, mem, "u1", time.Hour, 20)
	w.Start(ctx)
	defer w.Stop()

	svc.Notify(ctx, "u2", "not yours", "b", KindInfo)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, w.Unread())
	assert.Empty(t, w.Recent())
}

func TestWatcherRefreshConvergesWithPush(t *testing.T) {
	mem := store.NewMemory()
	svc := NewService(mem, mem)
	ctx := context.Background()

	w := NewWatcher(svc, mem, "u1", time.Hour, 20)
	w.Start(ctx)
	defer w.Stop()

	svc.Notify(ctx, "u1", "t", "b", KindInfo)
	require.Eventually(t, func() bool { return w.Unread() == 1 },
		2*time.Second, 5*time.Millisecond)

	// A poll refresh covering the same row must not double count.
	w.refresh(ctx)
	assert.Equal(t, int64(1), w.Unread())
	assert.Len(t, w.Recent(), 1)
}

func TestWatcherChangeCallback(t *testing.T) {
	mem := store.NewMemory()
	svc := NewService(mem, mem)
	ctx := context.Background()

	w := NewWatcher(svc, mem, "u1", time.Hour, 20)
	got := make(chan int64, 8)
	w.SetChangeFunc(func(unread int64, recent []store.Notification) {
		got <- unread
	})
	w.Start(ctx)
	defer w.Stop()

	svc.Notify(ctx, "u1", "t", "b", KindInfo)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case n := <-got:
			if n == 1 {
				return
			}
		case <-deadline:
			t.Fatal("change callback never reported the new unread count")
		}
	}
}
