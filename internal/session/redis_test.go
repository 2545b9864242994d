package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("redis store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	rec := Record{PrincipalID: "u1", Email: "u1@school.test"}
	if err := s.Save(ctx, "sess-1", rec, time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Lookup(ctx, "sess-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.PrincipalID != "u1" || got.Email != "u1@school.test" {
		t.Fatalf("lookup = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("save should stamp CreatedAt")
	}
}

func TestRedisStoreMissAndRevoke(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	if _, err := s.Lookup(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("miss: got %v, want ErrNotFound", err)
	}

	if err := s.Save(ctx, "sess-1", Record{PrincipalID: "u1"}, time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Revoke(ctx, "sess-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := s.Lookup(ctx, "sess-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after revoke: got %v, want ErrNotFound", err)
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "sess-1", Record{PrincipalID: "u1"}, time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := s.Lookup(ctx, "sess-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired session: got %v, want ErrNotFound", err)
	}
}

func TestRedisStoreBadURL(t *testing.T) {
	if _, err := NewRedisStore("not a url"); err == nil {
		t.Fatal("bad url should fail fast")
	}
}
