package message

import (
	"context"
	"errors"
	"strings"
	"testing"

	"campus-relay/internal/store"
)

func TestSendValidation(t *testing.T) {
	r := NewRouter(store.NewMemory(), 10)
	ctx := context.Background()

	if _, err := r.Send(ctx, "u1", Broadcast(), "   "); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("whitespace content: got %v, want ErrEmptyContent", err)
	}
	if _, err := r.Send(ctx, "u1", Broadcast(), strings.Repeat("x", 11)); !errors.Is(err, ErrTooLong) {
		t.Fatalf("long content: got %v, want ErrTooLong", err)
	}
	if _, err := r.Send(ctx, "u3", Direct("u1", "u2"), "hi"); !errors.Is(err, ErrNotMember) {
		t.Fatalf("outsider send: got %v, want ErrNotMember", err)
	}
}

func TestSendDerivesRecipient(t *testing.T) {
	mem := store.NewMemory()
	r := NewRouter(mem, 0)
	ctx := context.Background()

	m, err := r.Send(ctx, "u2", Direct("u1", "u2"), "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if m.RecipientID == nil || *m.RecipientID != "u1" {
		t.Fatalf("recipient should be the other member, got %v", m.RecipientID)
	}
	if m.ID == "" || m.CreatedAt.IsZero() {
		t.Fatal("insert should assign identity and timestamp")
	}

	b, err := r.Send(ctx, "u1", Broadcast(), "all hands")
	if err != nil {
		t.Fatalf("broadcast send: %v", err)
	}
	if b.RecipientID != nil {
		t.Fatal("broadcast message must have no recipient")
	}
}

func TestLoadRoutesByChannel(t *testing.T) {
	mem := store.NewMemory()
	r := NewRouter(mem, 0)
	ctx := context.Background()

	if _, err := r.Send(ctx, "u1", Direct("u1", "u2"), "direct"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := r.Send(ctx, "u1", Broadcast(), "broadcast"); err != nil {
		t.Fatalf("send: %v", err)
	}

	direct, err := r.Load(ctx, Direct("u2", "u1"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(direct) != 1 || direct[0].Content != "direct" {
		t.Fatalf("direct load = %+v", direct)
	}

	broadcast, err := r.Load(ctx, Broadcast())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(broadcast) != 1 || broadcast[0].Content != "broadcast" {
		t.Fatalf("broadcast load = %+v", broadcast)
	}
}
