package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"campus-relay/internal/auth"
	"campus-relay/internal/session"
	"campus-relay/internal/store"
)

func TestLookupResolvesExistingProfile(t *testing.T) {
	mem := store.NewMemory()
	err := mem.InsertProfile(context.Background(), &store.Profile{
		ID:       "u1",
		Email:    "t@school.test",
		FullName: "Ms Taylor",
		Role:     "teacher",
	})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	r := NewResolver(mem, RoleAdmin, time.Second)
	p := r.Lookup(context.Background(), &auth.Session{PrincipalID: "u1", Email: "t@school.test"})
	if p.Role != RoleTeacher {
		t.Fatalf("role = %s, want teacher", p.Role)
	}
	if p.DisplayName != "Ms Taylor" {
		t.Fatalf("display name = %s", p.DisplayName)
	}
}

func TestLookupAutoProvisionsOnce(t *testing.T) {
	mem := store.NewMemory()
	r := NewResolver(mem, RoleAdmin, time.Second)
	sess := &auth.Session{PrincipalID: "new-1", Email: "head@school.test"}

	p := r.Lookup(context.Background(), sess)
	if p.Role != RoleAdmin {
		t.Fatalf("role = %s, want the default role", p.Role)
	}
	if p.DisplayName != "head" {
		t.Fatalf("display name = %s, want the email local part", p.DisplayName)
	}
	if mem.ProfileCount() != 1 {
		t.Fatalf("profile count = %d, want exactly one provisioned row", mem.ProfileCount())
	}

	r.Lookup(context.Background(), sess)
	if mem.ProfileCount() != 1 {
		t.Fatalf("profile count = %d after second lookup, provisioning is not idempotent", mem.ProfileCount())
	}
}

func TestLookupFailsSoftOnStoreOutage(t *testing.T) {
	mem := store.NewMemory()
	mem.Fail = errors.New("store down")
	r := NewResolver(mem, RoleAdmin, time.Second)

	p := r.Lookup(context.Background(), &auth.Session{PrincipalID: "u1", Email: "x@school.test"})
	if p.Role != RoleAdmin {
		t.Fatalf("role = %s, want default role on outage", p.Role)
	}

	mem.Fail = nil
	if mem.ProfileCount() != 0 {
		t.Fatal("an outage must not write a provisional profile")
	}
}

func TestLookupNormalizesUnknownRole(t *testing.T) {
	mem := store.NewMemory()
	if err := mem.InsertProfile(context.Background(), &store.Profile{ID: "u1", Role: "superuser"}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	r := NewResolver(mem, RoleAdmin, time.Second)
	p := r.Lookup(context.Background(), &auth.Session{PrincipalID: "u1"})
	if p.Role != RoleStudent {
		t.Fatalf("role = %s, unknown stored roles must collapse to student", p.Role)
	}
}

// slowProfiles never answers before the resolver's timeout.
type slowProfiles struct {
	store.ProfileStore
	release chan struct{}
}

func (s *slowProfiles) GetProfile(ctx context.Context, id string) (*store.Profile, error) {
	<-s.release
	return s.ProfileStore.GetProfile(ctx, id)
}

func TestResolveTimeoutUnblocksLoading(t *testing.T) {
	mem := store.NewMemory()
	if err := mem.InsertProfile(context.Background(), &store.Profile{ID: "u1", Role: "teacher"}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	slow := &slowProfiles{ProfileStore: mem, release: make(chan struct{})}

	r := NewResolver(slow, RoleAdmin, 20*time.Millisecond)
	sess := &auth.Session{PrincipalID: "u1", Email: "t@school.test"}

	done := make(chan Principal, 1)
	go func() { done <- r.Resolve(context.Background(), sess) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Resolve did not return after the timeout")
	}
	if r.Loading() {
		t.Fatal("loading flag must clear on timeout")
	}

	// The late lookup result still lands once the store answers.
	close(slow.release)
	deadline := time.Now().Add(2 * time.Second)
	for {
		if role := r.CurrentRole(); role == RoleTeacher {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("late result never landed, role = %s", r.CurrentRole())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestResolveNilSessionClearsState(t *testing.T) {
	mem := store.NewMemory()
	r := NewResolver(mem, RoleAdmin, time.Second)

	r.Resolve(context.Background(), &auth.Session{PrincipalID: "u1", Email: "x@school.test"})
	if _, ok := r.Current(); !ok {
		t.Fatal("resolve should set the current principal")
	}

	r.Resolve(context.Background(), nil)
	if _, ok := r.Current(); ok {
		t.Fatal("nil session must clear the current principal")
	}
	if r.Loading() {
		t.Fatal("loading must be false after sign-out")
	}
}

func TestResolverFollowsAuthState(t *testing.T) {
	mem := store.NewMemory()
	authSvc := auth.NewService("secret", "campus-relay", time.Hour, session.NewMemoryStore())

	r := NewResolver(mem, RoleAdmin, time.Second)
	stop := r.Start(authSvc)
	defer stop()

	if _, _, err := authSvc.SignIn(context.Background(), "u1", "a@school.test"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if role := r.CurrentRole(); role != RoleAdmin {
		t.Fatalf("role after sign-in = %s", role)
	}
}
