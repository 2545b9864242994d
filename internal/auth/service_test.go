package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"campus-relay/internal/session"
)

func newTestService() *Service {
	return NewService("secret", "campus-relay", time.Hour, session.NewMemoryStore())
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewToken("secret", "campus-relay", time.Minute, Claims{
		PrincipalID: "u1",
		Email:       "u1@school.test",
	})
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.PrincipalID != "u1" || claims.Email != "u1@school.test" {
		t.Fatalf("claims = %+v", claims)
	}

	if _, err := ParseToken("wrong", token); err == nil {
		t.Fatal("wrong secret should fail verification")
	}
}

func TestSignInAndGetSession(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	token, sess, err := svc.SignIn(ctx, "u1", "u1@school.test")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if sess.PrincipalID != "u1" {
		t.Fatalf("session = %+v", sess)
	}

	got, err := svc.GetSession(ctx, token)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.PrincipalID != "u1" || got.ID != sess.ID {
		t.Fatalf("got = %+v", got)
	}
}

func TestGetSessionRejectsGarbage(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, ""); !errors.Is(err, ErrNoSession) {
		t.Fatalf("empty token: got %v, want ErrNoSession", err)
	}
	if _, err := svc.GetSession(ctx, "not-a-jwt"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("garbage token: got %v, want ErrNoSession", err)
	}
}

func TestSignOutRevokes(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	token, _, err := svc.SignIn(ctx, "u1", "u1@school.test")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if err := svc.SignOut(ctx, token); err != nil {
		t.Fatalf("sign out: %v", err)
	}

	// Token is still cryptographically valid but the session is gone.
	if _, err := svc.GetSession(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("after sign-out: got %v, want ErrNoSession", err)
	}
}

func TestAuthStateListeners(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	var events []*Session
	unsub := svc.OnAuthStateChange(func(sess *Session) {
		events = append(events, sess)
	})

	token, _, err := svc.SignIn(ctx, "u1", "u1@school.test")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if err := svc.SignOut(ctx, token); err != nil {
		t.Fatalf("sign out: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want sign-in then sign-out", len(events))
	}
	if events[0] == nil || events[0].PrincipalID != "u1" {
		t.Fatalf("sign-in event = %+v", events[0])
	}
	if events[1] != nil {
		t.Fatalf("sign-out event = %+v, want nil", events[1])
	}

	unsub()
	if _, _, err := svc.SignIn(ctx, "u2", "u2@school.test"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if len(events) != 2 {
		t.Fatal("unsubscribed listener still fired")
	}
}
