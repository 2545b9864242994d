package identity

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"campus-relay/internal/auth"
	"campus-relay/internal/store"
)

// Resolver turns a live auth session into a Principal. On first sight of a
// principal with no profile row it auto-provisions one with the configured
// default role; on a store outage it falls back to that same role without
// writing anything, so the UI never hangs on an unreachable database.
type Resolver struct {
	profiles    store.ProfileStore
	defaultRole Role
	timeout     time.Duration

	mu      sync.RWMutex
	current *Principal
	loading bool

	unsub func()
}

func NewResolver(profiles store.ProfileStore, defaultRole Role, timeout time.Duration) *Resolver {
	if !defaultRole.Valid() {
		defaultRole = RoleStudent
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Resolver{
		profiles:    profiles,
		defaultRole: defaultRole,
		timeout:     timeout,
	}
}

// Start re-resolves on every auth-state change. Returns a stop func.
func (r *Resolver) Start(authSvc *auth.Service) func() {
	r.unsub = authSvc.OnAuthStateChange(func(sess *auth.Session) {
		r.Resolve(context.Background(), sess)
	})
	return func() {
		if r.unsub != nil {
			r.unsub()
		}
	}
}

// Lookup resolves a session to a Principal without touching the resolver's
// own state. A nil session resolves to the zero Principal.
func (r *Resolver) Lookup(ctx context.Context, sess *auth.Session) Principal {
	if sess == nil {
		return Principal{}
	}

	p, err := r.profiles.GetProfile(ctx, sess.PrincipalID)
	switch {
	case err == nil:
		return Principal{
			ID:          p.ID,
			DisplayName: p.FullName,
			Email:       p.Email,
			Role:        Normalize(p.Role),
			ClassOrDept: p.ClassOrDept,
		}
	case errors.Is(err, store.ErrNotFound):
		// First sight of this principal: provision a default profile so
		// message routing and notification fan-out have a row to target.
		prof := &store.Profile{
			ID:       sess.PrincipalID,
			Email:    sess.Email,
			FullName: displayNameFromEmail(sess.Email),
			Role:     string(r.defaultRole),
		}
		if ierr := r.profiles.InsertProfile(ctx, prof); ierr != nil {
			log.Printf("identity: auto-provision for %s failed: %v", sess.PrincipalID, ierr)
		}
		return Principal{
			ID:          prof.ID,
			DisplayName: prof.FullName,
			Email:       prof.Email,
			Role:        r.defaultRole,
		}
	default:
		// Store unreachable: fail soft with the default role, no insert.
		log.Printf("identity: profile lookup for %s failed: %v", sess.PrincipalID, err)
		return Principal{
			ID:          sess.PrincipalID,
			DisplayName: displayNameFromEmail(sess.Email),
			Email:       sess.Email,
			Role:        r.defaultRole,
		}
	}
}

// Resolve runs Lookup and updates the resolver's current principal. The
// lookup races a bounded timer: whichever finishes first clears the
// loading flag. The timer only unblocks the loading state — a late lookup
// result still lands, and the timer never overwrites a role that has
// already been set.
func (r *Resolver) Resolve(ctx context.Context, sess *auth.Session) Principal {
	if sess == nil {
		r.mu.Lock()
		r.current = nil
		r.loading = false
		r.mu.Unlock()
		return Principal{}
	}

	r.mu.Lock()
	r.loading = true
	r.mu.Unlock()

	done := make(chan Principal, 1)
	go func() {
		done <- r.Lookup(context.Background(), sess)
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case p := <-done:
		r.setCurrent(p)
		return p
	case <-timer.C:
	case <-ctx.Done():
	}

	// Lookup is still in flight. Unblock the loading state now and let the
	// result land whenever it arrives.
	r.mu.Lock()
	r.loading = false
	known := r.current
	r.mu.Unlock()

	go func() {
		r.setCurrent(<-done)
	}()

	if known != nil {
		return *known
	}
	return Principal{}
}

func (r *Resolver) setCurrent(p Principal) {
	r.mu.Lock()
	r.current = &p
	r.loading = false
	r.mu.Unlock()
}

// Current returns the last resolved principal, or false when logged out.
func (r *Resolver) Current() (Principal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return Principal{}, false
	}
	return *r.current, true
}

func (r *Resolver) CurrentRole() Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return ""
	}
	return r.current.Role
}

func (r *Resolver) Loading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loading
}

func displayNameFromEmail(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
