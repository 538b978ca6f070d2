// Package session holds the signed-in identity for one browser session or
// live connection. A Session is created per request and never shared
// process-wide.
package session

import (
	"context"
	"sync"

	"github.com/nexxacraft/community-admin/internal/auth"
)

// State is a point-in-time view of the session.
type State struct {
	User    *auth.Identity
	Loading bool
}

func (s State) Authenticated() bool { return !s.Loading && s.User != nil }

type Session struct {
	gw auth.Gateway

	mu        sync.Mutex
	user      *auth.Identity
	loading   bool
	started   bool
	stopGW    func()
	nextWatch int
	watchers  map[int]func(State)
	closeOnce sync.Once
}

// New returns a session in the loading state. Call Start to subscribe to the
// gateway and Close to release it.
func New(gw auth.Gateway) *Session {
	return &Session{gw: gw, loading: true, watchers: make(map[int]func(State))}
}

// Start subscribes to identity changes. Calling it again is a no-op.
func (s *Session) Start() *Session {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return s
	}
	s.started = true
	s.mu.Unlock()

	stop := s.gw.OnIdentityChange(s.onIdentity)

	s.mu.Lock()
	s.stopGW = stop
	s.mu.Unlock()
	return s
}

// Close unsubscribes from the gateway. It is idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		stop := s.stopGW
		s.stopGW = nil
		s.watchers = make(map[int]func(State))
		s.mu.Unlock()
		if stop != nil {
			stop()
		}
	})
}

func (s *Session) onIdentity(id *auth.Identity) {
	s.mu.Lock()
	s.user = id
	s.loading = false
	st := State{User: s.user, Loading: s.loading}
	fns := make([]func(State), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{User: s.user, Loading: s.loading}
}

func (s *Session) CurrentUser() *auth.Identity { return s.State().User }

func (s *Session) Loading() bool { return s.State().Loading }

// Login surfaces the gateway's rejection unchanged and does not retry. On
// success the gateway's identity event updates the session.
func (s *Session) Login(ctx context.Context, email, password string) (*auth.Identity, error) {
	return s.gw.SignIn(ctx, email, password)
}

// Logout signs out at the gateway and clears the current user.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.gw.SignOut(ctx); err != nil {
		return err
	}
	s.onIdentity(nil)
	return nil
}

func (s *Session) SendPasswordReset(ctx context.Context, email string) error {
	return s.gw.SendPasswordReset(ctx, email)
}

// Watch registers fn for every state change until the returned func is called.
func (s *Session) Watch(fn func(State)) func() {
	s.mu.Lock()
	s.nextWatch++
	key := s.nextWatch
	s.watchers[key] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, key)
			s.mu.Unlock()
		})
	}
}
