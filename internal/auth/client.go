package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Gateway is the identity provider as seen by a session.
type Gateway interface {
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
	// OnIdentityChange registers fn for identity events. If the current
	// identity is already known, fn is called with it right away.
	OnIdentityChange(fn func(*Identity)) (unsubscribe func())
}

// Client is the per-session Gateway backed by Service.
type Client struct {
	svc       *Service
	userAgent string

	mu        sync.Mutex
	resolved  bool
	identity  *Identity
	token     string
	nextID    int
	listeners map[int]func(*Identity)
}

func NewClient(svc *Service, userAgent string) *Client {
	return &Client{svc: svc, userAgent: userAgent, listeners: make(map[int]func(*Identity))}
}

// Restore resolves the initial identity from a previously issued token. An
// empty or rejected token resolves to signed out.
func (c *Client) Restore(ctx context.Context, token string) {
	var id *Identity
	if token != "" {
		verified, err := c.svc.Verify(ctx, token)
		switch {
		case err == nil:
			id = verified
		case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrAccountDisabled):
			token = ""
		default:
			slog.Warn("session restore failed", "error", err)
			token = ""
		}
	}
	c.set(id, token)
}

// Adopt resolves the identity from one already verified by the caller.
func (c *Client) Adopt(id *Identity, token string) {
	c.set(id, token)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	tok, err := c.svc.Authenticate(ctx, email, password, c.userAgent)
	if err != nil {
		return nil, err
	}
	id := tok.Identity
	c.set(&id, tok.AccessToken)
	return &id, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	current := c.identity
	c.mu.Unlock()

	if current != nil {
		if err := c.svc.Revoke(ctx, current.SessionID); err != nil {
			return err
		}
		slog.Info("staff signed out", "actor", current.Email, "action", "logout")
	}
	c.set(nil, "")
	return nil
}

func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	return c.svc.RequestPasswordReset(ctx, email)
}

func (c *Client) OnIdentityChange(fn func(*Identity)) func() {
	c.mu.Lock()
	c.nextID++
	key := c.nextID
	c.listeners[key] = fn
	resolved, current := c.resolved, c.identity
	c.mu.Unlock()

	if resolved {
		fn(current)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, key)
			c.mu.Unlock()
		})
	}
}

// Token is the access token for the current identity, empty when signed out.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) set(id *Identity, token string) {
	c.mu.Lock()
	c.resolved = true
	c.identity = id
	c.token = token
	fns := make([]func(*Identity), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}
