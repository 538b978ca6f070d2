// Package guard decides whether a request may see a dashboard screen.
package guard

import (
	"log/slog"

	"github.com/nexxacraft/community-admin/internal/session"
)

type Outcome int

const (
	Wait Outcome = iota
	RedirectToLogin
	RedirectToDashboard
	Admit
)

func (o Outcome) String() string {
	switch o {
	case Wait:
		return "wait"
	case RedirectToLogin:
		return "redirect_login"
	case RedirectToDashboard:
		return "redirect_dashboard"
	case Admit:
		return "admit"
	}
	return "unknown"
}

type options struct {
	requiredRole string
}

type Option func(*options)

// WithRequiredRole records the role a screen expects. It is not enforced:
// every signed-in staff member is admitted.
func WithRequiredRole(role string) Option {
	return func(o *options) { o.requiredRole = role }
}

// Protect gates a dashboard screen.
func Protect(st session.State, opts ...Option) Outcome {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	switch {
	case st.Loading:
		return Wait
	case st.User == nil:
		return RedirectToLogin
	}
	if o.requiredRole != "" && st.User.Role != o.requiredRole {
		slog.Debug("required role not enforced", "required", o.requiredRole, "role", st.User.Role, "actor", st.User.Email)
	}
	return Admit
}

// LoginGate sends signed-in staff away from the login screen.
func LoginGate(st session.State) Outcome {
	switch {
	case st.Loading:
		return Wait
	case st.User != nil:
		return RedirectToDashboard
	}
	return Admit
}
