package screens

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/nexxacraft/community-admin/internal/models"
	"github.com/nexxacraft/community-admin/internal/repository"
)

var ErrDeleteNotConfirmed = errors.New("deletion must be confirmed")

// FilterUsers keeps users whose name, email or role contains search,
// ignoring case.
func FilterUsers(users []models.ApprovedUser, search string) []models.ApprovedUser {
	out := make([]models.ApprovedUser, 0, len(users))
	for _, u := range users {
		if u.Matches(search) {
			out = append(out, u)
		}
	}
	return out
}

// Roster is the user management screen. Mutations wait for the live
// subscription to reflect them rather than updating local state.
type Roster struct {
	users UserSource
	opts  repository.ListOptions

	mu     sync.Mutex
	all    []models.ApprovedUser
	search string
	subs   subscriptions
	watch  watchers[[]models.ApprovedUser]
}

func NewRoster(users UserSource, hideAdmins bool) *Roster {
	return &Roster{users: users, opts: repository.ListOptions{ExcludeAdmins: hideAdmins}}
}

func (r *Roster) Mount(ctx context.Context) {
	r.subs.reopen()
	unsub, err := r.users.Subscribe(ctx, r.opts, r.replace, r.onReadError)
	if err != nil {
		r.onReadError(err)
	}
	r.subs.add(unsub)
}

func (r *Roster) Unmount() {
	r.subs.closeAll()
}

// Load reads the roster once without subscribing.
func (r *Roster) Load(ctx context.Context) {
	users, err := r.users.List(ctx, r.opts)
	if err != nil {
		r.onReadError(err)
		return
	}
	r.replace(users)
}

func (r *Roster) replace(users []models.ApprovedUser) {
	r.mu.Lock()
	r.all = users
	r.mu.Unlock()
	r.watch.notify(r.Visible())
}

func (r *Roster) onReadError(err error) {
	slog.Warn("roster read failed", "error", err)
	r.replace(nil)
}

func (r *Roster) SetSearch(search string) {
	r.mu.Lock()
	r.search = search
	r.mu.Unlock()
	r.watch.notify(r.Visible())
}

// Visible is the roster after the search filter.
func (r *Roster) Visible() []models.ApprovedUser {
	r.mu.Lock()
	defer r.mu.Unlock()
	return FilterUsers(r.all, r.search)
}

func (r *Roster) Watch(fn func([]models.ApprovedUser)) func() {
	return r.watch.add(fn)
}

func (r *Roster) Create(ctx context.Context, in models.NewApprovedUser) (models.ApprovedUser, error) {
	return r.users.Create(ctx, in)
}

func (r *Roster) Update(ctx context.Context, id string, patch models.UserPatch) (models.ApprovedUser, error) {
	return r.users.Update(ctx, id, patch)
}

func (r *Roster) ToggleActive(ctx context.Context, id string) (models.ApprovedUser, error) {
	return r.users.ToggleActive(ctx, id)
}

// Delete permanently removes a user once the operator has confirmed.
func (r *Roster) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrDeleteNotConfirmed
	}
	return r.users.Delete(ctx, id)
}
