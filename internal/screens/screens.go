// Package screens holds the server-side view models behind the dashboard.
// Each screen owns its live subscriptions: Mount opens them and Unmount
// releases every one exactly once.
package screens

import (
	"context"
	"sync"

	"github.com/nexxacraft/community-admin/internal/docstore"
	"github.com/nexxacraft/community-admin/internal/models"
	"github.com/nexxacraft/community-admin/internal/repository"
)

// UserSource is the slice of the user repository the screens need.
type UserSource interface {
	List(ctx context.Context, opts repository.ListOptions) ([]models.ApprovedUser, error)
	Subscribe(ctx context.Context, opts repository.ListOptions, onChange func([]models.ApprovedUser), onError func(error)) (docstore.Unsubscribe, error)
	Create(ctx context.Context, in models.NewApprovedUser) (models.ApprovedUser, error)
	Update(ctx context.Context, id string, patch models.UserPatch) (models.ApprovedUser, error)
	ToggleActive(ctx context.Context, id string) (models.ApprovedUser, error)
	Delete(ctx context.Context, id string) error
}

// ReportSource is the slice of the report repository the screens need.
type ReportSource interface {
	List(ctx context.Context, filter models.StatusFilter) ([]models.Report, error)
	Subscribe(ctx context.Context, filter models.StatusFilter, onChange func([]models.Report), onError func(error)) (docstore.Unsubscribe, error)
	Get(ctx context.Context, id string) (models.Report, error)
	SetStatus(ctx context.Context, id string, status models.ReportStatus) (models.Report, error)
}

// subscriptions releases every handle it holds exactly once.
type subscriptions struct {
	mu      sync.Mutex
	handles []docstore.Unsubscribe
	closed  bool
}

// add keeps u for later release. A handle added after closeAll is released
// immediately.
func (s *subscriptions) add(u docstore.Unsubscribe) {
	if u == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		u()
		return
	}
	s.handles = append(s.handles, u)
	s.mu.Unlock()
}

func (s *subscriptions) closeAll() {
	s.mu.Lock()
	handles := s.handles
	s.handles = nil
	s.closed = true
	s.mu.Unlock()

	for _, u := range handles {
		u()
	}
}

// reopen releases any handles still held and accepts new ones, so a screen
// mounted twice keeps only the subscriptions of the latest Mount.
func (s *subscriptions) reopen() {
	s.closeAll()
	s.mu.Lock()
	s.closed = false
	s.mu.Unlock()
}

// watchers fans view updates out to observers such as live connections.
type watchers[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

func (w *watchers[T]) add(fn func(T)) func() {
	w.mu.Lock()
	if w.fns == nil {
		w.fns = make(map[int]func(T))
	}
	w.next++
	key := w.next
	w.fns[key] = fn
	w.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.fns, key)
			w.mu.Unlock()
		})
	}
}

func (w *watchers[T]) notify(v T) {
	w.mu.Lock()
	fns := make([]func(T), 0, len(w.fns))
	for _, fn := range w.fns {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}
