package docstore

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/nexxacraft/community-admin/internal/metrics"
)

type subscription struct {
	store    *GormStore
	query    Query
	onChange func(Snapshot)
	onError  func(error)

	// wake has room for one pending signal; extra signals coalesce into it.
	wake   chan struct{}
	closed atomic.Bool
	cancel context.CancelFunc
	stop   func()
	once   sync.Once
}

func (s *GormStore) Subscribe(ctx context.Context, q Query, onChange func(Snapshot), onError func(error)) (Unsubscribe, error) {
	if err := q.Err(); err != nil {
		return nil, err
	}
	if onChange == nil {
		onChange = func(Snapshot) {}
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		store:    s,
		query:    q,
		onChange: onChange,
		onError:  onError,
		wake:     make(chan struct{}, 1),
		cancel:   cancel,
	}

	// Register before the first read so a write landing in between still
	// produces a later snapshot.
	stop, err := s.broker.Listen(ctx, q.collection, func(Change) { sub.signal() })
	if err != nil {
		cancel()
		return nil, err
	}
	sub.stop = stop
	metrics.DocstoreSubscriptions.WithLabelValues(q.collection).Inc()

	sub.signal()
	go sub.run(ctx)
	return sub.unsubscribe, nil
}

func (sub *subscription) signal() {
	select {
	case sub.wake <- struct{}{}:
	default:
	}
}

func (sub *subscription) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.wake:
		}
		if sub.closed.Load() {
			return
		}

		docs, err := sub.store.Query(ctx, sub.query)
		if sub.closed.Load() || ctx.Err() != nil {
			return
		}
		if err != nil {
			slog.Warn("subscription read failed", "collection", sub.query.collection, "error", err)
			sub.deliverError(err)
			continue
		}
		sub.deliver(Snapshot{Docs: docs, ReadAt: sub.store.now().UTC()})
	}
}

// deliver and deliverError re-check closed right before the callback: no
// callback starts once unsubscribe has returned.
func (sub *subscription) deliver(snap Snapshot) {
	if sub.closed.Load() {
		return
	}
	defer sub.recoverCallback()
	sub.onChange(snap)
}

func (sub *subscription) deliverError(err error) {
	if sub.onError == nil || sub.closed.Load() {
		return
	}
	defer sub.recoverCallback()
	sub.onError(err)
}

func (sub *subscription) recoverCallback() {
	if r := recover(); r != nil {
		slog.Error("panic in subscription callback", "collection", sub.query.collection, "panic", r, "stack", string(debug.Stack()))
	}
}

// unsubscribe does not wait for an in-flight callback, so it is safe to call
// from inside one.
func (sub *subscription) unsubscribe() {
	sub.once.Do(func() {
		sub.closed.Store(true)
		metrics.DocstoreSubscriptions.WithLabelValues(sub.query.collection).Dec()
		sub.cancel()
		if sub.stop != nil {
			sub.stop()
		}
	})
}
