package screens

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nexxacraft/community-admin/internal/docstore"
)

// fakeStore is an in-memory docstore.Store that delivers snapshots
// synchronously and counts unsubscribe calls per subscription.
type fakeStore struct {
	mu        sync.Mutex
	now       time.Time
	nextID    int
	docs      map[string]map[string]docstore.Fields
	subs      []*fakeSub
	failReads bool
}

type fakeSub struct {
	query    docstore.Query
	onChange func(docstore.Snapshot)
	onError  func(error)
	unsubs   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		now:  time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC),
		docs: make(map[string]map[string]docstore.Fields),
	}
}

func (s *fakeStore) snapshot(q docstore.Query) []docstore.Document {
	var out []docstore.Document
	for id, f := range s.docs[q.CollectionName()] {
		if q.Matches(f) {
			copied := docstore.Fields{}
			for k, v := range f {
				copied[k] = v
			}
			out = append(out, docstore.Document{ID: id, Fields: copied, CreatedAt: s.now})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *fakeStore) Get(_ context.Context, collection, id string) (docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.docs[collection][id]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	copied := docstore.Fields{}
	for k, v := range f {
		copied[k] = v
	}
	return docstore.Document{ID: id, Fields: copied, CreatedAt: s.now}, nil
}

func (s *fakeStore) Query(_ context.Context, q docstore.Query) ([]docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads {
		return nil, fmt.Errorf("store unavailable")
	}
	return s.snapshot(q), nil
}

func (s *fakeStore) Subscribe(_ context.Context, q docstore.Query, onChange func(docstore.Snapshot), onError func(error)) (docstore.Unsubscribe, error) {
	s.mu.Lock()
	if s.failReads {
		s.mu.Unlock()
		return nil, fmt.Errorf("store unavailable")
	}
	sub := &fakeSub{query: q, onChange: onChange, onError: onError}
	s.subs = append(s.subs, sub)
	docs := s.snapshot(q)
	s.mu.Unlock()

	onChange(docstore.Snapshot{Docs: docs})
	return func() {
		s.mu.Lock()
		sub.unsubs++
		s.mu.Unlock()
	}, nil
}

func (s *fakeStore) resolve(f docstore.Fields) docstore.Fields {
	out := docstore.Fields{}
	for k, v := range f {
		if v == docstore.ServerTimestamp {
			v = docstore.FormatTimestamp(s.now)
		}
		out[k] = v
	}
	return out
}

func (s *fakeStore) Add(_ context.Context, collection string, fields docstore.Fields) (string, error) {
	s.mu.Lock()
	s.nextID++
	id := fmt.Sprintf("id-%04d", s.nextID)
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]docstore.Fields)
	}
	s.docs[collection][id] = s.resolve(fields)
	s.mu.Unlock()
	s.notify(collection)
	return id, nil
}

func (s *fakeStore) Update(_ context.Context, collection, id string, partial docstore.Fields) error {
	s.mu.Lock()
	cur, ok := s.docs[collection][id]
	if !ok {
		s.mu.Unlock()
		return docstore.ErrNotFound
	}
	for k, v := range s.resolve(partial) {
		cur[k] = v
	}
	s.mu.Unlock()
	s.notify(collection)
	return nil
}

func (s *fakeStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	delete(s.docs[collection], id)
	s.mu.Unlock()
	s.notify(collection)
	return nil
}

// notify delivers a fresh snapshot to every live subscription on collection.
func (s *fakeStore) notify(collection string) {
	type delivery struct {
		fn   func(docstore.Snapshot)
		docs []docstore.Document
	}
	s.mu.Lock()
	var pending []delivery
	for _, sub := range s.subs {
		if sub.unsubs == 0 && sub.query.CollectionName() == collection {
			pending = append(pending, delivery{sub.onChange, s.snapshot(sub.query)})
		}
	}
	s.mu.Unlock()
	for _, d := range pending {
		d.fn(docstore.Snapshot{Docs: d.docs})
	}
}

// failAll pushes err to every live subscription.
func (s *fakeStore) failAll(err error) {
	s.mu.Lock()
	var fns []func(error)
	for _, sub := range s.subs {
		if sub.unsubs == 0 && sub.onError != nil {
			fns = append(fns, sub.onError)
		}
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(err)
	}
}

func (s *fakeStore) unsubCounts() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.subs))
	for i, sub := range s.subs {
		out[i] = sub.unsubs
	}
	return out
}

func (s *fakeStore) live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sub := range s.subs {
		if sub.unsubs == 0 {
			n++
		}
	}
	return n
}
