package repository

import (
	"testing"
	"time"

	"github.com/nexxacraft/community-admin/internal/docstore"
	"github.com/nexxacraft/community-admin/internal/testutil"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newStore(t *testing.T) (*docstore.GormStore, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)}
	return docstore.NewGormStore(testutil.NewDB(t), docstore.NewMemoryBroker(), docstore.WithClock(clock.Now)), clock
}
