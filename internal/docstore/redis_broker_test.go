package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisBroker(t *testing.T) *RedisBroker {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := NewRedisBroker(rdb)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestChangeChannel(t *testing.T) {
	assert.Equal(t, "docstore:changes:gbv_reports", ChangeChannel("gbv_reports"))
}

func TestRedisBroker_PublishListen(t *testing.T) {
	b := newRedisBroker(t)
	ctx := context.Background()

	got := make(chan Change, 4)
	stop, err := b.Listen(ctx, "approved_users", func(c Change) { got <- c })
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, Change{Collection: "gbv_reports", ID: "r1", Kind: ChangeAdded}))
	require.NoError(t, b.Publish(ctx, Change{Collection: "approved_users", ID: "u1", Kind: ChangeModified}))

	select {
	case c := <-got:
		assert.Equal(t, Change{Collection: "approved_users", ID: "u1", Kind: ChangeModified}, c)
	case <-time.After(time.Second):
		t.Fatal("no change received")
	}

	stop()
	stop()
	require.NoError(t, b.Publish(ctx, Change{Collection: "approved_users", ID: "u2", Kind: ChangeAdded}))
	assert.Never(t, func() bool { return len(got) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestRedisBroker_DrivesSubscriptions(t *testing.T) {
	b := newRedisBroker(t)
	store, _ := newTestStore(t, b)
	ctx := context.Background()

	rec := &snapshotRecorder{}
	unsub, err := store.Subscribe(ctx, Collection("gbv_reports").Where("status", OpEqual, "pending"), rec.record, nil)
	require.NoError(t, err)
	defer unsub()
	require.Eventually(t, func() bool { return rec.count() >= 1 }, time.Second, 5*time.Millisecond)

	_, err = store.Add(ctx, "gbv_reports", Fields{"status": "pending"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(rec.last().Docs) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestNewRedisBrokerFromURL_BadURL(t *testing.T) {
	_, err := NewRedisBrokerFromURL(context.Background(), "not a url")
	assert.Error(t, err)
}
