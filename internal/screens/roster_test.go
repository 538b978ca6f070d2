package screens

import (
	"context"
	"testing"

	"github.com/nexxacraft/community-admin/internal/docstore"
	"github.com/nexxacraft/community-admin/internal/models"
	"github.com/nexxacraft/community-admin/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterUsers(t *testing.T) {
	users := []models.ApprovedUser{
		{ID: "1", Name: "Amina", Email: "amina@example.org", Role: models.RoleMember},
		{ID: "2", Name: "Brian", Email: "brian@example.org", Role: models.RoleModerator},
	}
	assert.Len(t, FilterUsers(users, ""), 2)
	assert.Len(t, FilterUsers(users, "MODERATOR"), 1)
	assert.Len(t, FilterUsers(users, "example"), 2)
	assert.Empty(t, FilterUsers(users, "nobody"))
}

func TestRoster_LiveCreateToggleDelete(t *testing.T) {
	store := newFakeStore()
	users := repository.NewUserRepository(store, "approved_users")
	ctx := context.Background()

	_, err := store.Add(ctx, "approved_users", docstore.Fields{"name": "Root", "email": "root@example.org", "role": "admin", "isActive": true})
	require.NoError(t, err)

	roster := NewRoster(users, true)
	roster.Mount(ctx)
	defer roster.Unmount()
	assert.Empty(t, roster.Visible(), "admins hidden")

	created, err := roster.Create(ctx, models.NewApprovedUser{Name: "New Member", Email: "new@example.org", Role: "member"})
	require.NoError(t, err)

	visible := roster.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "new@example.org", visible[0].Email)
	assert.True(t, visible[0].Active)

	_, err = roster.ToggleActive(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, roster.Visible()[0].Active)

	assert.ErrorIs(t, roster.Delete(ctx, created.ID, false), ErrDeleteNotConfirmed)
	assert.Len(t, roster.Visible(), 1)

	require.NoError(t, roster.Delete(ctx, created.ID, true))
	assert.Empty(t, roster.Visible())
}

func TestRoster_RemountKeepsOneSubscription(t *testing.T) {
	store := newFakeStore()
	users := repository.NewUserRepository(store, "approved_users")
	ctx := context.Background()

	roster := NewRoster(users, false)
	roster.Mount(ctx)
	roster.Mount(ctx)
	assert.Equal(t, 1, store.live())

	_, err := store.Add(ctx, "approved_users", docstore.Fields{"name": "Amina", "email": "amina@example.org", "role": "member", "isActive": true})
	require.NoError(t, err)
	assert.Len(t, roster.Visible(), 1)

	roster.Unmount()
	assert.Equal(t, []int{1, 1}, store.unsubCounts())
}

func TestRoster_SearchIsLocal(t *testing.T) {
	store := newFakeStore()
	users := repository.NewUserRepository(store, "approved_users")
	ctx := context.Background()

	for _, e := range []string{"amina@example.org", "brian@example.org"} {
		_, err := users.Create(ctx, models.NewApprovedUser{Name: e, Email: e})
		require.NoError(t, err)
	}

	roster := NewRoster(users, false)
	var pushes int
	stop := roster.Watch(func([]models.ApprovedUser) { pushes++ })
	defer stop()
	roster.Mount(ctx)

	reads := len(store.subs)
	roster.SetSearch("BRIAN")
	assert.Len(t, roster.Visible(), 1)
	roster.SetSearch("zzz")
	assert.Empty(t, roster.Visible())
	assert.Equal(t, reads, len(store.subs), "search does not resubscribe")
	assert.Equal(t, 3, pushes)

	roster.Unmount()
	assert.Equal(t, []int{1}, store.unsubCounts())
}

func TestRoster_Load(t *testing.T) {
	store := newFakeStore()
	users := repository.NewUserRepository(store, "approved_users")
	ctx := context.Background()

	_, err := users.Create(ctx, models.NewApprovedUser{Name: "A", Email: "a@example.org"})
	require.NoError(t, err)

	roster := NewRoster(users, true)
	roster.Load(ctx)
	assert.Len(t, roster.Visible(), 1)
	assert.Empty(t, store.subs)

	store.failReads = true
	roster.Load(ctx)
	assert.Empty(t, roster.Visible())
}
