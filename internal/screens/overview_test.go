package screens

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nexxacraft/community-admin/internal/docstore"
	"github.com/nexxacraft/community-admin/internal/models"
	"github.com/nexxacraft/community-admin/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestComputeReportStats(t *testing.T) {
	// Wednesday 2024-05-08 12:00 UTC.
	now := time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC)
	reports := []models.Report{
		{Status: models.StatusPending, ReportedAt: at("2024-05-08T09:00:00Z")},  // Wed
		{Status: models.StatusPending, ReportedAt: at("2024-05-06T23:00:00Z")},  // Mon
		{Status: models.StatusResolved, ReportedAt: at("2024-05-02T00:30:00Z")}, // Thu, first day of window
		{Status: models.StatusReviewed, ReportedAt: at("2024-05-01T23:59:00Z")}, // outside window
		{Status: models.StatusResolved},
		{Status: "closed", ReportedAt: at("2024-05-05T10:00:00Z")}, // Sun
	}

	st := ComputeReportStats(reports, now, time.UTC)

	assert.Equal(t, 6, st.TotalReports)
	assert.Equal(t, 2, st.PendingReports)
	assert.Equal(t, 1, st.ReviewedReports)
	assert.Equal(t, 2, st.ResolvedReports)
	assert.Equal(t, []DayCount{
		{"Mon", 1}, {"Tue", 0}, {"Wed", 1}, {"Thu", 1}, {"Fri", 0}, {"Sat", 0}, {"Sun", 1},
	}, st.Weekly)
}

func TestComputeReportStats_UsesLocalTimezone(t *testing.T) {
	loc := time.FixedZone("EAT", 3*60*60)
	now := time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC)
	// 22:30 UTC Monday is 01:30 Tuesday at UTC+3.
	st := ComputeReportStats([]models.Report{{Status: models.StatusPending, ReportedAt: at("2024-05-06T22:30:00Z")}}, now, loc)
	assert.Equal(t, 0, st.Weekly[0].Count)
	assert.Equal(t, 1, st.Weekly[1].Count)
}

func newRepos(store docstore.Store) (*repository.UserRepository, *repository.ReportRepository) {
	return repository.NewUserRepository(store, "approved_users"), repository.NewReportRepository(store, "gbv_reports")
}

func TestOverview_LiveStatsAndUnmount(t *testing.T) {
	store := newFakeStore()
	users, reports := newRepos(store)
	ctx := context.Background()

	_, err := store.Add(ctx, "approved_users", docstore.Fields{"email": "a@example.org", "isActive": true})
	require.NoError(t, err)
	_, err = store.Add(ctx, "approved_users", docstore.Fields{"email": "b@example.org", "isActive": false})
	require.NoError(t, err)

	ov := NewOverview(users, reports, time.UTC)
	ov.now = func() time.Time { return store.now }

	var pushed []Stats
	stop := ov.Watch(func(s Stats) { pushed = append(pushed, s) })
	defer stop()

	ov.Mount(ctx)
	assert.Equal(t, 2, store.live())
	assert.Equal(t, 1, ov.Stats().ActiveUsers)

	_, err = store.Add(ctx, "gbv_reports", docstore.Fields{"status": "pending", "reportedAt": docstore.ServerTimestamp})
	require.NoError(t, err)
	id, err := store.Add(ctx, "gbv_reports", docstore.Fields{"status": "pending", "reportedAt": docstore.ServerTimestamp})
	require.NoError(t, err)
	_, err = reports.SetStatus(ctx, id, models.StatusResolved)
	require.NoError(t, err)

	st := ov.Stats()
	assert.Equal(t, 2, st.TotalReports)
	assert.Equal(t, 1, st.PendingReports)
	assert.Equal(t, 1, st.ResolvedReports)
	assert.Equal(t, 2, st.Weekly[2].Count)
	assert.NotEmpty(t, pushed)

	ov.Unmount()
	ov.Unmount()
	assert.Equal(t, []int{1, 1}, store.unsubCounts())

	before := len(pushed)
	_, err = store.Add(ctx, "gbv_reports", docstore.Fields{"status": "pending"})
	require.NoError(t, err)
	assert.Len(t, pushed, before)
}

func TestOverview_RemountKeepsOneSubscriptionPerSource(t *testing.T) {
	store := newFakeStore()
	users, reports := newRepos(store)
	ctx := context.Background()

	ov := NewOverview(users, reports, time.UTC)
	ov.Mount(ctx)
	ov.Mount(ctx)
	assert.Equal(t, 2, store.live())
	assert.Equal(t, []int{1, 1, 0, 0}, store.unsubCounts())

	ov.Unmount()
	assert.Zero(t, store.live())
	assert.Equal(t, []int{1, 1, 1, 1}, store.unsubCounts())
}

func TestOverview_ReadFailureFallsBackToEmpty(t *testing.T) {
	store := newFakeStore()
	users, reports := newRepos(store)
	ctx := context.Background()

	_, err := store.Add(ctx, "gbv_reports", docstore.Fields{"status": "pending"})
	require.NoError(t, err)

	ov := NewOverview(users, reports, time.UTC)
	ov.Mount(ctx)
	assert.Equal(t, 1, ov.Stats().TotalReports)

	store.failAll(errors.New("permission denied"))
	assert.Equal(t, 0, ov.Stats().TotalReports)
	ov.Unmount()

	store.failReads = true
	broken := NewOverview(users, reports, time.UTC)
	broken.Mount(ctx)
	assert.Equal(t, 0, broken.Stats().TotalReports)
	broken.Unmount()
}

func TestLoadStats(t *testing.T) {
	store := newFakeStore()
	users, reports := newRepos(store)
	ctx := context.Background()

	_, err := users.Create(ctx, models.NewApprovedUser{Name: "A", Email: "a@example.org"})
	require.NoError(t, err)
	_, err = store.Add(ctx, "gbv_reports", docstore.Fields{"status": "resolved"})
	require.NoError(t, err)

	st, err := LoadStats(ctx, users, reports, store.now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 1, st.ActiveUsers)
	assert.Equal(t, 1, st.ResolvedReports)
	assert.Len(t, st.Weekly, 7)

	store.failReads = true
	_, err = LoadStats(ctx, users, reports, store.now, time.UTC)
	assert.Error(t, err)
}
