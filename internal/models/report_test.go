package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReportStatus(t *testing.T) {
	for _, in := range []string{"pending", "Pending", " PENDING "} {
		s, err := ParseReportStatus(in)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, s)
	}
	_, err := ParseReportStatus("closed")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestReportStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to ReportStatus
		want     bool
	}{
		{StatusPending, StatusReviewed, true},
		{StatusPending, StatusResolved, true},
		{StatusReviewed, StatusResolved, true},
		{StatusReviewed, StatusPending, false},
		{StatusResolved, StatusPending, false},
		{StatusResolved, StatusReviewed, false},
		{StatusPending, StatusPending, false},
		{StatusResolved, StatusResolved, false},
		{"", StatusReviewed, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestReport_Actions(t *testing.T) {
	assert.Equal(t, ReportActions{MarkReviewed: true, MarkResolved: true}, Report{Status: StatusPending}.Actions())
	assert.Equal(t, ReportActions{MarkResolved: true}, Report{Status: StatusReviewed}.Actions())
	assert.Equal(t, ReportActions{}, Report{Status: StatusResolved}.Actions())
	assert.Equal(t, ReportActions{}, Report{Status: "archived"}.Actions())
}

func TestReport_ShortID(t *testing.T) {
	assert.Equal(t, "abc123", Report{ID: "abc123def456"}.ShortID())
	assert.Equal(t, "abc", Report{ID: "abc"}.ShortID())
}

func TestParseStatusFilter(t *testing.T) {
	f, err := ParseStatusFilter("")
	require.NoError(t, err)
	assert.True(t, f.All())
	assert.Equal(t, "all", f.String())

	f, err = ParseStatusFilter("Resolved")
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, f.Status)
	assert.True(t, f.Match(Report{Status: StatusResolved}))
	assert.False(t, f.Match(Report{Status: StatusPending}))

	_, err = ParseStatusFilter("open")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
