package repository

import (
	"testing"
	"time"

	"github.com/nexxacraft/community-admin/internal/docstore"
	"github.com/nexxacraft/community-admin/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 5, 6, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		ok   bool
	}{
		{"store format", "2024-05-06T09:30:00.000000000Z", true},
		{"rfc3339 offset", "2024-05-06T12:30:00+03:00", true},
		{"naive", "2024-05-06 09:30:00", true},
		{"epoch millis", float64(want.UnixMilli()), true},
		{"epoch seconds", float64(want.Unix()), true},
		{"seconds map", map[string]any{"seconds": float64(want.Unix()), "nanoseconds": float64(0)}, true},
		{"underscore map", map[string]any{"_seconds": float64(want.Unix())}, true},
		{"garbage", "yesterday", false},
		{"nil", nil, false},
		{"zero", float64(0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseTime(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, want.Equal(got), "got %s", got)
			}
		})
	}
}

func TestDecodeReport_Aliases(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r := decodeReport(docstore.Document{
		ID: "abcdef123",
		Fields: docstore.Fields{
			"category":    "Physical",
			"description": "d",
			"submittedAt": "2024-05-06T09:30:00Z",
			"userId":      "u-1",
			"evidenceURL": "gs://bucket/e.jpg",
		},
		CreatedAt: created,
	})

	assert.Equal(t, "Physical", r.Type)
	assert.Equal(t, "u-1", r.ReportedBy)
	assert.Equal(t, "gs://bucket/e.jpg", r.EvidenceURL)
	assert.Equal(t, models.StatusPending, r.Status, "missing status defaults to pending")
	if assert.NotNil(t, r.ReportedAt) {
		assert.Equal(t, 6, r.ReportedAt.Day())
	}
	assert.Nil(t, r.UpdatedAt)

	fallback := decodeReport(docstore.Document{ID: "x", Fields: docstore.Fields{"status": "Resolved"}, CreatedAt: created})
	assert.Equal(t, models.StatusResolved, fallback.Status)
	if assert.NotNil(t, fallback.ReportedAt) {
		assert.True(t, created.Equal(*fallback.ReportedAt))
	}

	unknown := decodeReport(docstore.Document{ID: "y", Fields: docstore.Fields{"status": "closed"}})
	assert.Equal(t, models.ReportStatus("closed"), unknown.Status)
	assert.Nil(t, unknown.ReportedAt)
}

func TestDecodeUser(t *testing.T) {
	u := decodeUser(docstore.Document{
		ID: "u1",
		Fields: docstore.Fields{
			"username": "Legacy Name",
			"email":    "l@example.org",
			"role":     "Moderator",
			"isActive": true,
		},
	})
	assert.Equal(t, "Legacy Name", u.Name)
	assert.Equal(t, models.RoleModerator, u.Role)
	assert.True(t, u.Active)
	assert.Nil(t, u.CreatedAt)
	assert.Nil(t, u.ApprovedAt)
}
