package repository

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/nexxacraft/community-admin/internal/docstore"
	"github.com/nexxacraft/community-admin/internal/models"
)

// Field names as stored. Older submission paths used the aliases listed in
// the decoders below.
const (
	fieldName        = "name"
	fieldEmail       = "email"
	fieldRole        = "role"
	fieldIsActive    = "isActive"
	fieldApprovedBy  = "approvedBy"
	fieldApprovedAt  = "approvedAt"
	fieldCreatedAt   = "createdAt"
	fieldStatus      = "status"
	fieldUpdatedAt   = "updatedAt"
	fieldType        = "type"
	fieldDescription = "description"
	fieldLocation    = "location"
	fieldReportedBy  = "reportedBy"
	fieldReportedAt  = "reportedAt"
	fieldEvidenceURL = "evidenceUrl"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func decodeUser(doc docstore.Document) models.ApprovedUser {
	f := doc.Fields
	u := models.ApprovedUser{
		ID:         doc.ID,
		Name:       stringField(f, fieldName, "displayName", "username"),
		Email:      stringField(f, fieldEmail),
		ApprovedBy: stringField(f, fieldApprovedBy),
		Active:     boolField(f, fieldIsActive, "active"),
		CreatedAt:  firstTime(f, fieldCreatedAt),
		ApprovedAt: firstTime(f, fieldApprovedAt),
	}
	raw := stringField(f, fieldRole)
	if role, err := models.ParseRole(raw); err == nil {
		u.Role = role
	} else {
		u.Role = models.Role(strings.ToLower(raw))
	}
	if u.CreatedAt == nil && !doc.CreatedAt.IsZero() {
		t := doc.CreatedAt
		u.CreatedAt = &t
	}
	return u
}

func decodeReport(doc docstore.Document) models.Report {
	f := doc.Fields
	r := models.Report{
		ID:          doc.ID,
		Type:        stringField(f, fieldType, "category"),
		Description: stringField(f, fieldDescription),
		Location:    stringField(f, fieldLocation),
		ReportedBy:  stringField(f, fieldReportedBy, "reporterEmail", "userEmail", "userId"),
		EvidenceURL: stringField(f, fieldEvidenceURL, "evidenceURL", "fileUrl"),
		ReportedAt:  firstTime(f, fieldReportedAt, fieldCreatedAt, "submittedAt", "timestamp"),
		UpdatedAt:   firstTime(f, fieldUpdatedAt),
	}
	if r.ReportedAt == nil && !doc.CreatedAt.IsZero() {
		t := doc.CreatedAt
		r.ReportedAt = &t
	}

	raw := stringField(f, fieldStatus)
	switch status, err := models.ParseReportStatus(raw); {
	case raw == "":
		r.Status = models.StatusPending
	case err != nil:
		slog.Warn("report has unknown status", "id", doc.ID, "status", raw)
		r.Status = models.ReportStatus(raw)
	default:
		if string(status) != raw {
			slog.Warn("report status not in canonical form", "id", doc.ID, "status", raw)
		}
		r.Status = status
	}
	return r
}

func stringField(f docstore.Fields, keys ...string) string {
	for _, k := range keys {
		if s, ok := f[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func boolField(f docstore.Fields, keys ...string) bool {
	for _, k := range keys {
		if b, ok := f[k].(bool); ok {
			return b
		}
	}
	return false
}

func firstTime(f docstore.Fields, keys ...string) *time.Time {
	for _, k := range keys {
		if t, ok := parseTime(f[k]); ok {
			return &t
		}
	}
	return nil
}

// parseTime accepts the timestamp encodings seen in stored documents:
// formatted strings, epoch numbers and {seconds, nanoseconds} maps.
func parseTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, val); err == nil {
				return t.UTC(), true
			}
		}
	case float64:
		if val == 0 || math.IsNaN(val) || math.IsInf(val, 0) {
			return time.Time{}, false
		}
		// Values this large can only be milliseconds.
		if math.Abs(val) >= 1e11 {
			return time.UnixMilli(int64(val)).UTC(), true
		}
		return time.Unix(int64(val), 0).UTC(), true
	case map[string]any:
		sec, ok := numberField(val, "seconds", "_seconds")
		if !ok {
			return time.Time{}, false
		}
		nsec, _ := numberField(val, "nanoseconds", "_nanoseconds")
		return time.Unix(int64(sec), int64(nsec)).UTC(), true
	}
	return time.Time{}, false
}

func numberField(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if n, ok := m[k].(float64); ok {
			return n, true
		}
	}
	return 0, false
}
