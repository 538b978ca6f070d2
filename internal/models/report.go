package models

import (
	"errors"
	"strings"
	"time"
)

// ReportStatus is the triage state of a report. Stored values are always
// the lowercase constants below.
type ReportStatus string

const (
	StatusPending  ReportStatus = "pending"
	StatusReviewed ReportStatus = "reviewed"
	StatusResolved ReportStatus = "resolved"
)

var (
	ErrInvalidStatus     = errors.New("status must be pending, reviewed, or resolved")
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// ParseReportStatus accepts any casing ("Pending", "RESOLVED") and returns
// the canonical value.
func ParseReportStatus(s string) (ReportStatus, error) {
	switch ReportStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusReviewed:
		return StatusReviewed, nil
	case StatusResolved:
		return StatusResolved, nil
	}
	return "", ErrInvalidStatus
}

func (s ReportStatus) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusReviewed:
		return 1
	case StatusResolved:
		return 2
	}
	return -1
}

// CanTransitionTo allows forward moves only: pending→reviewed,
// pending→resolved and reviewed→resolved.
func (s ReportStatus) CanTransitionTo(next ReportStatus) bool {
	from, to := s.rank(), next.rank()
	return from >= 0 && to >= 0 && to > from
}

func (s ReportStatus) Terminal() bool {
	return s == StatusResolved
}

// Report is an incident report as shown on the triage screen. Reports are
// submitted elsewhere; this service only changes Status and UpdatedAt.
type Report struct {
	ID          string       `json:"id"`
	Type        string       `json:"type"`
	Description string       `json:"description"`
	Location    string       `json:"location,omitempty"`
	Status      ReportStatus `json:"status"`
	ReportedBy  string       `json:"reportedBy,omitempty"`
	EvidenceURL string       `json:"evidenceUrl,omitempty"`
	ReportedAt  *time.Time   `json:"reportedAt,omitempty"`
	UpdatedAt   *time.Time   `json:"updatedAt,omitempty"`
}

// ReportActions lists the status shortcuts offered for a report.
type ReportActions struct {
	MarkReviewed bool `json:"markReviewed"`
	MarkResolved bool `json:"markResolved"`
}

func (r Report) Actions() ReportActions {
	return ReportActions{
		MarkReviewed: r.Status == StatusPending,
		MarkResolved: r.Status.rank() >= 0 && !r.Status.Terminal(),
	}
}

// ShortID is the six character prefix shown in the detail header.
func (r Report) ShortID() string {
	if len(r.ID) <= 6 {
		return r.ID
	}
	return r.ID[:6]
}

// StatusFilter scopes the triage list. The zero value means "all".
type StatusFilter struct {
	Status ReportStatus
}

const FilterAll = "all"

func ParseStatusFilter(s string) (StatusFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, FilterAll) {
		return StatusFilter{}, nil
	}
	status, err := ParseReportStatus(s)
	if err != nil {
		return StatusFilter{}, err
	}
	return StatusFilter{Status: status}, nil
}

func (f StatusFilter) All() bool { return f.Status == "" }

func (f StatusFilter) String() string {
	if f.All() {
		return FilterAll
	}
	return string(f.Status)
}

func (f StatusFilter) Match(r Report) bool {
	return f.All() || r.Status == f.Status
}
