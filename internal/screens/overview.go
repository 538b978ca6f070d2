package screens

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nexxacraft/community-admin/internal/models"
	"github.com/nexxacraft/community-admin/internal/repository"
)

var weekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type Stats struct {
	ActiveUsers     int        `json:"activeUsers"`
	PendingReports  int        `json:"pendingReports"`
	ReviewedReports int        `json:"reviewedReports"`
	ResolvedReports int        `json:"resolvedReports"`
	TotalReports    int        `json:"totalReports"`
	Weekly          []DayCount `json:"weekly"`
}

func emptyWeek() []DayCount {
	week := make([]DayCount, len(weekdayLabels))
	for i, label := range weekdayLabels {
		week[i] = DayCount{Day: label}
	}
	return week
}

// ComputeReportStats counts reports by status and buckets those reported in
// the last seven calendar days (today included) by weekday in loc, Monday
// first. ActiveUsers is left zero.
func ComputeReportStats(reports []models.Report, now time.Time, loc *time.Location) Stats {
	if loc == nil {
		loc = time.Local
	}
	st := Stats{TotalReports: len(reports), Weekly: emptyWeek()}

	local := now.In(loc)
	todayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	windowStart := todayStart.AddDate(0, 0, -6)
	windowEnd := todayStart.AddDate(0, 0, 1)

	for _, r := range reports {
		switch r.Status {
		case models.StatusPending:
			st.PendingReports++
		case models.StatusReviewed:
			st.ReviewedReports++
		case models.StatusResolved:
			st.ResolvedReports++
		}
		if r.ReportedAt == nil {
			continue
		}
		at := r.ReportedAt.In(loc)
		if at.Before(windowStart) || !at.Before(windowEnd) {
			continue
		}
		st.Weekly[(int(at.Weekday())+6)%7].Count++
	}
	return st
}

// LoadStats computes the overview once without subscribing.
func LoadStats(ctx context.Context, users UserSource, reports ReportSource, now time.Time, loc *time.Location) (Stats, error) {
	active, err := users.List(ctx, repository.ListOptions{ActiveOnly: true})
	if err != nil {
		return Stats{}, err
	}
	all, err := reports.List(ctx, models.StatusFilter{})
	if err != nil {
		return Stats{}, err
	}
	st := ComputeReportStats(all, now, loc)
	st.ActiveUsers = len(active)
	return st, nil
}

// Overview keeps live statistics over active users and all reports.
type Overview struct {
	users   UserSource
	reports ReportSource
	loc     *time.Location
	now     func() time.Time

	mu          sync.Mutex
	activeUsers int
	reportList  []models.Report
	subs        subscriptions
	watch       watchers[Stats]
}

func NewOverview(users UserSource, reports ReportSource, loc *time.Location) *Overview {
	return &Overview{users: users, reports: reports, loc: loc, now: time.Now}
}

func (o *Overview) Mount(ctx context.Context) {
	o.subs.reopen()

	unsubUsers, err := o.users.Subscribe(ctx, repository.ListOptions{ActiveOnly: true},
		func(users []models.ApprovedUser) {
			o.mu.Lock()
			o.activeUsers = len(users)
			o.mu.Unlock()
			o.publish()
		},
		func(err error) { o.onReadError("users", err) },
	)
	if err != nil {
		o.onReadError("users", err)
	}
	o.subs.add(unsubUsers)

	unsubReports, err := o.reports.Subscribe(ctx, models.StatusFilter{},
		func(reports []models.Report) {
			o.mu.Lock()
			o.reportList = reports
			o.mu.Unlock()
			o.publish()
		},
		func(err error) { o.onReadError("reports", err) },
	)
	if err != nil {
		o.onReadError("reports", err)
	}
	o.subs.add(unsubReports)
}

func (o *Overview) Unmount() {
	o.subs.closeAll()
}

func (o *Overview) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := ComputeReportStats(o.reportList, o.now(), o.loc)
	st.ActiveUsers = o.activeUsers
	return st
}

// Watch registers fn to receive recomputed stats after every change.
func (o *Overview) Watch(fn func(Stats)) func() {
	return o.watch.add(fn)
}

func (o *Overview) publish() {
	o.watch.notify(o.Stats())
}

func (o *Overview) onReadError(source string, err error) {
	slog.Warn("overview read failed", "source", source, "error", err)
	o.mu.Lock()
	if source == "users" {
		o.activeUsers = 0
	} else {
		o.reportList = nil
	}
	o.mu.Unlock()
	o.publish()
}
