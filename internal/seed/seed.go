// Package seed loads demo data into an empty deployment. Running it again
// leaves existing data untouched.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nexxacraft/community-admin/internal/docstore"
	"github.com/nexxacraft/community-admin/internal/models"
	"github.com/nexxacraft/community-admin/internal/repository"
)

type Result struct {
	UsersAdded   int `json:"usersAdded"`
	ReportsAdded int `json:"reportsAdded"`
}

var demoUsers = []models.NewApprovedUser{
	{Name: "Amina Njeri", Email: "amina@example.org", Role: "admin", ApprovedBy: "seed"},
	{Name: "Brian Otieno", Email: "brian@example.org", Role: "moderator", ApprovedBy: "seed"},
	{Name: "Chloe Wanjiru", Email: "chloe@example.org", Role: "member", ApprovedBy: "seed"},
	{Name: "David Kamau", Email: "david@example.org", Role: "member", ApprovedBy: "seed"},
}

type demoReport struct {
	kind, description, location, status, reporter, evidence string
	daysAgo                                                 int
}

var demoReports = []demoReport{
	{"harassment", "Repeated verbal harassment near the market", "Kibera", "pending", "chloe@example.org", "", 0},
	{"domestic_violence", "Neighbour reports shouting and injuries", "Mathare", "pending", "david@example.org", "https://example.org/evidence/1.jpg", 1},
	{"assault", "Assault reported after community meeting", "Kawangware", "reviewed", "chloe@example.org", "", 2},
	{"harassment", "Online threats sent to a member", "Online", "resolved", "brian@example.org", "", 4},
	{"other", "Unsafe lighting on the footpath", "Kibera", "resolved", "david@example.org", "", 6},
}

// Run adds each demo user whose email is not yet on the roster, and the demo
// reports when the reports collection is empty.
func Run(ctx context.Context, store docstore.Store, users *repository.UserRepository, reportsCollection string, now time.Time) (Result, error) {
	var res Result

	for _, u := range demoUsers {
		existing, err := users.FindByEmail(ctx, u.Email)
		if err != nil {
			return res, fmt.Errorf("look up %s: %w", u.Email, err)
		}
		if len(existing) > 0 {
			continue
		}
		if _, err := users.Create(ctx, u); err != nil {
			return res, fmt.Errorf("add %s: %w", u.Email, err)
		}
		res.UsersAdded++
	}

	existing, err := store.Query(ctx, docstore.Collection(reportsCollection).Limit(1))
	if err != nil {
		return res, fmt.Errorf("check reports: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("reports already present, skipping demo reports", "collection", reportsCollection)
		return res, nil
	}

	for _, r := range demoReports {
		fields := docstore.Fields{
			"type":        r.kind,
			"description": r.description,
			"location":    r.location,
			"status":      r.status,
			"reportedBy":  r.reporter,
			"reportedAt":  docstore.FormatTimestamp(now.AddDate(0, 0, -r.daysAgo)),
		}
		if r.evidence != "" {
			fields["evidenceUrl"] = r.evidence
		}
		if _, err := store.Add(ctx, reportsCollection, fields); err != nil {
			return res, fmt.Errorf("add report: %w", err)
		}
		res.ReportsAdded++
	}
	return res, nil
}
