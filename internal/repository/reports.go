package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/nexxacraft/community-admin/internal/docstore"
	"github.com/nexxacraft/community-admin/internal/models"
)

var ErrReportNotFound = errors.New("report not found")

type ReportRepository struct {
	store      docstore.Store
	collection string
}

func NewReportRepository(store docstore.Store, collection string) *ReportRepository {
	return &ReportRepository{store: store, collection: collection}
}

func (r *ReportRepository) Collection() string { return r.collection }

// Status filtering and ordering happen after decoding: rows written before
// statuses were normalized still match their canonical filter, and the
// reported time may live under an alias field.
func (r *ReportRepository) query() docstore.Query {
	return docstore.Collection(r.collection)
}

func (r *ReportRepository) decodeAll(docs []docstore.Document, filter models.StatusFilter) []models.Report {
	reports := make([]models.Report, 0, len(docs))
	for _, d := range docs {
		rep := decodeReport(d)
		if filter.Match(rep) {
			reports = append(reports, rep)
		}
	}
	sortReportsNewestFirst(reports)
	return reports
}

func (r *ReportRepository) List(ctx context.Context, filter models.StatusFilter) ([]models.Report, error) {
	docs, err := r.store.Query(ctx, r.query())
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return r.decodeAll(docs, filter), nil
}

func (r *ReportRepository) Subscribe(ctx context.Context, filter models.StatusFilter, onChange func([]models.Report), onError func(error)) (docstore.Unsubscribe, error) {
	return r.store.Subscribe(ctx, r.query(), func(s docstore.Snapshot) {
		onChange(r.decodeAll(s.Docs, filter))
	}, onError)
}

func (r *ReportRepository) Get(ctx context.Context, id string) (models.Report, error) {
	doc, err := r.store.Get(ctx, r.collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.Report{}, ErrReportNotFound
	}
	if err != nil {
		return models.Report{}, fmt.Errorf("get report: %w", err)
	}
	return decodeReport(doc), nil
}

// SetStatus moves a report forward and stamps updatedAt. It writes exactly
// those two fields. Two admins racing on the same report resolve by last
// write.
func (r *ReportRepository) SetStatus(ctx context.Context, id string, next models.ReportStatus) (models.Report, error) {
	next, err := models.ParseReportStatus(string(next))
	if err != nil {
		return models.Report{}, err
	}
	current, err := r.Get(ctx, id)
	if err != nil {
		return models.Report{}, err
	}
	if !current.Status.CanTransitionTo(next) {
		return models.Report{}, fmt.Errorf("%w: %s to %s", models.ErrInvalidTransition, current.Status, next)
	}

	err = r.store.Update(ctx, r.collection, id, docstore.Fields{
		fieldStatus:    string(next),
		fieldUpdatedAt: docstore.ServerTimestamp,
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return models.Report{}, ErrReportNotFound
	}
	if err != nil {
		return models.Report{}, fmt.Errorf("set report status: %w", err)
	}
	return r.Get(ctx, id)
}

// NormalizeStatuses rewrites stored statuses like "Pending" to their
// canonical lowercase form. Unknown values are left alone. It returns the
// number of documents rewritten.
func (r *ReportRepository) NormalizeStatuses(ctx context.Context) (int, error) {
	docs, err := r.store.Query(ctx, docstore.Collection(r.collection))
	if err != nil {
		return 0, fmt.Errorf("list reports: %w", err)
	}

	fixed := 0
	for _, d := range docs {
		raw, _ := d.Fields[fieldStatus].(string)
		status, err := models.ParseReportStatus(raw)
		if err != nil {
			if raw != "" {
				slog.Warn("leaving unknown report status", "id", d.ID, "status", raw)
			}
			continue
		}
		if string(status) == raw {
			continue
		}
		if err := r.store.Update(ctx, r.collection, d.ID, docstore.Fields{fieldStatus: string(status)}); err != nil {
			return fixed, fmt.Errorf("normalize report %s: %w", d.ID, err)
		}
		fixed++
	}
	return fixed, nil
}

func sortReportsNewestFirst(reports []models.Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i].ReportedAt, reports[j].ReportedAt
		switch {
		case a == nil && b == nil:
			return reports[i].ID < reports[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.After(*b)
		}
		return reports[i].ID < reports[j].ID
	})
}
