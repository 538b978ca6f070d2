package screens

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nexxacraft/community-admin/internal/docstore"
	"github.com/nexxacraft/community-admin/internal/models"
)

// EvidenceLinker turns a stored evidence reference into a URL a browser can
// open.
type EvidenceLinker interface {
	Link(ctx context.Context, raw string) (string, error)
}

type ReportDetail struct {
	models.Report
	ShortID      string               `json:"shortId"`
	Actions      models.ReportActions `json:"actions"`
	EvidenceLink string               `json:"evidenceLink,omitempty"`
}

// Triage is the report list scoped to one status filter. At most one
// subscription is open at a time.
type Triage struct {
	reports  ReportSource
	evidence EvidenceLinker

	mu      sync.Mutex
	filter  models.StatusFilter
	list    []models.Report
	unsub   docstore.Unsubscribe
	gen     int
	mounted bool
	watch   watchers[[]models.Report]
}

func NewTriage(reports ReportSource, evidence EvidenceLinker) *Triage {
	return &Triage{reports: reports, evidence: evidence}
}

func (t *Triage) Mount(ctx context.Context) {
	t.mu.Lock()
	t.mounted = true
	filter := t.filter
	t.mu.Unlock()
	t.subscribe(ctx, filter)
}

// SetFilter closes the current subscription before opening one for filter.
func (t *Triage) SetFilter(ctx context.Context, filter models.StatusFilter) {
	t.mu.Lock()
	t.filter = filter
	mounted := t.mounted
	t.mu.Unlock()

	if mounted {
		t.subscribe(ctx, filter)
	}
}

func (t *Triage) subscribe(ctx context.Context, filter models.StatusFilter) {
	t.mu.Lock()
	prev := t.unsub
	t.unsub = nil
	t.gen++
	gen := t.gen
	t.list = nil
	t.mu.Unlock()

	if prev != nil {
		prev()
	}

	unsub, err := t.reports.Subscribe(ctx, filter,
		func(reports []models.Report) { t.replace(gen, reports) },
		func(err error) { t.onReadError(gen, err) },
	)
	if err != nil {
		t.onReadError(gen, err)
		return
	}

	t.mu.Lock()
	// Unmounted or refiltered while subscribing.
	if t.gen != gen || !t.mounted {
		t.mu.Unlock()
		unsub()
		return
	}
	t.unsub = unsub
	t.mu.Unlock()
}

func (t *Triage) Unmount() {
	t.mu.Lock()
	prev := t.unsub
	t.unsub = nil
	t.mounted = false
	t.gen++
	t.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Load reads the filtered list once without subscribing.
func (t *Triage) Load(ctx context.Context, filter models.StatusFilter) {
	t.mu.Lock()
	t.filter = filter
	gen := t.gen
	t.mu.Unlock()

	reports, err := t.reports.List(ctx, filter)
	if err != nil {
		t.onReadError(gen, err)
		return
	}
	t.replace(gen, reports)
}

func (t *Triage) replace(gen int, reports []models.Report) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.list = reports
	out := append([]models.Report(nil), reports...)
	t.mu.Unlock()
	t.watch.notify(out)
}

func (t *Triage) onReadError(gen int, err error) {
	slog.Warn("triage read failed", "error", err)
	t.replace(gen, nil)
}

func (t *Triage) Filter() models.StatusFilter {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.filter
}

func (t *Triage) Reports() []models.Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.Report(nil), t.list...)
}

func (t *Triage) Watch(fn func([]models.Report)) func() {
	return t.watch.add(fn)
}

// SetStatus writes a new status. The list catches up through the
// subscription.
func (t *Triage) SetStatus(ctx context.Context, id string, status models.ReportStatus) (ReportDetail, error) {
	r, err := t.reports.SetStatus(ctx, id, status)
	if err != nil {
		return ReportDetail{}, err
	}
	return t.detail(ctx, r), nil
}

func (t *Triage) Detail(ctx context.Context, id string) (ReportDetail, error) {
	r, err := t.reports.Get(ctx, id)
	if err != nil {
		return ReportDetail{}, err
	}
	return t.detail(ctx, r), nil
}

func (t *Triage) detail(ctx context.Context, r models.Report) ReportDetail {
	d := ReportDetail{Report: r, ShortID: r.ShortID(), Actions: r.Actions()}
	if r.EvidenceURL == "" {
		return d
	}
	d.EvidenceLink = r.EvidenceURL
	if t.evidence != nil {
		link, err := t.evidence.Link(ctx, r.EvidenceURL)
		if err != nil {
			slog.Warn("evidence link unavailable", "report_id", r.ID, "error", err)
			d.EvidenceLink = ""
		} else {
			d.EvidenceLink = link
		}
	}
	return d
}
