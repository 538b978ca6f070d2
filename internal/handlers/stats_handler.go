package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nexxacraft/community-admin/internal/screens"
)

type StatsHandler struct {
	users   screens.UserSource
	reports screens.ReportSource
	loc     *time.Location
	now     func() time.Time
}

func NewStatsHandler(users screens.UserSource, reports screens.ReportSource, loc *time.Location) *StatsHandler {
	return &StatsHandler{users: users, reports: reports, loc: loc, now: time.Now}
}

// Get falls back to all-zero statistics when the store cannot be read.
func (h *StatsHandler) Get(c *fiber.Ctx) error {
	now := h.now()
	stats, err := screens.LoadStats(c.UserContext(), h.users, h.reports, now, h.loc)
	if err != nil {
		slog.Warn("stats read failed", "error", err)
		stats = screens.ComputeReportStats(nil, now, h.loc)
	}
	return c.JSON(stats)
}
