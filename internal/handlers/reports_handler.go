package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/nexxacraft/community-admin/internal/dto"
	"github.com/nexxacraft/community-admin/internal/metrics"
	"github.com/nexxacraft/community-admin/internal/models"
	"github.com/nexxacraft/community-admin/internal/repository"
	"github.com/nexxacraft/community-admin/internal/screens"
)

type ReportsHandler struct {
	reports  screens.ReportSource
	evidence screens.EvidenceLinker
}

func NewReportsHandler(reports screens.ReportSource, evidence screens.EvidenceLinker) *ReportsHandler {
	return &ReportsHandler{reports: reports, evidence: evidence}
}

func (h *ReportsHandler) triage() *screens.Triage {
	return screens.NewTriage(h.reports, h.evidence)
}

func (h *ReportsHandler) List(c *fiber.Ctx) error {
	filter, err := models.ParseStatusFilter(c.Query("status"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "status must be all, pending, reviewed, or resolved", Field: "status",
		})
	}

	t := h.triage()
	t.Load(c.UserContext(), filter)
	reports := t.Reports()
	return c.JSON(dto.ReportListResponse{Reports: reports, Filter: filter.String(), Total: len(reports)})
}

func (h *ReportsHandler) Get(c *fiber.Ctx) error {
	detail, err := h.triage().Detail(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(detail)
}

func (h *ReportsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	detail, err := h.triage().SetStatus(c.UserContext(), c.Params("id"), models.ReportStatus(req.Status))
	if err != nil {
		return h.writeError(c, err)
	}
	metrics.ReportStatusChanges.WithLabelValues(string(detail.Status)).Inc()
	slog.Info("report status changed", "actor", actor(c), "action", "report_status", "report_id", detail.ID, "status", detail.Status)
	return c.JSON(detail)
}

func (h *ReportsHandler) writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrReportNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Report not found",
		})
	case errors.Is(err, models.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(), Field: "status",
		})
	case errors.Is(err, models.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(), Field: "status",
		})
	}
	slog.Error("report request failed", "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Failed to process report",
	})
}
