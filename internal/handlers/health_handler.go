package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nexxacraft/community-admin/internal/database"
	"github.com/nexxacraft/community-admin/internal/dto"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check always reports status "ok" and mode "docstore"; database trouble
// shows up only in the db field.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := database.Ping(h.db); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Mode:      "docstore",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
	})
}
