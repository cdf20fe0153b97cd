package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/hakwonplus/hakwon-api/utils/response"
)

// HealthHandler serves liveness and readiness checks
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check reports process liveness and database reachability
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := fiber.Map{
		"status":   "ok",
		"database": "ok",
	}

	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.Ping() != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}

	return response.Success(c, status)
}
