package dashboard

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hakwonplus/hakwon-api/services"
	"github.com/hakwonplus/hakwon-api/utils/middleware"
	"github.com/hakwonplus/hakwon-api/utils/response"
)

// DashboardHandler serves academy-wide counters for the admin screen
type DashboardHandler struct {
	dashboard *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Stats returns the academy's dashboard counters
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.dashboard.GetStats(c.Context(), middleware.AcademyID(c))
	if err != nil {
		return response.InternalServerError(c, "Failed to load dashboard stats")
	}
	return response.Success(c, stats)
}
