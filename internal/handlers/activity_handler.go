package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"tokoadmin/internal/services"
)

// ActivityHandler serves the admin activity log.
type ActivityHandler struct {
	service *services.ActivityService
	logger  *slog.Logger
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(service *services.ActivityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{service: service, logger: logger}
}

// RegisterRoutes registers the activity routes.
func (h *ActivityHandler) RegisterRoutes(router fiber.Router) {
	activityRoutes := router.Group("/activity")
	activityRoutes.Get("/", h.HandleList)
	activityRoutes.Get("/:id", h.HandleGet)
}

// HandleList returns the newest entries, at most ?limit= (default 50).
func (h *ActivityHandler) HandleList(c *fiber.Ctx) error {
	entries, err := h.service.List(c.QueryInt("limit", 50))
	if err != nil {
		return respondError(c, h.logger, err, fiber.StatusInternalServerError, "Could not retrieve activity")
	}
	return c.JSON(entries)
}

// HandleGet returns one entry.
func (h *ActivityHandler) HandleGet(c *fiber.Ctx) error {
	entry, err := h.service.GetByID(c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, fiber.StatusInternalServerError, "Could not retrieve activity entry")
	}
	return c.JSON(entry)
}
