package inspection

import (
	"go-permits/internal/common/api"
	"go-permits/internal/config"
	"go-permits/internal/features/account"
	"go-permits/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type InspectionApi struct {
	controller *InspectionController
	config     *config.Config
}

func NewInspectionApi(controller *InspectionController, config *config.Config) api.Route {
	return &InspectionApi{
		controller: controller,
		config:     config,
	}
}

func (h *InspectionApi) Setup(app *fiber.App) {
	skip := h.config.SkipAuth
	group := app.Group("/api/inspections", middleware.AuthMiddleware(skip))

	staff := middleware.RequireRoles(skip, string(account.RoleTechnicalStaff))

	group.Post("/", staff, h.controller.Schedule)
	group.Get("/", h.controller.List)
	group.Get("/:id", h.controller.Get)
	group.Post("/:id/reschedule", staff, h.controller.Reschedule)
	group.Post("/:id/cancel", staff, h.controller.Cancel)
	group.Post("/:id/findings", staff, h.controller.RecordFindings)
	group.Delete("/:id/findings", staff, h.controller.UndoFindings)
}
