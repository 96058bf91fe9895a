package report

import (
	"go-permits/internal/common/api"
	"go-permits/internal/config"
	"go-permits/internal/features/account"
	"go-permits/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportApi struct {
	controller *ReportController
	config     *config.Config
}

func NewReportApi(controller *ReportController, config *config.Config) api.Route {
	return &ReportApi{
		controller: controller,
		config:     config,
	}
}

func (h *ReportApi) Setup(app *fiber.App) {
	skip := h.config.SkipAuth
	group := app.Group("/api/reports", middleware.AuthMiddleware(skip))

	group.Get("/permits/export", middleware.RequireRoles(skip,
		string(account.RoleChiefRPS),
		string(account.RoleChiefTSD),
		string(account.RolePENRCENROfficer),
		string(account.RoleReceivingClerk),
	), h.controller.ExportPermits)
}
