package account

import (
	"go-permits/internal/common/api"
	"go-permits/internal/config"
	"go-permits/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AccountApi struct {
	controller *AccountController
	config     *config.Config
}

func NewAccountApi(controller *AccountController, config *config.Config) api.Route {
	return &AccountApi{
		controller: controller,
		config:     config,
	}
}

func (h *AccountApi) Setup(app *fiber.App) {
	skip := h.config.SkipAuth
	group := app.Group("/api/accounts", middleware.AuthMiddleware(skip))

	personnel := middleware.RequireRoles(skip,
		string(RoleTechnicalStaff),
		string(RoleReceivingClerk),
		string(RoleChiefRPS),
		string(RoleChiefTSD),
		string(RolePENRCENROfficer),
		string(RoleAccountant),
		string(RoleBillCollector),
		string(RoleReleasingClerk),
	)

	group.Get("/", personnel, h.controller.List)
	group.Get("/:id", personnel, h.controller.Get)
}
