package permit

import (
	"go-permits/internal/common/api"
	"go-permits/internal/config"
	"go-permits/internal/features/account"
	"go-permits/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type PermitApi struct {
	controller *PermitController
	config     *config.Config
}

func NewPermitApi(controller *PermitController, config *config.Config) api.Route {
	return &PermitApi{
		controller: controller,
		config:     config,
	}
}

func (h *PermitApi) Setup(app *fiber.App) {
	skip := h.config.SkipAuth
	group := app.Group("/api/permits", middleware.AuthMiddleware(skip))

	group.Post("/", h.controller.Create)
	group.Get("/", h.controller.List)
	group.Get("/:id", h.controller.Get)

	group.Post("/:id/submit", middleware.RequireApplicant(skip), h.controller.Submit)
	group.Post("/:id/unsubmit", middleware.RequireApplicant(skip), h.controller.Unsubmit)

	group.Post("/:id/review", middleware.RequireRoles(skip, string(account.RoleTechnicalStaff)), h.controller.Review)
	group.Post("/:id/accept", middleware.RequireRoles(skip, string(account.RoleTechnicalStaff)), h.controller.Accept)
	group.Post("/:id/return", middleware.RequireRoles(skip,
		string(account.RoleTechnicalStaff),
		string(account.RoleReceivingClerk),
		string(account.RolePENRCENROfficer),
	), h.controller.Return)

	group.Post("/:id/record", middleware.RequireRoles(skip, string(account.RoleReceivingClerk)), h.controller.Record)
	group.Post("/:id/undo-record", middleware.RequireRoles(skip, string(account.RoleReceivingClerk)), h.controller.UndoRecord)

	group.Post("/:id/chief-review", middleware.RequireRoles(skip, string(account.RoleChiefRPS)), h.controller.ChiefReview)

	group.Post("/:id/officer-accept", middleware.RequireRoles(skip, string(account.RolePENRCENROfficer)), h.controller.OfficerAccept)
	group.Post("/:id/undo-officer-accept", middleware.RequireRoles(skip, string(account.RolePENRCENROfficer)), h.controller.UndoOfficerAccept)
	group.Post("/:id/approve", middleware.RequireRoles(skip, string(account.RolePENRCENROfficer)), h.controller.Approve)
	group.Post("/:id/reject", middleware.RequireRoles(skip, string(account.RolePENRCENROfficer)), h.controller.Reject)

	group.Put("/:id/stage", middleware.RequireRoles(skip,
		string(account.RoleTechnicalStaff),
		string(account.RoleReceivingClerk),
		string(account.RoleChiefRPS),
		string(account.RoleChiefTSD),
		string(account.RolePENRCENROfficer),
	), h.controller.UpdateStage)

	group.Post("/:id/release", middleware.RequireRoles(skip, string(account.RoleReleasingClerk)), h.controller.Release)
}
