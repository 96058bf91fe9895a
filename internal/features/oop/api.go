package oop

import (
	"go-permits/internal/common/api"
	"go-permits/internal/config"
	"go-permits/internal/features/account"
	"go-permits/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type OOPApi struct {
	controller *OOPController
	config     *config.Config
}

func NewOOPApi(controller *OOPController, config *config.Config) api.Route {
	return &OOPApi{
		controller: controller,
		config:     config,
	}
}

func (h *OOPApi) Setup(app *fiber.App) {
	skip := h.config.SkipAuth
	group := app.Group("/api/oops", middleware.AuthMiddleware(skip))

	group.Post("/", middleware.RequireRoles(skip, string(account.RoleChiefRPS)), h.controller.Create)
	group.Get("/", h.controller.List)
	group.Get("/:id", h.controller.Get)

	group.Put("/:id/signature", middleware.RequireRoles(skip,
		string(account.RoleChiefRPS),
		string(account.RoleChiefTSD),
	), h.controller.Sign)
	group.Post("/:id/forward", middleware.RequireRoles(skip, string(account.RoleChiefRPS)), h.controller.Forward)
	group.Post("/:id/approve", middleware.RequireRoles(skip, string(account.RoleAccountant)), h.controller.Approve)

	group.Post("/:id/payment-proof", middleware.RequireApplicant(skip), h.controller.SubmitProof)
	group.Post("/:id/payment-proof/review", middleware.RequireRoles(skip,
		string(account.RoleAccountant),
		string(account.RoleBillCollector),
	), h.controller.ReviewProof)
	group.Post("/:id/or", middleware.RequireRoles(skip, string(account.RoleBillCollector)), h.controller.IssueOR)

	group.Delete("/:id", middleware.RequireRoles(skip, string(account.RoleChiefRPS)), h.controller.Undo)
}
