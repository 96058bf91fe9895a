package certificate

import (
	"go-permits/internal/common/api"
	"go-permits/internal/config"
	"go-permits/internal/features/account"
	"go-permits/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type CertificateApi struct {
	controller *CertificateController
	config     *config.Config
}

func NewCertificateApi(controller *CertificateController, config *config.Config) api.Route {
	return &CertificateApi{
		controller: controller,
		config:     config,
	}
}

func (h *CertificateApi) Setup(app *fiber.App) {
	skip := h.config.SkipAuth
	group := app.Group("/api/certificates", middleware.AuthMiddleware(skip))

	officer := middleware.RequireRoles(skip, string(account.RolePENRCENROfficer))

	group.Post("/", officer, h.controller.Generate)
	group.Get("/", h.controller.List)
	group.Post("/sweep", officer, h.controller.Sweep)
	group.Get("/:id", h.controller.Get)
	group.Put("/:id/file", officer, h.controller.Upload)
	group.Post("/:id/sign", officer, h.controller.Sign)
	group.Post("/:id/release", middleware.RequireRoles(skip, string(account.RoleReleasingClerk)), h.controller.Release)
}
