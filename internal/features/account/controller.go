package account

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type AccountController struct {
	repo AccountRepository
}

func NewAccountController(repo AccountRepository) *AccountController {
	return &AccountController{repo: repo}
}

// List godoc
// @Summary List accounts, filterable by user type or role
// @Tags accounts
// @Router /api/accounts [get]
func (c *AccountController) List(ctx *fiber.Ctx) error {
	if role := ctx.Query("role"); role != "" {
		accounts, err := c.repo.FindByRole(ctx.Context(), Role(role))
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return ctx.JSON(fiber.Map{"data": accounts, "total": len(accounts)})
	}

	accounts, err := c.repo.List(ctx.Context(), UserType(ctx.Query("user_type")))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"data": accounts, "total": len(accounts)})
}

// Get godoc
// @Summary Fetch one account
// @Tags accounts
// @Router /api/accounts/{id} [get]
func (c *AccountController) Get(ctx *fiber.Ctx) error {
	acc, err := c.repo.FindByID(ctx.Context(), ctx.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(acc)
}
