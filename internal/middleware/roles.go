package middleware

import (
	"slices"

	"go-permits/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// RequireRoles rejects the request unless the caller holds at least one of the
// listed personnel roles. Actor identity comes from the JWT claims injected by
// AuthMiddleware.
func RequireRoles(skipAuth bool, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			return c.Next()
		}

		claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		for _, role := range claims.Roles {
			if slices.Contains(roles, role) {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden: insufficient role",
		})
	}
}

// RequireApplicant restricts a route to client (applicant) accounts.
func RequireApplicant(skipAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			return c.Next()
		}

		claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		if claims.UserType != "client" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: applicants only",
			})
		}

		return c.Next()
	}
}
