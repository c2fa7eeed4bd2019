package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RequireScope ensures the caller's token carries scope.
func RequireScope(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if !principal.HasScope(scope) {
			return fiber.NewError(http.StatusForbidden, "missing scope "+scope)
		}
		return c.Next()
	}
}

// RequireUser ensures the caller is acting as a platform user.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.UserID == "" {
			return fiber.NewError(http.StatusForbidden, "user token required")
		}
		return c.Next()
	}
}
