package handlers

import (
	"strings"

	"bookstore/internal/auth/models"

	"github.com/gofiber/fiber/v3"
)

// RoleGuard is the authorization check the middleware delegates to.
type RoleGuard interface {
	RequireAnyRole(token string, roles ...models.Role) (*models.User, error)
}

type localsKey int

const identityKey localsKey = iota

// RequireRoles admits requests whose token belongs to an identity holding
// one of roles and stores that identity for the handlers behind it.
func RequireRoles(guard RoleGuard, roles ...models.Role) fiber.Handler {
	return func(c fiber.Ctx) error {
		user, err := guard.RequireAnyRole(TokenFromRequest(c), roles...)
		if err != nil {
			return err
		}
		c.Locals(identityKey, user)
		return c.Next()
	}
}

// Identity returns the identity stored by RequireRoles, or nil.
func Identity(c fiber.Ctx) *models.User {
	user, _ := c.Locals(identityKey).(*models.User)
	return user
}

// TokenFromRequest reads the session token from the Authorization header.
// Both "Bearer <token>" and a bare token are accepted.
func TokenFromRequest(c fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(auth) > len("Bearer ") && strings.EqualFold(auth[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return auth
}
