package handlers

import (
	"bookstore/internal/auth/models"

	"github.com/gofiber/fiber/v3"
)

// RegisterRoutes mounts the auth and user endpoints under /api/v1.
func RegisterRoutes(router fiber.Router, auth *AuthHandler, users *UserHandler, guard RoleGuard) {
	anyone := RequireRoles(guard, models.RoleUser, models.RoleAdmin)
	adminOnly := RequireRoles(guard, models.RoleAdmin)

	api := router.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", auth.Register)
	authGroup.Post("/login", auth.Login)
	authGroup.Post("/logout", auth.Logout)
	authGroup.Get("/me", anyone, auth.Me)

	userGroup := api.Group("/users")
	userGroup.Get("/", adminOnly, users.List)
	userGroup.Get("/profile", anyone, users.Profile)
	userGroup.Get("/:id", adminOnly, users.Get)
	userGroup.Put("/:id", anyone, users.Update)
	userGroup.Delete("/:id", adminOnly, users.Delete)
}
