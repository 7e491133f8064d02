package handler

import (
	"github.com/codax69/sever-main-sub001/pkg/constant"
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	auth := app.Group("/api/v1/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Post("/google", h.GoogleLogin)
	auth.Post("/refresh", h.Refresh)
	auth.Post("/forgot-password", h.ForgotPassword)
	auth.Post("/reset-password", h.ResetPassword)
	auth.Get("/session", h.OptionalAuth, h.Session)
	auth.Post("/logout", h.Authenticate, h.Logout)
	auth.Patch("/change-password", h.Authenticate, h.ChangePassword)
	auth.Get("/me", h.Authenticate, h.Me)
	auth.Patch("/me", h.Authenticate, h.UpdateMe)

	adminAuth := app.Group("/api/v1/admin/auth")
	adminAuth.Post("/register", h.AdminRegister)
	adminAuth.Post("/login", h.AdminLogin)
	adminAuth.Post("/verify-email", h.VerifyEmail)
	adminAuth.Post("/resend-verification", h.ResendVerification)

	// Admin-only endpoints. The group sits below /users so the public
	// /api/v1/admin/auth routes stay outside its middleware.
	users := app.Group("/api/v1/admin/users", h.Authenticate, h.RequireRole(constant.RoleAdmin))
	users.Get("/", h.ListUsers)
	users.Delete("/:id", h.DeleteUser)
	users.Patch("/:id/approval", h.SetApproval)
	users.Patch("/:id/status", h.SetActive)
}
