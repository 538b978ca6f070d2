package handlers

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nexxacraft/community-admin/internal/auth"
	"github.com/nexxacraft/community-admin/internal/config"
	"github.com/nexxacraft/community-admin/internal/dto"
	"github.com/nexxacraft/community-admin/internal/metrics"
	"github.com/nexxacraft/community-admin/internal/middleware"
)

type AuthHandler struct {
	authService *auth.Service
	cfg         *config.Config
}

func NewAuthHandler(authService *auth.Service, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if strings.TrimSpace(req.Email) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Email required", Field: "email",
		})
	}
	if req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Password required", Field: "password",
		})
	}

	sess := middleware.SessionFrom(c)
	id, err := sess.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			metrics.LoginAttempts.WithLabelValues("rejected").Inc()
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, auth.ErrAccountDisabled):
			metrics.LoginAttempts.WithLabelValues("disabled").Inc()
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		slog.Error("login failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	metrics.LoginAttempts.WithLabelValues("ok").Inc()

	token := middleware.GatewayFrom(c).Token()
	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  id.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(dto.LoginResponse{AccessToken: token, ExpiresAt: id.ExpiresAt, User: *id})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := middleware.SessionFrom(c).Logout(c.UserContext()); err != nil {
		slog.Error("logout failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to logout",
		})
	}
	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(dto.MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	id := middleware.IdentityFrom(c)
	if id == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}
	return c.JSON(id)
}

// PasswordReset answers the same way whether or not the account exists.
func (h *AuthHandler) PasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := middleware.SessionFrom(c).SendPasswordReset(c.UserContext(), req.Email); err != nil {
		if errors.Is(err, auth.ErrEmailRequired) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Email required", Field: "email",
			})
		}
		slog.Error("password reset request failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to send reset email",
		})
	}
	return c.JSON(dto.MessageResponse{Message: "If the account exists, a reset link has been sent"})
}

func (h *AuthHandler) PasswordResetConfirm(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Token required", Field: "token",
		})
	}

	if err := h.authService.ResetPassword(c.UserContext(), req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, auth.ErrWeakPassword):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(), Field: "password",
			})
		case errors.Is(err, auth.ErrInvalidToken):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(), Field: "token",
			})
		}
		slog.Error("password reset failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to reset password",
		})
	}
	return c.JSON(dto.MessageResponse{Message: "Password updated"})
}
