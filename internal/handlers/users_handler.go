package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/nexxacraft/community-admin/internal/dto"
	"github.com/nexxacraft/community-admin/internal/middleware"
	"github.com/nexxacraft/community-admin/internal/models"
	"github.com/nexxacraft/community-admin/internal/repository"
	"github.com/nexxacraft/community-admin/internal/screens"
)

type UsersHandler struct {
	users      screens.UserSource
	hideAdmins bool
}

func NewUsersHandler(users screens.UserSource, hideAdmins bool) *UsersHandler {
	return &UsersHandler{users: users, hideAdmins: hideAdmins}
}

func (h *UsersHandler) roster() *screens.Roster {
	return screens.NewRoster(h.users, h.hideAdmins)
}

func (h *UsersHandler) List(c *fiber.Ctx) error {
	r := h.roster()
	r.Load(c.UserContext())
	r.SetSearch(c.Query("search"))
	users := r.Visible()
	return c.JSON(dto.UserListResponse{Users: users, Total: len(users)})
}

func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	in := models.NewApprovedUser{Name: req.Name, Email: req.Email, Role: req.Role}
	if id := middleware.IdentityFrom(c); id != nil {
		in.ApprovedBy = id.Email
	}

	user, err := h.roster().Create(c.UserContext(), in)
	if err != nil {
		return h.writeError(c, "create", err)
	}
	slog.Info("approved user added", "actor", in.ApprovedBy, "action", "user_create", "user_id", user.ID)
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	patch := models.UserPatch{Name: req.Name, Email: req.Email, Role: req.Role}
	user, err := h.roster().Update(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return h.writeError(c, "update", err)
	}
	return c.JSON(user)
}

func (h *UsersHandler) ToggleActive(c *fiber.Ctx) error {
	user, err := h.roster().ToggleActive(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.writeError(c, "toggle", err)
	}
	slog.Info("approved user toggled", "actor", actor(c), "action", "user_toggle_active", "user_id", user.ID, "active", user.Active)
	return c.JSON(user)
}

// Delete only proceeds with ?confirm=true.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.roster().Delete(c.UserContext(), id, c.QueryBool("confirm")); err != nil {
		if errors.Is(err, screens.ErrDeleteNotConfirmed) {
			return c.Status(fiber.StatusPreconditionRequired).JSON(dto.ErrorResponse{
				Error: true, Message: "Deletion must be confirmed with confirm=true",
			})
		}
		return h.writeError(c, "delete", err)
	}
	slog.Info("approved user deleted", "actor", actor(c), "action", "user_delete", "user_id", id)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UsersHandler) writeError(c *fiber.Ctx, op string, err error) error {
	var verrs models.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ValidationErrorResponse{
			Error: true, Message: verrs.First().Message, Fields: verrs,
		})
	case errors.Is(err, repository.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "User not found",
		})
	}
	slog.Error("user write failed", "op", op, "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Failed to " + op + " user",
	})
}

func actor(c *fiber.Ctx) string {
	if id := middleware.IdentityFrom(c); id != nil {
		return id.Email
	}
	return ""
}
