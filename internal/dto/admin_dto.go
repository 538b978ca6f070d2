package dto

import (
	"github.com/nexxacraft/community-admin/internal/models"
)

type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

type UserListResponse struct {
	Users []models.ApprovedUser `json:"users"`
	Total int                   `json:"total"`
}

// ValidationErrorResponse carries every failing field of a rejected write.
type ValidationErrorResponse struct {
	Error   bool                `json:"error"`
	Message string              `json:"message"`
	Fields  []models.FieldError `json:"fields"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

type ReportListResponse struct {
	Reports []models.Report `json:"reports"`
	Filter  string          `json:"filter"`
	Total   int             `json:"total"`
}
