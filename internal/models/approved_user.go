package models

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

var ErrInvalidRole = errors.New("role must be member, moderator, or admin")

// ParseRole accepts any casing and returns the canonical role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleMember:
		return RoleMember, nil
	case RoleModerator:
		return RoleModerator, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", ErrInvalidRole
}

// ApprovedUser is one entry of the allow-list managed from the roster screen.
type ApprovedUser struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	Active     bool       `json:"isActive"`
	ApprovedBy string     `json:"approvedBy,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
}

// Matches reports whether search occurs in the name, email or role,
// ignoring case. An empty search matches everything.
func (u ApprovedUser) Matches(search string) bool {
	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(u.Name), q) ||
		strings.Contains(strings.ToLower(u.Email), q) ||
		strings.Contains(strings.ToLower(string(u.Role)), q)
}

// Initials is the avatar text: first letter of the first two words.
func (u ApprovedUser) Initials() string {
	parts := strings.Fields(u.Name)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return strings.ToUpper(firstRune(parts[0]))
	default:
		return strings.ToUpper(firstRune(parts[0]) + firstRune(parts[1]))
	}
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

// NewApprovedUser is the roster "Add User" form.
type NewApprovedUser struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	ApprovedBy string `json:"approvedBy,omitempty"`
}

// Validate checks required fields. Role defaults to member when blank.
func (n NewApprovedUser) Validate() ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(n.Name) == "" {
		errs.add("name", "Name is required")
	}
	validateEmail(&errs, n.Email)
	if strings.TrimSpace(n.Role) != "" {
		if _, err := ParseRole(n.Role); err != nil {
			errs.add("role", "Role must be member, moderator, or admin")
		}
	}
	return errs
}

// Normalized trims input and resolves the role. Call after Validate.
func (n NewApprovedUser) Normalized() NewApprovedUser {
	role := RoleMember
	if r, err := ParseRole(n.Role); err == nil {
		role = r
	}
	return NewApprovedUser{
		Name:       strings.TrimSpace(n.Name),
		Email:      strings.ToLower(strings.TrimSpace(n.Email)),
		Role:       string(role),
		ApprovedBy: strings.TrimSpace(n.ApprovedBy),
	}
}

// UserPatch edits roster fields; nil pointers are left untouched.
type UserPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Role  *string `json:"role,omitempty"`
}

func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Role == nil
}

func (p UserPatch) Validate() ValidationErrors {
	var errs ValidationErrors
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		errs.add("name", "Name is required")
	}
	if p.Email != nil {
		validateEmail(&errs, *p.Email)
	}
	if p.Role != nil {
		if _, err := ParseRole(*p.Role); err != nil {
			errs.add("role", "Role must be member, moderator, or admin")
		}
	}
	return errs
}

func validateEmail(errs *ValidationErrors, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs.add("email", "Email is required")
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		errs.add("email", "Email address is invalid")
	}
}
