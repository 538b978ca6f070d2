package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Moderator ")
	require.NoError(t, err)
	assert.Equal(t, RoleModerator, r)

	_, err = ParseRole("viewer")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestApprovedUser_Matches(t *testing.T) {
	u := ApprovedUser{Name: "Amina Otieno", Email: "amina@example.org", Role: RoleModerator}

	tests := []struct {
		search string
		want   bool
	}{
		{"", true},
		{"AMINA", true},
		{"example.ORG", true},
		{"moder", true},
		{"admin", false},
		{"zzz", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, u.Matches(tt.search), "search %q", tt.search)
	}
}

func TestApprovedUser_Initials(t *testing.T) {
	assert.Equal(t, "AO", ApprovedUser{Name: "amina otieno wanjiru"}.Initials())
	assert.Equal(t, "Z", ApprovedUser{Name: "zawadi"}.Initials())
	assert.Equal(t, "", ApprovedUser{Name: "  "}.Initials())
}

func TestNewApprovedUser_Validate(t *testing.T) {
	tests := []struct {
		name   string
		in     NewApprovedUser
		fields []string
	}{
		{"valid", NewApprovedUser{Name: "New", Email: "new@example.org", Role: "member"}, nil},
		{"blank role defaults", NewApprovedUser{Name: "New", Email: "new@example.org"}, nil},
		{"missing name", NewApprovedUser{Email: "new@example.org"}, []string{"name"}},
		{"missing everything", NewApprovedUser{}, []string{"name", "email"}},
		{"bad email", NewApprovedUser{Name: "N", Email: "not-an-email"}, []string{"email"}},
		{"display form rejected", NewApprovedUser{Name: "N", Email: "N <n@example.org>"}, []string{"email"}},
		{"bad role", NewApprovedUser{Name: "N", Email: "n@example.org", Role: "viewer"}, []string{"role"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.in.Validate()
			var got []string
			for _, fe := range errs {
				got = append(got, fe.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestNewApprovedUser_Normalized(t *testing.T) {
	n := NewApprovedUser{Name: "  New Person ", Email: " New@Example.org ", Role: ""}.Normalized()
	assert.Equal(t, "New Person", n.Name)
	assert.Equal(t, "new@example.org", n.Email)
	assert.Equal(t, "member", n.Role)
}

func TestUserPatch_Validate(t *testing.T) {
	blank := " "
	bad := "admin@"
	role := "ADMIN"

	assert.True(t, UserPatch{}.Empty())
	assert.Len(t, UserPatch{Name: &blank, Email: &bad}.Validate(), 2)
	assert.Empty(t, UserPatch{Role: &role}.Validate())
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{{Field: "email", Message: "Email is required"}}
	assert.Equal(t, "validation failed: email: Email is required", errs.Error())
	assert.Equal(t, "email", errs.First().Field)
	assert.Equal(t, FieldError{}, ValidationErrors(nil).First())
}
