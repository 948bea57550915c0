package models

import (
	"net/mail"
	"strings"

	"seatime-backend/internal/ctxkeys"
)

// User is a crew member (or an administrator) with a login.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // Never expose in JSON responses
	Name         string `json:"name"`
	Rank         string `json:"rank"`
	Role         string `json:"role"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// RegisterRequest contains the fields needed to create a new account.
// Everyone registers as "crew"; admin is granted out of band.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Rank     string `json:"rank"`
}

// Normalize trims whitespace and lowercases the email.
func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
	r.Rank = strings.TrimSpace(r.Rank)
}

// Validate checks that all required registration fields are present.
func (r *RegisterRequest) Validate() map[string]string {
	errors := map[string]string{}

	if r.Email == "" {
		errors["email"] = "Email is required"
	} else if _, err := mail.ParseAddress(r.Email); err != nil {
		errors["email"] = "Email is not valid"
	}
	if len(r.Password) < 8 {
		errors["password"] = "Password must be at least 8 characters"
	}
	if r.Name == "" {
		errors["name"] = "Name is required"
	}

	return errors
}

// LoginRequest contains the credentials for authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that login credentials are present.
func (r *LoginRequest) Validate() map[string]string {
	errors := map[string]string{}

	if strings.TrimSpace(r.Email) == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}

	return errors
}

// AuthResponse is sent back after successful login/registration.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// UpdateRoleRequest changes a user's role (admin only).
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// Validate checks that the role is known.
func (r *UpdateRoleRequest) Validate() map[string]string {
	errors := map[string]string{}
	if !ctxkeys.ValidRoles[r.Role] {
		errors["role"] = "Role must be one of: crew, admin, super_admin"
	}
	return errors
}
