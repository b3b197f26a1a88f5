package dto

import "strings"

// Role identifies what a user may do in the application.
type Role string

const (
	// RoleLearner submits projects against courses.
	RoleLearner Role = "learner"
	// RoleInstructor reviews and evaluates submissions.
	RoleInstructor Role = "instructor"
)

// Valid reports whether the role is one the collaborator understands.
func (r Role) Valid() bool {
	return r == RoleLearner || r == RoleInstructor
}

// User is the identity record issued by the authentication collaborator.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Email string `json:"email,omitempty"`
}

// IsInstructor reports whether the user reviews submissions.
func (u User) IsInstructor() bool {
	return u.Role == RoleInstructor
}

// LoginRequest carries credentials for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Normalize trims surrounding whitespace from the email address.
func (r LoginRequest) Normalize() LoginRequest {
	r.Email = strings.TrimSpace(r.Email)
	return r
}

// SignupRequest carries the new identity for POST /auth/register.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Role     Role   `json:"role" validate:"required,oneof=learner instructor"`
}

// Normalize trims surrounding whitespace from the free-text fields.
func (r SignupRequest) Normalize() SignupRequest {
	r.Email = strings.TrimSpace(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	r.Role = Role(strings.ToLower(strings.TrimSpace(string(r.Role))))
	return r
}

// AuthResponse is returned by both login and register.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ErrorResponse is the error body shape used by the collaborator.
type ErrorResponse struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
