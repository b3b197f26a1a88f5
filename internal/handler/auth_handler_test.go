package handler_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-projects/internal/dto"
	"github.com/noah-isme/gema-projects/internal/utils"
)

func TestAuthHandlerLoginSeededAccounts(t *testing.T) {
	c := setupCollaborator(t)

	learner := c.login(t, "learner1@gmail.com")
	require.NotEmpty(t, learner.Token)
	require.Equal(t, dto.RoleLearner, learner.User.Role)

	instructor := c.login(t, "INSTRUCTOR1@gmail.com")
	require.Equal(t, dto.RoleInstructor, instructor.User.Role)
}

func TestAuthHandlerInvalidCredentials(t *testing.T) {
	c := setupCollaborator(t)

	resp := c.do(t, http.MethodPost, "/api/auth/login", "", jsonBody(t, dto.LoginRequest{Email: "learner1@gmail.com", Password: "nope"}), fiber.MIMEApplicationJSON)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var body utils.ErrorBody
	decodeResponse(t, resp, &body)
	require.Equal(t, "Invalid credentials", body.Message)
}

func TestAuthHandlerRegister(t *testing.T) {
	c := setupCollaborator(t)

	payload := dto.SignupRequest{Email: "new@example.com", Password: "pw", Name: "New", Role: dto.RoleInstructor}
	resp := c.do(t, http.MethodPost, "/api/auth/register", "", jsonBody(t, payload), fiber.MIMEApplicationJSON)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var auth dto.AuthResponse
	decodeResponse(t, resp, &auth)
	require.NotEmpty(t, auth.Token)
	require.Equal(t, "New", auth.User.Name)

	resp = c.do(t, http.MethodPost, "/api/auth/register", "", jsonBody(t, payload), fiber.MIMEApplicationJSON)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	payload.Role = "admin"
	payload.Email = "other@example.com"
	resp = c.do(t, http.MethodPost, "/api/auth/register", "", jsonBody(t, payload), fiber.MIMEApplicationJSON)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body utils.ErrorBody
	decodeResponse(t, resp, &body)
	require.Equal(t, "Role must be one of: learner, instructor", body.Message)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	c := setupCollaborator(t)

	for _, path := range []string{"/api/course", "/api/project/dashboard", "/api/project/submissions", "/api/project/evaluation/u1"} {
		resp := c.do(t, http.MethodGet, path, "", nil, "")
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, path)
	}

	resp := c.do(t, http.MethodGet, "/api/course", "garbage", nil, "")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
