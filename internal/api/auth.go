package api

import (
	"context"
	"net/http"

	"github.com/noah-isme/gema-projects/internal/dto"
)

// Login exchanges credentials for a token and identity.
func (c *Client) Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error) {
	body, err := jsonBody(payload)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	var out dto.AuthResponse
	err = c.do(ctx, call{
		op:          "login",
		method:      http.MethodPost,
		path:        PathLogin,
		body:        body,
		contentType: "application/json",
		fallback:    "Login failed",
	}, &out)
	return out, err
}

// Register creates a new identity and signs it in.
func (c *Client) Register(ctx context.Context, payload dto.SignupRequest) (dto.AuthResponse, error) {
	body, err := jsonBody(payload)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	var out dto.AuthResponse
	err = c.do(ctx, call{
		op:          "register",
		method:      http.MethodPost,
		path:        PathRegister,
		body:        body,
		contentType: "application/json",
		fallback:    "Signup failed",
	}, &out)
	return out, err
}
