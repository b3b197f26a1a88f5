package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/noah-isme/gema-projects/internal/dto"
)

// NetworkErrorMessage is shown when a request could not be sent at all.
const NetworkErrorMessage = "Network error. Please try again."

// ErrUnauthorized matches 401 responses to authenticated requests.
var ErrUnauthorized = errors.New("api: session is no longer valid")

// NetworkError reports that the request never produced an HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-2xx answer from the collaborator.
type APIError struct {
	Op            string
	Status        int
	Message       string
	authenticated bool
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrUnauthorized) match 401s on authenticated calls.
// A rejected login is an ordinary failure, not a session invalidation.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.authenticated && e.Status == http.StatusUnauthorized
}

// Message turns any client error into the text a user should see, falling
// back to fallback for errors that carry nothing presentable.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return NetworkErrorMessage
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	if fallback != "" {
		return fallback
	}
	return "An unexpected error occurred"
}

// resolveMessage picks body message, then body error (swapped for errorFirst
// calls), then the fallback phrase.
func resolveMessage(body []byte, status int, rc call) string {
	var payload dto.ErrorResponse
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		candidates := []string{payload.Message, payload.Error}
		if rc.errorFirst {
			candidates[0], candidates[1] = candidates[1], candidates[0]
		}
		for _, candidate := range candidates {
			if msg := strings.TrimSpace(candidate); msg != "" {
				return msg
			}
		}
	}

	if text := http.StatusText(status); text != "" && rc.statusSuffix {
		return fmt.Sprintf("%s: %s", rc.fallback, text)
	}

	return rc.fallback
}
