package utils

import "github.com/gofiber/fiber/v2"

// ErrorBody is the error payload. Most endpoints fill Message; the project
// submission endpoint reports failures under Error.
type ErrorBody struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SendJSON writes data as the bare response body.
func SendJSON(c *fiber.Ctx, status int, data interface{}) error {
	if status == 0 {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(data)
}

// SendError sends {"message": message} with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}
	return c.Status(status).JSON(ErrorBody{Message: message})
}

// SendErrorField sends {"error": message} with the given status code.
func SendErrorField(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}
	return c.Status(status).JSON(ErrorBody{Error: message})
}
