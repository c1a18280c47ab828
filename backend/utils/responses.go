package utils

import "github.com/gofiber/fiber/v2"

// StatusResponse is the wire shape of every mutation endpoint: a status
// discriminator plus an optional human-readable message.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Success sends {"status": "success"}.
func Success(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{Status: "success"})
}

// SuccessMessage sends {"status": "success"} with a message.
func SuccessMessage(c *fiber.Ctx, message string) error {
	return c.JSON(StatusResponse{Status: "success", Message: message})
}

// Fail sends {"status": "error"} with the given HTTP status and message.
func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(StatusResponse{Status: "error", Message: message})
}
