// Package response defines the JSON envelope every portal endpoint replies
// with. Success bodies carry their payload under "data"; error bodies carry a
// single human-readable "error" string the handlers derive from domain errors,
// never raw storage or codec errors.
package response

import "github.com/gofiber/fiber/v2"

// Response is the envelope for all API replies
type Response struct {
	// Success tells clients whether to read Data or Error
	Success bool `json:"success"`
	// Message is an optional human-readable note on success ("Application
	// archived", "Logged out successfully")
	Message string `json:"message,omitempty"`
	// Data holds the endpoint payload: entities, token pairs, listings with
	// their pagination block
	Data interface{} `json:"data,omitempty"`
	// Error holds the failure description when Success is false
	Error string `json:"error,omitempty"`
}

// Success sends a 200 envelope with the given payload
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{Success: true, Message: message, Data: data})
}

// Created sends a 201 envelope, used after submissions and archivals
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{Success: true, Message: message, Data: data})
}

// Error sends an error envelope with the given status code
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Response{Success: false, Error: message})
}

// BadRequest maps validation failures to 400
func BadRequest(c *fiber.Ctx, message string) error { return Error(c, fiber.StatusBadRequest, message) }

// Unauthorized maps missing or bad credentials to 401
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message)
}

// Forbidden maps role failures to 403
func Forbidden(c *fiber.Ctx, message string) error { return Error(c, fiber.StatusForbidden, message) }

// NotFound maps missing entities to 404. Handlers also use it for entities
// the caller must not learn exist, such as another applicant's application.
func NotFound(c *fiber.Ctx, message string) error { return Error(c, fiber.StatusNotFound, message) }

// Conflict maps duplicate-state failures to 409: an active application
// already filed, an application already archived
func Conflict(c *fiber.Ctx, message string) error { return Error(c, fiber.StatusConflict, message) }

// InternalServerError maps everything unexpected to 500
func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}
