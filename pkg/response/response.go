// Package response writes the JSON envelope every endpoint returns.
package response

import "github.com/gofiber/fiber/v2"

// Envelope is the body of every API response.
type Envelope struct {
	StatusCode int    `json:"statuscode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// New builds an envelope. Success holds for any status below 400.
func New(statusCode int, data any, message string) Envelope {
	return Envelope{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    statusCode < fiber.StatusBadRequest,
	}
}

// JSON writes an envelope with the given status.
func JSON(c *fiber.Ctx, statusCode int, data any, message string) error {
	return c.Status(statusCode).JSON(New(statusCode, data, message))
}

// OK writes a 200 envelope.
func OK(c *fiber.Ctx, data any, message string) error {
	return JSON(c, fiber.StatusOK, data, message)
}

// Created writes a 201 envelope.
func Created(c *fiber.Ctx, data any, message string) error {
	return JSON(c, fiber.StatusCreated, data, message)
}

// Error writes an envelope with no data.
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return JSON(c, statusCode, nil, message)
}
