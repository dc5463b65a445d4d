package apperror

import (
	"fmt"

	"book-chunker/pkg/apperror/status"
	"book-chunker/pkg/logger"

	"github.com/gofiber/fiber/v3"
)

// ErrorResponse is the standardized HTTP error payload
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

type FiberSuccessMessage struct {
	Code       status.SuccessCode `json:"code"`
	Message    string             `json:"message"`
	TrackingID string             `json:"tracking_id"`
	Data       any                `json:"data"`
}

// WriteError logs a structured warning and returns a standardized JSON error
func WriteError(c fiber.Ctx, httpStatus int, code string, message string) error {
	logger.WithFields(map[string]interface{}{
		"status_code":   httpStatus,
		"error_code":    code,
		"error_message": message,
		"http_method":   c.Method(),
		"path":          c.Path(),
		"url":           c.OriginalURL(),
		"ip":            c.IP(),
	}).Warnf("http error")

	return c.Status(httpStatus).JSON(ErrorResponse{
		Error:     message,
		ErrorCode: code,
	})
}

// Shorthands for common error responses
func BadRequest(c fiber.Ctx, code status.ErrorCode, message string) error {
	return WriteError(c, fiber.StatusBadRequest, fmt.Sprintf("BC-%d", code), message)
}

func InternalError(c fiber.Ctx, err error) error {
	return WriteError(c, fiber.StatusInternalServerError, fmt.Sprintf("BC-%d", status.Internal), err.Error())
}

// Success writes a standardized JSON success response
func Success(c fiber.Ctx, response FiberSuccessMessage) error {
	return c.Status(fiber.StatusOK).JSON(response)
}
