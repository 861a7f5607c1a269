// Package response defines the HTTP body shapes shared by handlers and the
// error handler. Success responses are plain JSON objects; error responses
// carry a single error object with a business code.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorInfo is the body of every error response.
type ErrorInfo struct {
	Code    string `json:"code"`    // Business error code, e.g. "USER_NOT_FOUND".
	Message string `json:"message"` // User-friendly description.
}

// ErrorResponse wraps ErrorInfo under an "error" key.
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// JSON writes a success payload as-is.
func JSON(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, data)
}

// Error writes an error body with the matching status code.
func Error(c echo.Context, statusCode int, errorCode, message string) error {
	if message == "" {
		message = http.StatusText(statusCode)
	}

	return c.JSON(statusCode, ErrorResponse{
		Error: ErrorInfo{Code: errorCode, Message: message},
	})
}
