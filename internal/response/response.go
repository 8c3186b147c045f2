// Package response defines the JSON envelope shared by every API endpoint.
// Success responses wrap the payload in {success:true, data:...}; paginated
// lists add a meta block; failures are rendered centrally by the app error
// handler as {success:false, error:{code, message, details?}}.
package response

import (
	"github.com/labstack/echo/v4"

	"github.com/tasknest/tasknest/internal/apperror"
)

// Envelope is the success response body.
type Envelope struct {
	Success bool        `json:"success"`
	Data    any         `json:"data"`
	Meta    *Pagination `json:"meta,omitempty"`
}

// ErrorEnvelope is the failure response body.
type ErrorEnvelope struct {
	Success bool               `json:"success"`
	Error   *apperror.AppError `json:"error"`
}

// Pagination describes the position of a list response within the full
// result set. TotalPages is ceil(Total/Limit).
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes pagination metadata for a list response.
func NewPagination(page, limit int, total int64) *Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// JSON writes a success envelope with the given status code.
func JSON(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

// Paginated writes a success envelope carrying a page of results plus meta.
func Paginated(c echo.Context, status int, data any, meta *Pagination) error {
	return c.JSON(status, Envelope{Success: true, Data: data, Meta: meta})
}

// Error writes the failure envelope. Normally only the central error handler
// calls this; handlers return errors instead of writing responses directly.
func Error(c echo.Context, appErr *apperror.AppError) error {
	return c.JSON(appErr.Status, ErrorEnvelope{Success: false, Error: appErr})
}
