package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticket-reservation/internal/service"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Seat      int    `json:"seat,omitempty"`
	Required  int64  `json:"required,omitempty"`
	Available *int64 `json:"available,omitempty"`
}

// statusFor maps a service error kind to an HTTP status.
func statusFor(se *service.Error) int {
	switch se.Kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindBusinessRule:
		if errors.Is(se, service.ErrNotOwner) {
			return http.StatusForbidden
		}
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError renders err.  Storage failures are reported without detail;
// the service has already logged them.
func writeError(c echo.Context, err error) error {
	var se *service.Error
	if !errors.As(err, &se) || se.Kind == service.KindPersistence {
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "internal error", Code: "INTERNAL"})
	}
	body := errorBody{Error: se.Message, Code: se.Code, Seat: se.Seat}
	if errors.Is(se, service.ErrInsufficientBalance) {
		available := se.Available
		body.Required = se.Required
		body.Available = &available
	}
	return c.JSON(statusFor(se), body)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: msg, Code: "INVALID_INPUT"})
}
