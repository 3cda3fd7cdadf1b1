package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/finbridge/backoffice/internal/model"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler maps the shared error taxonomy onto HTTP status
// codes and renders a consistent JSON envelope. Unexpected errors are
// logged with their real cause and surfaced as a generic 500 so internals
// never leak into responses.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors: bind failures, 404 from the router, and the
	// validation messages handlers wrap in echo.NewHTTPError.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "record not found"
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, "duplicate record"
	case errors.Is(err, model.ErrNoFields):
		return http.StatusBadRequest, "no fields to update"
	case errors.Is(err, model.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, "invalid lifecycle transition"
	case errors.Is(err, model.ErrUnavailable):
		return http.StatusServiceUnavailable, "store unavailable"
	case errors.Is(err, model.ErrDirectoryUnavailable):
		return http.StatusBadGateway, "user directory unavailable"
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
