package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/finbridge/backoffice/internal/model"
)

func TestHTTPErrorHandler_Taxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", model.ErrNotFound, http.StatusNotFound},
		{"forbidden", model.ErrForbidden, http.StatusForbidden},
		{"conflict", model.ErrConflict, http.StatusConflict},
		{"no fields", model.ErrNoFields, http.StatusBadRequest},
		{"invalid transition", model.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{"store down", model.ErrUnavailable, http.StatusServiceUnavailable},
		{"directory down", fmt.Errorf("%w: throttled", model.ErrDirectoryUnavailable), http.StatusBadGateway},
		{"wrapped not found", fmt.Errorf("agent lookup: %w", model.ErrNotFound), http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "bad input"), http.StatusBadRequest},
	}

	e := echo.New()
	h := NewHTTPErrorHandler(zerolog.Nop())

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			h(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
		})
	}
}

func TestHTTPErrorHandler_InternalHidesCause(t *testing.T) {
	e := echo.New()
	h := NewHTTPErrorHandler(zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h(errors.New("dsn user:pass@tcp"), c)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != `{"error":"internal server error"}`+"\n" {
		t.Fatalf("internal details leaked: %s", body)
	}
}
