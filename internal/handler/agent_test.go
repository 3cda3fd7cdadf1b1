package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/finbridge/backoffice/internal/model"
	"github.com/finbridge/backoffice/internal/service"
)

// stubAgentAPI records the inputs the handler passes down.
type stubAgentAPI struct {
	lastCreate service.CreateAgentInput
	lastPatch  model.AgentPatch
	err        error
}

func (s *stubAgentAPI) Create(_ context.Context, _ model.Identity, in service.CreateAgentInput) (*model.Agent, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastCreate = in
	return &model.Agent{ID: "agent-1", FirstName: in.FirstName, LastName: in.LastName, Email: in.Email, Role: model.RoleAgent}, nil
}

func (s *stubAgentAPI) Get(_ context.Context, _ model.Identity, id string) (*model.Agent, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Agent{ID: id}, nil
}

func (s *stubAgentAPI) List(_ context.Context, _ model.Identity, _ model.Page) ([]*model.Agent, error) {
	return nil, s.err
}

func (s *stubAgentAPI) Update(_ context.Context, _ model.Identity, _ string, patch model.AgentPatch) (*model.Agent, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastPatch = patch
	return &model.Agent{ID: "agent-1"}, nil
}

func (s *stubAgentAPI) SoftDelete(_ context.Context, _ model.Identity, _, _ string) error {
	return s.err
}

func (s *stubAgentAPI) HardDelete(_ context.Context, _ model.Identity, _ string) error {
	return s.err
}

func newTestContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "admin-1")
	c.Set("email", "admin@example.com")
	c.Set("role", model.RoleAdmin)
	return c, rec
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.Nop())
	return e
}

func TestAgentHandler_CreateNormalizesEmail(t *testing.T) {
	e := newTestEcho()
	api := &stubAgentAPI{}
	h := NewAgentHandler(api)

	body := `{"first_name":" Ana ","last_name":"Silva","email":" Ana@Example.COM "}`
	c, rec := newTestContext(e, http.MethodPost, "/v1/agents", body)

	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "ana@example.com", api.lastCreate.Email)
	require.Equal(t, "Ana", api.lastCreate.FirstName)
}

func TestAgentHandler_CreateValidation(t *testing.T) {
	e := newTestEcho()
	h := NewAgentHandler(&stubAgentAPI{})

	body := `{"first_name":"Ana","last_name":"Silva","email":"not-an-email"}`
	c, _ := newTestContext(e, http.MethodPost, "/v1/agents", body)

	err := h.Create(c)
	require.Error(t, err)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestAgentHandler_CreateUnauthenticated(t *testing.T) {
	e := newTestEcho()
	h := NewAgentHandler(&stubAgentAPI{})

	req := httptest.NewRequest(http.MethodPost, "/v1/agents", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Create(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestAgentHandler_UpdateEmptyPatchMapsTo400(t *testing.T) {
	e := newTestEcho()
	api := &stubAgentAPI{err: model.ErrNoFields}
	h := NewAgentHandler(api)

	c, rec := newTestContext(e, http.MethodPatch, "/v1/agents/agent-1", `{}`)
	c.SetParamNames("id")
	c.SetParamValues("agent-1")

	err := h.Update(c)
	require.Error(t, err)
	e.HTTPErrorHandler(err, c)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAgentHandler_SoftDeleteNoBody(t *testing.T) {
	e := newTestEcho()
	api := &stubAgentAPI{}
	h := NewAgentHandler(api)

	c, rec := newTestContext(e, http.MethodDelete, "/v1/agents/agent-1", "")
	c.SetParamNames("id")
	c.SetParamValues("agent-1")

	require.NoError(t, h.SoftDelete(c))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
