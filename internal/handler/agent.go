package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/finbridge/backoffice/internal/model"
	"github.com/finbridge/backoffice/internal/service"
)

// AgentAPI is what the agent handler needs from the service layer.
type AgentAPI interface {
	Create(ctx context.Context, actor model.Identity, in service.CreateAgentInput) (*model.Agent, error)
	Get(ctx context.Context, actor model.Identity, agentID string) (*model.Agent, error)
	List(ctx context.Context, actor model.Identity, page model.Page) ([]*model.Agent, error)
	Update(ctx context.Context, actor model.Identity, agentID string, patch model.AgentPatch) (*model.Agent, error)
	SoftDelete(ctx context.Context, actor model.Identity, agentID, reason string) error
	HardDelete(ctx context.Context, actor model.Identity, agentID string) error
}

type AgentHandler struct {
	svc AgentAPI
}

func NewAgentHandler(svc AgentAPI) *AgentHandler {
	return &AgentHandler{svc: svc}
}

// Create handles POST /v1/agents.
func (h *AgentHandler) Create(c echo.Context) error {
	actor, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req createAgentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.normalize()
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a, err := h.svc.Create(c.Request().Context(), actor, service.CreateAgentInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newAgentResponse(a))
}

// Get handles GET /v1/agents/:id.
func (h *AgentHandler) Get(c echo.Context) error {
	actor, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	a, err := h.svc.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newAgentResponse(a))
}

// List handles GET /v1/agents.
func (h *AgentHandler) List(c echo.Context) error {
	actor, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	agents, err := h.svc.List(c.Request().Context(), actor, pageFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"agents": newAgentListResponse(agents)})
}

// Update handles PATCH /v1/agents/:id.
func (h *AgentHandler) Update(c echo.Context) error {
	actor, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req updateAgentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.normalize()
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a, err := h.svc.Update(c.Request().Context(), actor, c.Param("id"), model.AgentPatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newAgentResponse(a))
}

// SoftDelete handles DELETE /v1/agents/:id. The body is optional; a
// missing or empty reason is recorded with a placeholder.
func (h *AgentHandler) SoftDelete(c echo.Context) error {
	actor, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req deleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SoftDelete(c.Request().Context(), actor, c.Param("id"), req.Reason); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// HardDelete handles DELETE /v1/agents/:id/purge.
func (h *AgentHandler) HardDelete(c echo.Context) error {
	actor, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	if err := h.svc.HardDelete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
