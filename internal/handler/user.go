package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/finbridge/backoffice/internal/model"
	"github.com/finbridge/backoffice/internal/service"
)

// UserAPI is what the user handler needs from the service layer.
type UserAPI interface {
	Create(ctx context.Context, actor model.Identity, in service.CreateUserInput) (*model.User, error)
	Get(ctx context.Context, actor model.Identity, id string) (*model.User, error)
	List(ctx context.Context, actor model.Identity, includeAdmins bool, page model.Page) ([]*model.User, error)
	Update(ctx context.Context, actor model.Identity, id string, patch model.UserPatch) (*model.User, error)
	SoftDelete(ctx context.Context, actor model.Identity, id, reason string) error
	SetDisabled(ctx context.Context, actor model.Identity, email string, disabled bool) error
	ResetPassword(ctx context.Context, actor model.Identity, email string) error
}

type UserHandler struct {
	svc UserAPI
}

func NewUserHandler(svc UserAPI) *UserHandler {
	return &UserHandler{svc: svc}
}

// Create handles POST /v1/users.
func (h *UserHandler) Create(c echo.Context) error {
	actor, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.normalize()
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := h.svc.Create(c.Request().Context(), actor, service.CreateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newUserResponse(u))
}

// Get handles GET /v1/users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	actor, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	u, err := h.svc.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponse(u))
}

// List handles GET /v1/users. ?include_admins=true widens the listing to
// admin rows; the service only honors it for the root identity.
func (h *UserHandler) List(c echo.Context) error {
	actor, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	includeAdmins := strings.EqualFold(c.QueryParam("include_admins"), "true")
	users, err := h.svc.List(c.Request().Context(), actor, includeAdmins, pageFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"users": newUserListResponse(users)})
}

// Update handles PATCH /v1/users/:id.
func (h *UserHandler) Update(c echo.Context) error {
	actor, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.normalize()
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := h.svc.Update(c.Request().Context(), actor, c.Param("id"), model.UserPatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponse(u))
}

// SoftDelete handles DELETE /v1/users/:id.
func (h *UserHandler) SoftDelete(c echo.Context) error {
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

// SetDisabled handles POST /v1/users/disable.
func (h *UserHandler) SetDisabled(c echo.Context) error {
	actor, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req setDisabledRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SetDisabled(c.Request().Context(), actor, req.Email, req.Disabled); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"email": req.Email, "disabled": req.Disabled})
}

// ResetPassword handles POST /v1/users/reset-password.
func (h *UserHandler) ResetPassword(c echo.Context) error {
	actor, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ResetPassword(c.Request().Context(), actor, req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"email": req.Email, "status": "reset initiated"})
}
