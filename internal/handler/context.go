// Package handler defines the HTTP layer: request schemas, binding and
// validation, and translation of service errors into status codes.
package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/finbridge/backoffice/internal/model"
)

// identityFrom assembles the verified caller from the claims JWTAuth
// stored in the context. An empty ID means the route was registered
// without the auth middleware, which is a wiring bug, so handlers treat
// it as unauthenticated.
func identityFrom(c echo.Context) (model.Identity, bool) {
	id, _ := c.Get("user_id").(string)
	if id == "" {
		return model.Identity{}, false
	}
	email, _ := c.Get("email").(string)
	role, _ := c.Get("role").(string)
	groups, _ := c.Get("groups").([]string)
	return model.Identity{ID: id, Email: email, Role: role, Groups: groups}, true
}

// pageFrom reads limit/offset query parameters. Out-of-range values are
// clamped later by Page.Normalize; non-numeric values fall back to zero.
func pageFrom(c echo.Context) model.Page {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	return model.Page{Limit: limit, Offset: offset}
}
