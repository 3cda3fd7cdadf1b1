package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/finbridge/backoffice/internal/model"
	"github.com/finbridge/backoffice/internal/service"
)

// TransactionAPI is what the transaction handler needs from the service
// layer.
type TransactionAPI interface {
	Create(ctx context.Context, actor model.Identity, in service.CreateTransactionInput) (*model.Transaction, error)
	Get(ctx context.Context, id string) (*model.Transaction, error)
	ListByBatch(ctx context.Context, actor model.Identity, batchID string, page model.Page) ([]*model.Transaction, error)
	ListByClient(ctx context.Context, clientID string, typ model.TransactionType, page model.Page) ([]*model.Transaction, error)
	Void(ctx context.Context, actor model.Identity, id, reason string) error
}

type TransactionHandler struct {
	svc TransactionAPI
}

func NewTransactionHandler(svc TransactionAPI) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

// Create handles POST /v1/transactions. Status defaults to pending when
// omitted.
func (h *TransactionHandler) Create(c echo.Context) error {
	actor, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req createTransactionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Status == "" {
		req.Status = string(model.StatusPending)
	}

	t, err := h.svc.Create(c.Request().Context(), actor, service.CreateTransactionInput{
		BatchID:  req.BatchID,
		ClientID: req.ClientID,
		Type:     model.TransactionType(req.Type),
		Amount:   req.Amount,
		Status:   model.TransactionStatus(req.Status),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newTransactionResponse(t))
}

// Get handles GET /v1/transactions/:id.
func (h *TransactionHandler) Get(c echo.Context) error {
	t, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTransactionResponse(t))
}

// ListByBatch handles GET /v1/transactions/batch/:batchID.
func (h *TransactionHandler) ListByBatch(c echo.Context) error {
	actor, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	txs, err := h.svc.ListByBatch(c.Request().Context(), actor, c.Param("batchID"), pageFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": newTransactionListResponse(txs)})
}

// ListByClient handles GET /v1/transactions/client/:clientID. An optional
// ?type=D|W query narrows to deposits or withdrawals.
func (h *TransactionHandler) ListByClient(c echo.Context) error {
	typ := model.TransactionType(c.QueryParam("type"))
	if typ != "" && typ != model.TypeDeposit && typ != model.TypeWithdrawal {
		return echo.NewHTTPError(http.StatusBadRequest, "type must be D or W")
	}
	txs, err := h.svc.ListByClient(c.Request().Context(), c.Param("clientID"), typ, pageFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": newTransactionListResponse(txs)})
}

// Void handles DELETE /v1/transactions/:id.
func (h *TransactionHandler) Void(c echo.Context) error {
	actor, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req voidTransactionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Void(c.Request().Context(), actor, c.Param("id"), req.Reason); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
