package handler

import (
	"context"

	"github.com/erp/revrec/internal/application/batch"
	"github.com/erp/revrec/internal/interfaces/http/dto"
	"github.com/erp/revrec/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SaveHooks reacts to record saves
type SaveHooks interface {
	ReturnAuthorizationCreated(ctx context.Context, id uuid.UUID) error
	ReturnAuthorizationEdited(ctx context.Context, id uuid.UUID) (*batch.Task, error)
	ItemReceiptCreated(ctx context.Context, id uuid.UUID) error
	SalesOrderEdited(ctx context.Context, id uuid.UUID) (bool, error)
	FulfillmentSaved(ctx context.Context, id uuid.UUID) (*batch.Task, error)
}

// HookHandler receives the save signals of the record store
type HookHandler struct {
	BaseHandler
	hooks SaveHooks
}

// NewHookHandler creates a new HookHandler
func NewHookHandler(hooks SaveHooks) *HookHandler {
	return &HookHandler{hooks: hooks}
}

// ReturnAuthorization handles a created or edited return authorization.
// A create flags the return for the next batch pass; an edit of a reship
// return submits the pending-return job.
//
// POST /api/v1/hooks/rma
func (h *HookHandler) ReturnAuthorization(c *gin.Context) {
	var req dto.ReturnAuthorizationHookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	id := uuid.MustParse(req.ID)

	if req.Event == dto.HookEventCreate {
		if err := h.hooks.ReturnAuthorizationCreated(c.Request.Context(), id); err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, dto.HookResponse{Flagged: true})
		return
	}

	task, err := h.hooks.ReturnAuthorizationEdited(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, hookTaskResponse(task))
}

// ItemReceipt flags a created item receipt for the next batch pass
//
// POST /api/v1/hooks/item-receipt
func (h *HookHandler) ItemReceipt(c *gin.Context) {
	id, ok := h.bindHookID(c)
	if !ok {
		return
	}
	if err := h.hooks.ItemReceiptCreated(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.HookResponse{Flagged: true})
}

// SalesOrder flags an edited, closed fulfillment sales order for the close job
//
// POST /api/v1/hooks/fso
func (h *HookHandler) SalesOrder(c *gin.Context) {
	id, ok := h.bindHookID(c)
	if !ok {
		return
	}
	flagged, err := h.hooks.SalesOrderEdited(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.HookResponse{Flagged: flagged})
}

// Fulfillment submits fulfillment revenue for a saved fulfillment and
// returns the task status
//
// POST /api/v1/hooks/fulfillment
func (h *HookHandler) Fulfillment(c *gin.Context) {
	id, ok := h.bindHookID(c)
	if !ok {
		return
	}
	task, err := h.hooks.FulfillmentSaved(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, hookTaskResponse(task))
}

func (h *HookHandler) bindHookID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.HookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return uuid.Nil, false
	}
	return uuid.MustParse(req.ID), true
}

func hookTaskResponse(task *batch.Task) dto.HookResponse {
	if task == nil {
		return dto.HookResponse{}
	}
	resp := dto.ToTaskResponse(task)
	return dto.HookResponse{Task: &resp}
}
