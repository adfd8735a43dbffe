package handler

import (
	"net/http"

	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/service"

	"github.com/gin-gonic/gin"
)

// LedgerHandler serves purchase orders, receipts and the stock log.
type LedgerHandler struct{ svc service.LedgerService }

func NewLedgerHandler(svc service.LedgerService) *LedgerHandler { return &LedgerHandler{svc: svc} }

func (h *LedgerHandler) PlaceOrder(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.PlaceOrder(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *LedgerHandler) ListOrders(c *gin.Context) {
	var filter dto.LedgerFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReceiveOrder godoc
// @Summary      Book a delivery against a purchase order
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string             true "Order id"
// @Param        body body dto.ReceiveRequest true "Delivered quantity"
// @Success      201  {object} dto.ReceiveResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /v1/inventory/orders/{id}/receive [post]
func (h *LedgerHandler) ReceiveOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ReceiveRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ReceiveOrder(c.Request.Context(), actor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *LedgerHandler) RecordReceipt(c *gin.Context) {
	var req dto.DirectReceiptRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordReceipt(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *LedgerHandler) ListReceipts(c *gin.Context) {
	var filter dto.LedgerFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListReceipts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Consume godoc
// @Summary      Consume stock from the oldest receipts first
// @Description  All or nothing: a shortfall answers 409 and leaves every receipt unchanged.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.StockMoveRequest true "Item and quantity"
// @Success      200  {object} dto.ConsumeResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Failure      503  {object} apierror.APIError
// @Router       /v1/inventory/receipts/consume [post]
func (h *LedgerHandler) Consume(c *gin.Context) {
	var req dto.StockMoveRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Consume(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Restore answers 206 when less than the requested amount could be given back.
func (h *LedgerHandler) Restore(c *gin.Context) {
	var req dto.StockMoveRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Restore(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if resp.Partial {
		status = http.StatusPartialContent
	}
	c.JSON(status, resp)
}

func (h *LedgerHandler) CreateStockLog(c *gin.Context) {
	var req dto.StockLogRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateStockLog(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *LedgerHandler) ListStockLogs(c *gin.Context) {
	var filter dto.LedgerFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListStockLogs(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LedgerHandler) ClearStockLogs(c *gin.Context) {
	resp, err := h.svc.ClearStockLogs(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
