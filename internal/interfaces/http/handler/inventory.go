package handler

import (
	"strconv"

	inventoryapp "github.com/clinicledger/backend/internal/application/inventory"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// InventoryHandler handles stock receipts, transfers, dispenses and queries
type InventoryHandler struct {
	BaseHandler
	inventoryService *inventoryapp.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService *inventoryapp.InventoryService) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
	}
}

// List godoc
// @ID           listInventory
// @Summary      List stock on hand
// @Description  Lot rows with quantity on hand, optionally narrowed to a product, location or sub-location
// @Tags         inventory
// @Produce      json
// @Param        productId     query string false "Product ID" format(uuid)
// @Param        locationId    query string false "Location ID" format(uuid)
// @Param        subLocationId query string false "Sub-location ID" format(uuid)
// @Param        page          query int    false "Page number" default(1)
// @Param        pageSize      query int    false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]inventoryapp.InventoryItemResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory [get]
func (h *InventoryHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter inventoryapp.InventoryListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	if filter.ProductID, ok = h.queryUUID(c, "productId"); !ok {
		return
	}
	if filter.LocationID, ok = h.queryUUID(c, "locationId"); !ok {
		return
	}
	if filter.SubLocationID, ok = h.queryUUID(c, "subLocationId"); !ok {
		return
	}

	items, total, err := h.inventoryService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getInventoryById
// @Summary      Get a stock row
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Inventory item ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.InventoryItemResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/{id} [get]
func (h *InventoryHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	item, err := h.inventoryService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Expiring godoc
// @ID           listExpiringInventory
// @Summary      List stock nearing expiry
// @Description  In-stock rows expiring within the given number of days, soonest first
// @Tags         inventory
// @Produce      json
// @Param        days query int false "Window in days" default(30)
// @Success      200 {object} APIResponse[[]inventoryapp.InventoryItemResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/expiring [get]
func (h *InventoryHandler) Expiring(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	days := inventoryapp.DefaultExpiringDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.BadRequest(c, "days must be a non-negative integer")
			return
		}
		days = n
	}
	items, err := h.inventoryService.Expiring(c.Request.Context(), tenantID, days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// SuggestLots godoc
// @ID           suggestInventoryLots
// @Summary      Suggest lots for a quantity
// @Description  Lots of a product to draw from, soonest expiry first. Expired lots are never suggested.
// @Tags         inventory
// @Produce      json
// @Param        productId  query string true  "Product ID" format(uuid)
// @Param        quantity   query string true  "Quantity to cover"
// @Param        locationId query string false "Location ID" format(uuid)
// @Param        preferLot  query string false "Lot number to draw from first"
// @Success      200 {object} APIResponse[inventoryapp.LotSuggestionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/lots [get]
func (h *InventoryHandler) SuggestLots(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	productID, ok := h.queryUUID(c, "productId")
	if !ok {
		return
	}
	if productID == nil {
		h.BadRequest(c, "productId is required")
		return
	}
	quantity, err := decimal.NewFromString(c.Query("quantity"))
	if err != nil || !quantity.IsPositive() {
		h.BadRequest(c, "quantity must be a number greater than zero")
		return
	}
	req := inventoryapp.LotSuggestionRequest{
		ProductID: *productID,
		Quantity:  quantity,
		PreferLot: c.Query("preferLot"),
	}
	if req.LocationID, ok = h.queryUUID(c, "locationId"); !ok {
		return
	}

	res, err := h.inventoryService.SuggestLots(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// ProductOptions godoc
// @ID           listInventoryProductOptions
// @Summary      Product picker
// @Tags         inventory
// @Produce      json
// @Success      200 {object} APIResponse[[]inventoryapp.OptionResponse]
// @Security     BearerAuth
// @Router       /inventory/products [get]
func (h *InventoryHandler) ProductOptions(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	options, err := h.inventoryService.ProductOptions(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, options)
}

// LocationOptions godoc
// @ID           listInventoryLocationOptions
// @Summary      Location picker
// @Tags         inventory
// @Produce      json
// @Success      200 {object} APIResponse[[]inventoryapp.OptionResponse]
// @Security     BearerAuth
// @Router       /inventory/locations [get]
func (h *InventoryHandler) LocationOptions(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	options, err := h.inventoryService.LocationOptions(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, options)
}

// Receive godoc
// @ID           receiveInventory
// @Summary      Receive stock
// @Description  Records a single-lot receipt and its ledger entry
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string                     false "Replay protection key"
// @Param        request         body   inventoryapp.ReceiveRequest true  "Receipt"
// @Success      201 {object} APIResponse[inventoryapp.InventoryItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory [post]
func (h *InventoryHandler) Receive(c *gin.Context) {
	tenantID, userID, ok := h.principal(c)
	if !ok {
		return
	}
	var req inventoryapp.ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	item, err := h.inventoryService.Receive(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// ReceiveBatch godoc
// @ID           receiveInventoryBatch
// @Summary      Receive a multi-item shipment
// @Description  Records one receipt header with a lot per item, all in one transaction
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string                          false "Replay protection key"
// @Param        request         body   inventoryapp.BatchReceiveRequest true  "Shipment"
// @Success      201 {object} APIResponse[inventoryapp.BatchReceiveResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/batch [post]
func (h *InventoryHandler) ReceiveBatch(c *gin.Context) {
	tenantID, userID, ok := h.principal(c)
	if !ok {
		return
	}
	var req inventoryapp.BatchReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.inventoryService.ReceiveBatch(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Transfer godoc
// @ID           transferInventory
// @Summary      Transfer stock between locations
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string                      false "Replay protection key"
// @Param        request         body   inventoryapp.TransferRequest true  "Transfer"
// @Success      201 {object} APIResponse[inventoryapp.TransferResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *gin.Context) {
	tenantID, userID, ok := h.principal(c)
	if !ok {
		return
	}
	var req inventoryapp.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.inventoryService.Transfer(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListTransfers godoc
// @ID           listInventoryTransfers
// @Summary      List transfers
// @Tags         inventory
// @Produce      json
// @Param        page     query int false "Page number" default(1)
// @Param        pageSize query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]inventoryapp.TransferResponse]
// @Security     BearerAuth
// @Router       /inventory/transfers [get]
func (h *InventoryHandler) ListTransfers(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter inventoryapp.HistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	transfers, total, err := h.inventoryService.ListTransfers(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, transfers, total, filter.Page, filter.PageSize)
}

// ListTransactions godoc
// @ID           listInventoryTransactions
// @Summary      Ledger of one stock row
// @Tags         inventory
// @Produce      json
// @Param        id       path  string true  "Inventory item ID" format(uuid)
// @Param        page     query int    false "Page number" default(1)
// @Param        pageSize query int    false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]inventoryapp.TransactionResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/{id}/transactions [get]
func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var filter inventoryapp.HistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	entries, total, err := h.inventoryService.ListTransactions(c.Request.Context(), tenantID, id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, entries, total, filter.Page, filter.PageSize)
}

// Dispense godoc
// @ID           createDispense
// @Summary      Dispense stock
// @Description  Deducts quantity from a stock row for clinical use
// @Tags         dispenses
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string                      false "Replay protection key"
// @Param        request         body   inventoryapp.DispenseRequest true  "Dispense"
// @Success      201 {object} APIResponse[inventoryapp.DispenseResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /dispenses [post]
func (h *InventoryHandler) Dispense(c *gin.Context) {
	tenantID, userID, ok := h.principal(c)
	if !ok {
		return
	}
	var req inventoryapp.DispenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.inventoryService.Dispense(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListDispenses godoc
// @ID           listDispenses
// @Summary      List dispenses
// @Tags         dispenses
// @Produce      json
// @Param        page     query int false "Page number" default(1)
// @Param        pageSize query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]inventoryapp.DispenseResponse]
// @Security     BearerAuth
// @Router       /dispenses [get]
func (h *InventoryHandler) ListDispenses(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter inventoryapp.HistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	dispenses, total, err := h.inventoryService.ListDispenses(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, dispenses, total, filter.Page, filter.PageSize)
}
