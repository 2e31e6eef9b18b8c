package handler

import (
	locationapp "github.com/clinicledger/backend/internal/application/location"
	"github.com/gin-gonic/gin"
)

// LocationHandler handles clinic locations and their sub-locations
type LocationHandler struct {
	BaseHandler
	locationService *locationapp.LocationService
}

// NewLocationHandler creates a new LocationHandler
func NewLocationHandler(locationService *locationapp.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

// List godoc
// @ID           listLocations
// @Summary      List locations
// @Tags         locations
// @Produce      json
// @Success      200 {object} APIResponse[[]locationapp.LocationResponse]
// @Security     BearerAuth
// @Router       /locations [get]
func (h *LocationHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	locations, err := h.locationService.List(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, locations)
}

// GetByID godoc
// @ID           getLocationById
// @Summary      Get location by ID
// @Tags         locations
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Success      200 {object} APIResponse[locationapp.LocationResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /locations/{id} [get]
func (h *LocationHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	loc, err := h.locationService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, loc)
}

// Create godoc
// @ID           createLocation
// @Summary      Create a location
// @Tags         locations
// @Accept       json
// @Produce      json
// @Param        request body locationapp.CreateLocationRequest true "Location"
// @Success      201 {object} APIResponse[locationapp.LocationResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /locations [post]
func (h *LocationHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req locationapp.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	loc, err := h.locationService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, loc)
}

// Update godoc
// @ID           updateLocation
// @Summary      Update a location
// @Tags         locations
// @Accept       json
// @Produce      json
// @Param        id      path string                            true "Location ID" format(uuid)
// @Param        request body locationapp.UpdateLocationRequest true "Location"
// @Success      200 {object} APIResponse[locationapp.LocationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /locations/{id} [put]
func (h *LocationHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var req locationapp.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	loc, err := h.locationService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, loc)
}

// ListSubLocations godoc
// @ID           listSubLocations
// @Summary      List sub-locations of a location
// @Tags         locations
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Success      200 {object} APIResponse[[]locationapp.SubLocationResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /locations/{id}/sub-locations [get]
func (h *LocationHandler) ListSubLocations(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	subs, err := h.locationService.ListSubLocations(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, subs)
}

// CreateSubLocation godoc
// @ID           createSubLocation
// @Summary      Create a sub-location
// @Tags         locations
// @Accept       json
// @Produce      json
// @Param        id      path string                               true "Location ID" format(uuid)
// @Param        request body locationapp.CreateSubLocationRequest true "Sub-location"
// @Success      201 {object} APIResponse[locationapp.SubLocationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /locations/{id}/sub-locations [post]
func (h *LocationHandler) CreateSubLocation(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var req locationapp.CreateSubLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	sub, err := h.locationService.CreateSubLocation(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sub)
}
