package handler

import (
	partnerapp "github.com/clinicledger/backend/internal/application/partner"
	"github.com/gin-gonic/gin"
)

// VendorHandler handles vendor endpoints
type VendorHandler struct {
	BaseHandler
	vendorService *partnerapp.VendorService
}

// NewVendorHandler creates a new VendorHandler
func NewVendorHandler(vendorService *partnerapp.VendorService) *VendorHandler {
	return &VendorHandler{vendorService: vendorService}
}

// List godoc
// @ID           listVendors
// @Summary      List vendors
// @Tags         vendors
// @Produce      json
// @Param        search   query string false "Search by name or email"
// @Param        page     query int    false "Page number" default(1)
// @Param        pageSize query int    false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]partnerapp.VendorResponse]
// @Security     BearerAuth
// @Router       /vendors [get]
func (h *VendorHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter partnerapp.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	vendors, total, err := h.vendorService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, vendors, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getVendorById
// @Summary      Get vendor by ID
// @Tags         vendors
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Success      200 {object} APIResponse[partnerapp.VendorResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vendors/{id} [get]
func (h *VendorHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	vendor, err := h.vendorService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, vendor)
}

// Create godoc
// @ID           createVendor
// @Summary      Create a vendor
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Param        request body partnerapp.VendorRequest true "Vendor"
// @Success      201 {object} APIResponse[partnerapp.VendorResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vendors [post]
func (h *VendorHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req partnerapp.VendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	vendor, err := h.vendorService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, vendor)
}

// Update godoc
// @ID           updateVendor
// @Summary      Update a vendor
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Param        id      path string                   true "Vendor ID" format(uuid)
// @Param        request body partnerapp.VendorRequest true "Vendor"
// @Success      200 {object} APIResponse[partnerapp.VendorResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vendors/{id} [put]
func (h *VendorHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.VendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	vendor, err := h.vendorService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, vendor)
}

// PatientHandler handles patient endpoints
type PatientHandler struct {
	BaseHandler
	patientService *partnerapp.PatientService
}

// NewPatientHandler creates a new PatientHandler
func NewPatientHandler(patientService *partnerapp.PatientService) *PatientHandler {
	return &PatientHandler{patientService: patientService}
}

// List godoc
// @ID           listPatients
// @Summary      List patients
// @Description  Patients ordered by last name
// @Tags         patients
// @Produce      json
// @Param        search   query string false "Search by name, email or phone"
// @Param        page     query int    false "Page number" default(1)
// @Param        pageSize query int    false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]partnerapp.PatientResponse]
// @Security     BearerAuth
// @Router       /patients [get]
func (h *PatientHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter partnerapp.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	patients, total, err := h.patientService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, patients, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getPatientById
// @Summary      Get patient by ID
// @Tags         patients
// @Produce      json
// @Param        id path string true "Patient ID" format(uuid)
// @Success      200 {object} APIResponse[partnerapp.PatientResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patients/{id} [get]
func (h *PatientHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	patient, err := h.patientService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, patient)
}

// Create godoc
// @ID           createPatient
// @Summary      Create a patient
// @Tags         patients
// @Accept       json
// @Produce      json
// @Param        request body partnerapp.PatientRequest true "Patient"
// @Success      201 {object} APIResponse[partnerapp.PatientResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patients [post]
func (h *PatientHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req partnerapp.PatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	patient, err := h.patientService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, patient)
}

// Update godoc
// @ID           updatePatient
// @Summary      Update a patient
// @Tags         patients
// @Accept       json
// @Produce      json
// @Param        id      path string                    true "Patient ID" format(uuid)
// @Param        request body partnerapp.PatientRequest true "Patient"
// @Success      200 {object} APIResponse[partnerapp.PatientResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patients/{id} [put]
func (h *PatientHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.PatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	patient, err := h.patientService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, patient)
}

// Delete godoc
// @ID           deletePatient
// @Summary      Delete a patient
// @Description  Rejected while posted invoices reference the patient
// @Tags         patients
// @Param        id path string true "Patient ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patients/{id} [delete]
func (h *PatientHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.patientService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
