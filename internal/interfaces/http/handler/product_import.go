package handler

import (
	"net/http"

	"github.com/clinicledger/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

const maxImportFileSize = 1 << 20

// Import godoc
// @ID           importProducts
// @Summary      Import products from CSV
// @Description  Creates products from a CSV file with a header row. Only the name column is required. Nothing is created when any row is invalid; every problem is listed with its line number.
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file"
// @Success      201 {object} APIResponse[catalogapp.ProductImportResult]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} APIResponse[catalogapp.ProductImportResult]
// @Security     BearerAuth
// @Router       /products/import [post]
func (h *ProductHandler) Import(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A CSV file is required in the 'file' field")
		return
	}
	if header.Size > maxImportFileSize {
		h.BadRequest(c, "CSV file must be 1 MB or smaller")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Could not read the uploaded file")
		return
	}
	defer file.Close()

	result, err := h.productService.Import(c.Request.Context(), tenantID, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.TotalErrors > 0 {
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeValidation, "CSV file has invalid rows", getRequestID(c))
		resp.Data = result
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	h.Created(c, result)
}
