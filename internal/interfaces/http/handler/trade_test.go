package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/clinicledger/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceHandler_DraftPostAndRender(t *testing.T) {
	env := newAPIEnv(t)
	productID := env.createProduct("Cephalexin", "CPX")
	mainID := env.createLocation("Main")
	itemID := env.receive(productID, mainID, "LOT-C", 10)
	patientID := env.createPatient("Milo", "Barker")

	inv := env.data(http.MethodPost, "/invoices", map[string]any{
		"patientId":  patientID,
		"locationId": mainID,
		"items": []map[string]any{
			{"productId": productID, "inventoryId": itemID, "quantity": 2, "price": "12.50"},
		},
	}, http.StatusCreated)
	invoiceID := inv["id"].(string)
	assert.Equal(t, "DRAFT", inv["status"])
	assert.Equal(t, "25", inv["total"])

	inv = env.data(http.MethodPost, "/invoices/"+invoiceID+"/items", map[string]any{
		"items": []map[string]any{
			{"productId": productID, "inventoryId": itemID, "quantity": 1, "price": "12.50"},
		},
	}, http.StatusOK)
	assert.Len(t, inv["items"], 2)

	inv = env.data(http.MethodPost, "/invoices/"+invoiceID+"/post", nil, http.StatusOK)
	assert.Equal(t, "POSTED", inv["status"])
	assert.NotNil(t, inv["postedAt"])

	item := env.data(http.MethodGet, "/inventory/"+itemID, nil, http.StatusOK)
	assert.Equal(t, "7", item["quantityOnHand"])

	w := env.do(http.MethodPost, "/invoices/"+invoiceID+"/post", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidState, errorCode(t, w))

	w = env.do(http.MethodPost, "/invoices/"+invoiceID+"/items", map[string]any{
		"items": []map[string]any{{"productId": productID, "inventoryId": itemID, "quantity": 1, "price": "1"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/invoices/"+invoiceID+"/pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `inline; filename="invoice-`)
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))

	invoices, _ := env.list("/invoices?status=POSTED")
	assert.Len(t, invoices, 1)

	w = env.do(http.MethodDelete, "/patients/"+patientID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceHandler_PostWithoutStockLeavesDraft(t *testing.T) {
	env := newAPIEnv(t)
	productID := env.createProduct("Gabapentin", "GBP")
	mainID := env.createLocation("Main")
	itemID := env.receive(productID, mainID, "LOT-G", 1)
	patientID := env.createPatient("Luna", "Ortiz")

	inv := env.data(http.MethodPost, "/invoices", map[string]any{
		"patientId":  patientID,
		"locationId": mainID,
		"items": []map[string]any{
			{"productId": productID, "inventoryId": itemID, "quantity": 3, "price": "4"},
		},
	}, http.StatusCreated)
	invoiceID := inv["id"].(string)

	w := env.do(http.MethodPost, "/invoices/"+invoiceID+"/post", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInsufficientStock, errorCode(t, w))
	assert.Contains(t, decodeBody(t, w)["error"].(map[string]any)["message"], "Gabapentin")

	inv = env.data(http.MethodGet, "/invoices/"+invoiceID, nil, http.StatusOK)
	assert.Equal(t, "DRAFT", inv["status"])
	item := env.data(http.MethodGet, "/inventory/"+itemID, nil, http.StatusOK)
	assert.Equal(t, "1", item["quantityOnHand"])
}

func TestPurchaseOrderHandler_Lifecycle(t *testing.T) {
	env := newAPIEnv(t)
	productID := env.createProduct("Heartworm test kit", "HW-KIT")
	mainID := env.createLocation("Main")
	vendor := env.data(http.MethodPost, "/vendors", map[string]any{
		"name":  "MedSupply",
		"email": "orders@medsupply.test",
	}, http.StatusCreated)

	order := env.data(http.MethodPost, "/purchase-orders", map[string]any{
		"vendorId":   vendor["id"],
		"locationId": mainID,
		"items":      []map[string]any{{"productId": productID, "quantity": 4, "price": "30"}},
	}, http.StatusCreated)
	orderID := order["id"].(string)
	assert.Equal(t, "DRAFT", order["status"])

	w := env.do(http.MethodGet, "/purchase-orders/"+orderID+"/document", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	order = env.data(http.MethodPost, "/purchase-orders/"+orderID+"/post", nil, http.StatusOK)
	assert.Equal(t, "POSTED", order["status"])
	assert.Equal(t, true, order["hasDocument"])

	sent := env.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"orders@medsupply.test"}, sent[0].To)
	require.Len(t, sent[0].Attachments, 1)

	doc := env.data(http.MethodGet, "/purchase-orders/"+orderID+"/document", nil, http.StatusOK)
	assert.Contains(t, doc["url"], "/download/purchase-orders/")

	itemID := order["items"].([]any)[0].(map[string]any)["id"]
	order = env.data(http.MethodPost, "/purchase-orders/"+orderID+"/receive", map[string]any{
		"items": []map[string]any{{"itemId": itemID, "lotNumber": "HW-1", "serialNumber": "S-9"}},
	}, http.StatusOK)
	assert.Equal(t, "RECEIVED", order["status"])

	rows, _ := env.list("/inventory?productId=" + productID)
	require.Len(t, rows, 1)
	assert.Equal(t, "4", rows[0].(map[string]any)["quantityOnHand"])
	assert.Equal(t, "HW-1", rows[0].(map[string]any)["lotNumber"])

	w = env.do(http.MethodPost, "/purchase-orders/"+orderID+"/cancel", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPurchaseOrderHandler_PostRequiresVendorEmail(t *testing.T) {
	env := newAPIEnv(t)
	productID := env.createProduct("Gloves", "GLV")
	mainID := env.createLocation("Main")
	vendor := env.data(http.MethodPost, "/vendors", map[string]any{"name": "Walk-in"}, http.StatusCreated)

	order := env.data(http.MethodPost, "/purchase-orders", map[string]any{
		"vendorId":   vendor["id"],
		"locationId": mainID,
		"items":      []map[string]any{{"productId": productID, "quantity": 1, "price": "9"}},
	}, http.StatusCreated)
	orderID := order["id"].(string)

	w := env.do(http.MethodPost, "/purchase-orders/"+orderID+"/post", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.mailer.Sent())

	order = env.data(http.MethodPost, "/purchase-orders/"+orderID+"/cancel", nil, http.StatusOK)
	assert.Equal(t, "CANCELLED", order["status"])
}
