package handler

import (
	"net/http"
	"testing"

	"github.com/clinicledger/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembershipHandler(t *testing.T) {
	env := newAPIEnv(t)
	productID := env.createProduct("Annual exam", "EXAM")
	patientID := env.createPatient("Bo", "Nguyen")

	tier := env.data(http.MethodPost, "/memberships/tiers", map[string]any{
		"name":      "Wellness Gold",
		"price":     "29.99",
		"frequency": "MONTHLY",
		"benefits": []map[string]any{
			{"name": "10% off", "benefitType": "DISCOUNT_PERCENTAGE", "value": "10"},
			{"name": "Free exam", "benefitType": "FREE_SERVICE", "value": "0", "productId": productID},
		},
	}, http.StatusCreated)
	tierID := tier["id"].(string)
	assert.Len(t, tier["benefits"], 2)

	sub := env.data(http.MethodPost, "/memberships/tiers/"+tierID+"/subscriptions",
		map[string]any{"patientId": patientID}, http.StatusCreated)
	assert.Equal(t, "ACTIVE", sub["status"])

	w := env.do(http.MethodPost, "/memberships/tiers/"+tierID+"/subscriptions", map[string]any{"patientId": patientID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeAlreadyExists, errorCode(t, w))

	w = env.do(http.MethodGet, "/memberships/tiers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tiers := decodeBody(t, w)["data"].([]any)
	require.Len(t, tiers, 1)
	assert.EqualValues(t, 1, tiers[0].(map[string]any)["activeSubscriptions"])

	cancelled := env.data(http.MethodPost, "/memberships/subscriptions/"+sub["id"].(string)+"/cancel", nil, http.StatusOK)
	assert.Equal(t, "CANCELLED", cancelled["status"])

	w = env.do(http.MethodGet, "/memberships/tiers/"+tierID+"/subscriptions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["data"].([]any), 1)

	w = env.do(http.MethodPost, "/memberships/tiers", map[string]any{"name": "Bad", "frequency": "WEEKLY"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
