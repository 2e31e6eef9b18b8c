package partner

import (
	"testing"
	"time"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVendor(t *testing.T) {
	tenantID := uuid.New()

	t.Run("email is optional", func(t *testing.T) {
		v, err := NewVendor(tenantID, VendorDetails{Name: "McKesson"})
		require.NoError(t, err)
		assert.False(t, v.HasEmail())
	})

	t.Run("normalizes email", func(t *testing.T) {
		v, err := NewVendor(tenantID, VendorDetails{Name: "McKesson", Email: " Orders@McKesson.com "})
		require.NoError(t, err)
		assert.Equal(t, "orders@mckesson.com", v.Email)
		assert.True(t, v.HasEmail())
	})

	t.Run("rejects invalid email and missing name", func(t *testing.T) {
		_, err := NewVendor(tenantID, VendorDetails{Name: "X", Email: "nope"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		_, err = NewVendor(tenantID, VendorDetails{Name: ""})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestVendor_Update(t *testing.T) {
	v, err := NewVendor(uuid.New(), VendorDetails{Name: "A"})
	require.NoError(t, err)
	require.NoError(t, v.Update(VendorDetails{Name: "B", Email: "b@b.co"}))
	assert.Equal(t, "B", v.Name)
	assert.Equal(t, 2, v.Version)
	assert.Error(t, v.Update(VendorDetails{Name: "B", Email: "bad"}))
}

func TestNewPatient(t *testing.T) {
	tenantID := uuid.New()

	p, err := NewPatient(tenantID, PatientDetails{FirstName: "Grace", LastName: "Hopper", Email: "grace@navy.mil"})
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", p.FullName())

	_, err = NewPatient(tenantID, PatientDetails{FirstName: "Grace"})
	assert.Error(t, err)

	future := time.Now().Add(48 * time.Hour)
	_, err = NewPatient(tenantID, PatientDetails{FirstName: "A", LastName: "B", DateOfBirth: &future})
	assert.Error(t, err)
}
