package event

import (
	"testing"

	"github.com/clinicledger/backend/internal/domain/inventory"
	"github.com/clinicledger/backend/internal/domain/trade"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostedInvoice(t *testing.T) *trade.Invoice {
	t.Helper()
	inv, err := trade.NewInvoice(uuid.New(), 1000, uuid.New(), uuid.New(), nil, "", []trade.InvoiceLine{{
		ProductID:   uuid.New(),
		InventoryID: uuid.New(),
		Quantity:    decimal.NewFromInt(2),
		Price:       decimal.NewFromInt(15),
	}})
	require.NoError(t, err)
	require.NoError(t, inv.Post())
	return inv
}

func TestEventSerializer_Register(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	assert.True(t, serializer.IsRegistered(trade.EventTypeInvoicePosted))
	assert.True(t, serializer.IsRegistered(inventory.EventTypeInventoryDispensed))
	assert.True(t, serializer.IsRegistered(inventory.EventTypeInventoryExpiring))
	assert.False(t, serializer.IsRegistered("UnknownEvent"))
	assert.Contains(t, serializer.RegisteredTypes(), trade.EventTypePurchaseOrderReceived)
}

func TestEventSerializer_RoundTrip(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)
	inv := newPostedInvoice(t)
	original := inv.GetDomainEvents()[0]

	data, err := serializer.Serialize(original)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, trade.EventTypeInvoicePosted, env.EventType)
	assert.Equal(t, inv.TenantID, env.TenantID)
	assert.Equal(t, inv.ID, env.AggregateID)

	decoded, err := serializer.Deserialize(data)
	require.NoError(t, err)
	posted, ok := decoded.(*trade.InvoicePostedEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), posted.EventID())
	assert.Equal(t, inv.TenantID, posted.TenantID())
}

func TestEventSerializer_Deserialize_Errors(t *testing.T) {
	serializer := NewEventSerializer()

	_, err := serializer.Deserialize([]byte(`not json`))
	assert.Error(t, err)

	_, err = serializer.Deserialize([]byte(`{"eventType":"Nope","payload":{}}`))
	assert.ErrorContains(t, err, "unknown event type: Nope")
}
