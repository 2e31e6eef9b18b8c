package event

import (
	"github.com/clinicledger/backend/internal/domain/catalog"
	"github.com/clinicledger/backend/internal/domain/identity"
	"github.com/clinicledger/backend/internal/domain/inventory"
	"github.com/clinicledger/backend/internal/domain/membership"
	"github.com/clinicledger/backend/internal/domain/trade"
)

// RegisterAllEvents registers every domain event type with the serializer.
func RegisterAllEvents(serializer *EventSerializer) {
	serializer.Register(identity.EventTypeOrganizationCreated, &identity.OrganizationCreatedEvent{})
	serializer.Register(identity.EventTypeOrganizationUpgraded, &identity.OrganizationUpgradedEvent{})
	serializer.Register(identity.EventTypeUserSynced, &identity.UserSyncedEvent{})

	serializer.Register(catalog.EventTypeProductCreated, &catalog.ProductCreatedEvent{})
	serializer.Register(catalog.EventTypeProductUpdated, &catalog.ProductUpdatedEvent{})

	serializer.Register(inventory.EventTypeInventoryReceived, &inventory.InventoryReceivedEvent{})
	serializer.Register(inventory.EventTypeInventoryTransferred, &inventory.InventoryTransferredEvent{})
	serializer.Register(inventory.EventTypeInventoryDispensed, &inventory.InventoryDispensedEvent{})
	serializer.Register(inventory.EventTypeInventoryExpiring, &inventory.InventoryExpiringEvent{})

	serializer.Register(trade.EventTypeInvoicePosted, &trade.InvoicePostedEvent{})
	serializer.Register(trade.EventTypePurchaseOrderPosted, &trade.PurchaseOrderPostedEvent{})
	serializer.Register(trade.EventTypePurchaseOrderReceived, &trade.PurchaseOrderReceivedEvent{})

	serializer.Register(membership.EventTypeMembershipSubscribed, &membership.MembershipSubscribedEvent{})
}
