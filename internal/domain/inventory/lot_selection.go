package inventory

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// LotPick is the quantity to take from one lot.
type LotPick struct {
	Item     InventoryItem
	Quantity decimal.Decimal
}

// LotSelection covers a requested quantity from several lots. Shortfall is
// what the available lots could not cover.
type LotSelection struct {
	Picks     []LotPick
	Total     decimal.Decimal
	Shortfall decimal.Decimal
}

// SelectLotsFEFO picks lots first-expired-first-out. Lots without stock or
// already expired at asOf are skipped; lots without an expiration date go
// last, oldest receipt first. A preferred lot number, when present among
// the candidates, is drawn from before the rest.
func SelectLotsFEFO(items []InventoryItem, quantity decimal.Decimal, asOf time.Time, preferLot string) LotSelection {
	candidates := make([]InventoryItem, 0, len(items))
	for _, item := range items {
		if !item.QuantityOnHand.IsPositive() {
			continue
		}
		if item.ExpirationDate != nil && !item.ExpirationDate.After(asOf) {
			continue
		}
		candidates = append(candidates, item)
	}

	slices.SortStableFunc(candidates, func(a, b InventoryItem) int {
		if preferLot != "" && (a.LotNumber == preferLot) != (b.LotNumber == preferLot) {
			if a.LotNumber == preferLot {
				return -1
			}
			return 1
		}
		switch {
		case a.ExpirationDate == nil && b.ExpirationDate == nil:
			return a.CreatedAt.Compare(b.CreatedAt)
		case a.ExpirationDate == nil:
			return 1
		case b.ExpirationDate == nil:
			return -1
		}
		if c := a.ExpirationDate.Compare(*b.ExpirationDate); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	remaining := quantity
	selection := LotSelection{Total: decimal.Zero}
	for _, item := range candidates {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, item.QuantityOnHand)
		selection.Picks = append(selection.Picks, LotPick{Item: item, Quantity: take})
		selection.Total = selection.Total.Add(take)
		remaining = remaining.Sub(take)
	}
	selection.Shortfall = decimal.Max(remaining, decimal.Zero)
	return selection
}
