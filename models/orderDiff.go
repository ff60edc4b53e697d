package models

import (
	"github.com/shopspring/decimal"
)

// diffQuantities computes, per menu item id, the signed change between the
// persisted line quantities and the requested ones over the union of both
// key sets. Items only in old get -oldQty (removed), items only in new get
// +newQty (added), shared items get newQty-oldQty. Zero deltas are dropped,
// so an unchanged order produces an empty map and no ledger writes.
func diffQuantities(old, new map[int]decimal.Decimal) map[int]decimal.Decimal {
	diff := make(map[int]decimal.Decimal)
	for id, oldQty := range old {
		newQty, ok := new[id]
		if !ok {
			newQty = decimal.Zero
		}
		d := newQty.Sub(oldQty)
		if !d.IsZero() {
			diff[id] = d
		}
	}
	for id, newQty := range new {
		if _, ok := old[id]; ok {
			continue
		}
		if !newQty.IsZero() {
			diff[id] = newQty
		}
	}
	return diff
}
