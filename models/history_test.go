package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

// An audit row stores the pre-edit order as a full JSON snapshot; decoding it
// must reproduce the item list and total exactly, since the restore screens
// and dispute reviews read orders back out of histories.
func TestOrderSnapshotRoundTrip(t *testing.T) {
	order := Order{
		ID:           42,
		RestaurantId: "r-1",
		TableNo:      "T7",
		Status:       OrderStatusPending,
		TotalAmount:  decimal.RequireFromString("1250.50"),
		Discount:     decimal.RequireFromString("0"),
		Details: []OrderDetail{
			{MenuItemId: 1, MenuItemName: "Chicken Curry", Qty: decimal.RequireFromString("2"), Price: decimal.RequireFromString("450"), Amount: decimal.RequireFromString("900")},
			{MenuItemId: 2, MenuItemName: "Naan", Qty: decimal.RequireFromString("3.5"), Price: decimal.RequireFromString("100.1428"), Amount: decimal.RequireFromString("350.50")},
		},
	}

	snapshot, err := json.Marshal(order)
	if err != nil {
		t.Fatal(err)
	}

	var restored Order
	if err := json.Unmarshal(snapshot, &restored); err != nil {
		t.Fatal(err)
	}

	if restored.ID != order.ID || restored.Status != order.Status || restored.TableNo != order.TableNo {
		t.Fatalf("identity fields drifted: %+v", restored)
	}
	if !restored.TotalAmount.Equal(order.TotalAmount) {
		t.Fatalf("total = %s, want %s", restored.TotalAmount, order.TotalAmount)
	}
	if len(restored.Details) != len(order.Details) {
		t.Fatalf("detail count = %d, want %d", len(restored.Details), len(order.Details))
	}
	for i, d := range order.Details {
		r := restored.Details[i]
		if r.MenuItemId != d.MenuItemId || r.MenuItemName != d.MenuItemName {
			t.Fatalf("detail %d identity drifted: %+v", i, r)
		}
		if !r.Qty.Equal(d.Qty) || !r.Price.Equal(d.Price) || !r.Amount.Equal(d.Amount) {
			t.Fatalf("detail %d amounts drifted: %+v", i, r)
		}
	}
}
