package config

import (
	"os"
	"strings"
)

const (
	PricePolicyCurrent  = "current"
	PricePolicyCaptured = "captured"
)

// SettlementPricePolicy decides which price an order is settled at.
//
//   - "current"  (default): re-price line items from the menu at settlement
//     time, matching the historical behavior of the billing screens.
//   - "captured": settle at the price captured when the order was placed.
//
// Set via env:
// - SETTLEMENT_PRICE_POLICY=current|captured
//
// The two policies drift whenever a menu price changes between placement and
// settlement; which one is "right" is a business decision, so it stays a flag.
func SettlementPricePolicy() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("SETTLEMENT_PRICE_POLICY")))
	if v == PricePolicyCaptured {
		return PricePolicyCaptured
	}
	return PricePolicyCurrent
}
