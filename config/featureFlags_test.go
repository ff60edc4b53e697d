package config

import "testing"

func TestSettlementPricePolicy(t *testing.T) {
	cases := []struct {
		name string
		env  string
		want string
	}{
		{"unset defaults to current", "", PricePolicyCurrent},
		{"current", "current", PricePolicyCurrent},
		{"captured", "captured", PricePolicyCaptured},
		{"case and whitespace tolerant", "  CAPTURED ", PricePolicyCaptured},
		{"unknown value falls back to current", "wholesale", PricePolicyCurrent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("SETTLEMENT_PRICE_POLICY", tc.env)
			if got := SettlementPricePolicy(); got != tc.want {
				t.Fatalf("policy = %q, want %q", got, tc.want)
			}
		})
	}
}
