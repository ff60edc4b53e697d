package models

import (
	"errors"
	"math/rand"
	"testing"

	"bitbucket.org/mmdatafocus/restro_backend/utils"
	"github.com/shopspring/decimal"
)

func TestStockAfterAdjust(t *testing.T) {
	tests := []struct {
		name    string
		current string
		delta   string
		want    string
		wantErr bool
	}{
		{"simple addition", "10", "5", "15", false},
		{"deduction to zero is legal", "5", "-5", "0", false},
		{"partial deduction", "5", "-2.5", "2.5", false},
		{"deduction below zero fails", "5", "-5.0001", "", true},
		{"deduction from zero fails", "0", "-1", "", true},
		{"zero delta", "3", "0", "3", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stockAfterAdjust("Chicken", decimal.RequireFromString(tt.current), decimal.RequireFromString(tt.delta))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got qty %s", got)
				}
				var insufficient *utils.InsufficientStockError
				if !errors.As(err, &insufficient) {
					t.Fatalf("error type = %T, want InsufficientStockError", err)
				}
				if insufficient.StockName != "Chicken" {
					t.Fatalf("error stock name = %q, want Chicken", insufficient.StockName)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("qty = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStockAfterAdjustErrorFields(t *testing.T) {
	_, err := stockAfterAdjust("Rice", decimal.RequireFromString("2"), decimal.RequireFromString("-7"))
	var insufficient *utils.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("error type = %T, want InsufficientStockError", err)
	}
	if !insufficient.Current.Equal(decimal.RequireFromString("2")) {
		t.Fatalf("current = %s, want 2", insufficient.Current)
	}
	if !insufficient.Required.Equal(decimal.RequireFromString("7")) {
		t.Fatalf("required = %s, want 7", insufficient.Required)
	}
}

// Whatever sequence of additions and deductions goes through the guard, a
// balance that only advances on success can never end up negative.
func TestStockAfterAdjustNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	balance := decimal.Zero

	for i := 0; i < 5000; i++ {
		delta := decimal.NewFromFloat(rng.Float64()*20 - 10).Round(4)
		next, err := stockAfterAdjust("Flour", balance, delta)
		if err != nil {
			var insufficient *utils.InsufficientStockError
			if !errors.As(err, &insufficient) {
				t.Fatalf("step %d: error type = %T", i, err)
			}
			continue
		}
		balance = next
		if balance.IsNegative() {
			t.Fatalf("step %d: balance went negative: %s", i, balance)
		}
	}
}
