package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalculateBillFullPipeline(t *testing.T) {
	lines := []BillLine{
		{Qty: dec("2"), Rate: dec("250")},
		{Qty: dec("1"), Rate: dec("500")},
	}
	surcharges := []Surcharge{{Name: "Service Charge", Percent: dec("10")}}

	b := CalculateBill(lines, dec("100"), surcharges, dec("13"))

	if !b.SubTotal.Equal(dec("1000")) {
		t.Fatalf("sub total = %s, want 1000", b.SubTotal)
	}
	if !b.DiscountAmount.Equal(dec("100")) {
		t.Fatalf("discount = %s, want 100", b.DiscountAmount)
	}
	if !b.AfterDiscount.Equal(dec("900")) {
		t.Fatalf("after discount = %s, want 900", b.AfterDiscount)
	}
	if len(b.Surcharges) != 1 || !b.Surcharges[0].Amount.Equal(dec("90")) {
		t.Fatalf("service charge = %+v, want one entry of 90", b.Surcharges)
	}
	if !b.TaxableAmount.Equal(dec("990")) {
		t.Fatalf("taxable = %s, want 990", b.TaxableAmount)
	}
	if !b.VatAmount.Equal(dec("128.70")) {
		t.Fatalf("vat = %s, want 128.70", b.VatAmount)
	}
	if !b.NetTotal.Equal(dec("1118.70")) {
		t.Fatalf("net total = %s, want 1118.70", b.NetTotal)
	}
	want := "One Thousand One Hundred Eighteen And Seventy Paisa"
	if b.NetTotalInWords != want {
		t.Fatalf("net total in words = %q, want %q", b.NetTotalInWords, want)
	}
}

func TestCalculateBillDiscountClamp(t *testing.T) {
	lines := []BillLine{{Qty: dec("1"), Rate: dec("100")}}

	tests := []struct {
		name         string
		discount     decimal.Decimal
		wantDiscount decimal.Decimal
		wantNet      decimal.Decimal
	}{
		{"negative discount ignored", dec("-50"), dec("0"), dec("100")},
		{"discount capped at subtotal", dec("500"), dec("100"), dec("0")},
		{"full discount yields zero bill", dec("100"), dec("100"), dec("0")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := CalculateBill(lines, tt.discount, nil, decimal.Zero)
			if !b.DiscountAmount.Equal(tt.wantDiscount) {
				t.Fatalf("discount = %s, want %s", b.DiscountAmount, tt.wantDiscount)
			}
			if !b.NetTotal.Equal(tt.wantNet) {
				t.Fatalf("net = %s, want %s", b.NetTotal, tt.wantNet)
			}
			if b.NetTotal.IsNegative() {
				t.Fatalf("net total went negative: %s", b.NetTotal)
			}
		})
	}
}

func TestCalculateBillSurchargesDoNotCompound(t *testing.T) {
	lines := []BillLine{{Qty: dec("1"), Rate: dec("1000")}}
	surcharges := []Surcharge{
		{Name: "Service Charge", Percent: dec("10")},
		{Name: "Delivery", Percent: dec("5")},
	}

	b := CalculateBill(lines, decimal.Zero, surcharges, decimal.Zero)

	// both computed on 1000, not 5% of 1100
	if !b.Surcharges[0].Amount.Equal(dec("100")) {
		t.Fatalf("first surcharge = %s, want 100", b.Surcharges[0].Amount)
	}
	if !b.Surcharges[1].Amount.Equal(dec("50")) {
		t.Fatalf("second surcharge = %s, want 50", b.Surcharges[1].Amount)
	}
	if !b.TotalSurcharge.Equal(dec("150")) {
		t.Fatalf("total surcharge = %s, want 150", b.TotalSurcharge)
	}
	if !b.NetTotal.Equal(dec("1150")) {
		t.Fatalf("net = %s, want 1150", b.NetTotal)
	}
}

func TestCalculateBillZeroVatSkipped(t *testing.T) {
	lines := []BillLine{{Qty: dec("3"), Rate: dec("70")}}
	b := CalculateBill(lines, decimal.Zero, nil, decimal.Zero)
	if !b.VatAmount.IsZero() {
		t.Fatalf("vat = %s, want 0", b.VatAmount)
	}
	if !b.NetTotal.Equal(dec("210")) {
		t.Fatalf("net = %s, want 210", b.NetTotal)
	}
}

func TestCalculateBillEmptyOrder(t *testing.T) {
	b := CalculateBill(nil, decimal.Zero, nil, dec("13"))
	if !b.NetTotal.IsZero() {
		t.Fatalf("net = %s, want 0", b.NetTotal)
	}
	if b.NetTotalInWords != "Zero" {
		t.Fatalf("words = %q, want Zero", b.NetTotalInWords)
	}
}

// The preview endpoint and the settlement commit both go through
// CalculateBill; for identical inputs every field must agree exactly.
func TestCalculateBillDeterministic(t *testing.T) {
	lines := []BillLine{
		{Qty: dec("2.5"), Rate: dec("133.33")},
		{Qty: dec("1"), Rate: dec("99.99")},
	}
	surcharges := []Surcharge{{Name: "Service Charge", Percent: dec("10")}}

	first := CalculateBill(lines, dec("37.50"), surcharges, dec("13"))
	second := CalculateBill(lines, dec("37.50"), surcharges, dec("13"))

	if !first.NetTotal.Equal(second.NetTotal) {
		t.Fatalf("net totals differ: %s vs %s", first.NetTotal, second.NetTotal)
	}
	if first.NetTotalInWords != second.NetTotalInWords {
		t.Fatalf("words differ: %q vs %q", first.NetTotalInWords, second.NetTotalInWords)
	}
	if !first.VatAmount.Equal(second.VatAmount) {
		t.Fatalf("vat differs: %s vs %s", first.VatAmount, second.VatAmount)
	}
}
