package utils

import (
	"github.com/shopspring/decimal"
)

var decimalOneHundred = decimal.NewFromInt(100)

// BillLine is one billable line: quantity times unit rate.
type BillLine struct {
	Qty  decimal.Decimal `json:"qty"`
	Rate decimal.Decimal `json:"rate"`
}

// Surcharge is a named percentage fee (service charge etc.) other than VAT.
type Surcharge struct {
	Name    string          `json:"name"`
	Percent decimal.Decimal `json:"percent"`
}

type SurchargeAmount struct {
	Name    string          `json:"name"`
	Percent decimal.Decimal `json:"percent"`
	Amount  decimal.Decimal `json:"amount"`
}

type BillBreakdown struct {
	SubTotal        decimal.Decimal   `json:"sub_total"`
	DiscountAmount  decimal.Decimal   `json:"discount_amount"`
	AfterDiscount   decimal.Decimal   `json:"after_discount"`
	Surcharges      []SurchargeAmount `json:"surcharges"`
	TotalSurcharge  decimal.Decimal   `json:"total_surcharge"`
	TaxableAmount   decimal.Decimal   `json:"taxable_amount"`
	VatPercent      decimal.Decimal   `json:"vat_percent"`
	VatAmount       decimal.Decimal   `json:"vat_amount"`
	NetTotal        decimal.Decimal   `json:"net_total"`
	NetTotalInWords string            `json:"net_total_in_words"`
}

// CalculateBill is the whole billing pipeline:
// subtotal -> discount -> surcharges -> VAT -> net total -> words.
//
// It is pure and deterministic; the live preview and the settlement commit
// call it with the same inputs and must agree bit-for-bit. Each surcharge is
// computed on the post-discount subtotal, never on a running total, so
// surcharges do not compound with each other.
func CalculateBill(lines []BillLine, discount decimal.Decimal, surcharges []Surcharge, vatPercent decimal.Decimal) BillBreakdown {

	var subTotal decimal.Decimal
	for _, line := range lines {
		subTotal = subTotal.Add(line.Qty.Mul(line.Rate))
	}

	// discount is a flat amount clamped to [0, subtotal]
	discountAmount := discount
	if discountAmount.IsNegative() {
		discountAmount = decimal.Zero
	}
	if discountAmount.GreaterThan(subTotal) {
		discountAmount = subTotal
	}
	afterDiscount := subTotal.Sub(discountAmount)

	var totalSurcharge decimal.Decimal
	surchargeAmounts := make([]SurchargeAmount, 0, len(surcharges))
	for _, s := range surcharges {
		amount := afterDiscount.Mul(s.Percent).DivRound(decimalOneHundred, 4)
		surchargeAmounts = append(surchargeAmounts, SurchargeAmount{
			Name:    s.Name,
			Percent: s.Percent,
			Amount:  amount,
		})
		totalSurcharge = totalSurcharge.Add(amount)
	}

	taxableAmount := afterDiscount.Add(totalSurcharge)
	if taxableAmount.IsNegative() {
		taxableAmount = decimal.Zero
	}

	var vatAmount decimal.Decimal
	if vatPercent.IsPositive() {
		vatAmount = taxableAmount.Mul(vatPercent).DivRound(decimalOneHundred, 4)
	}

	netTotal := taxableAmount.Add(vatAmount)

	return BillBreakdown{
		SubTotal:        subTotal,
		DiscountAmount:  discountAmount,
		AfterDiscount:   afterDiscount,
		Surcharges:      surchargeAmounts,
		TotalSurcharge:  totalSurcharge,
		TaxableAmount:   taxableAmount,
		VatPercent:      vatPercent,
		VatAmount:       vatAmount,
		NetTotal:        netTotal,
		NetTotalInWords: AmountInWords(netTotal),
	}
}
