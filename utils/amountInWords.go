package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

var onesWords = []string{"", "One", "Two", "Three", "Four", "Five", "Six",
	"Seven", "Eight", "Nine", "Ten", "Eleven", "Twelve", "Thirteen",
	"Fourteen", "Fifteen", "Sixteen", "Seventeen", "Eighteen", "Nineteen"}

var tensWords = []string{"", "", "Twenty", "Thirty", "Forty", "Fifty",
	"Sixty", "Seventy", "Eighty", "Ninety"}

var scaleParts = []struct {
	value int64
	name  string
}{
	{1_000_000_000, "Billion"},
	{1_000_000, "Million"},
	{1_000, "Thousand"},
	{100, "Hundred"},
}

// AmountInWords renders an amount for the printed bill: the integer part as
// English cardinal words (up to billions) and the fractional part, times one
// hundred and rounded, as Paisa.
func AmountInWords(amount decimal.Decimal) string {
	rounded := amount.Round(2)

	prefix := ""
	if rounded.IsNegative() {
		prefix = "Minus "
		rounded = rounded.Neg()
	}

	intPart := rounded.IntPart()
	paisa := rounded.Sub(decimal.NewFromInt(intPart)).Mul(decimalOneHundred).Round(0).IntPart()

	words := IntegerInWords(intPart)
	if paisa > 0 {
		words += " And " + IntegerInWords(paisa) + " Paisa"
	}
	return prefix + words
}

// IntegerInWords converts a non-negative integer to English cardinal words.
func IntegerInWords(n int64) string {
	if n == 0 {
		return "Zero"
	}

	var words []string
	for _, part := range scaleParts {
		if n >= part.value {
			words = append(words, IntegerInWords(n/part.value), part.name)
			n %= part.value
		}
	}
	if n > 0 {
		if n < 20 {
			words = append(words, onesWords[n])
		} else {
			w := tensWords[n/10]
			if n%10 > 0 {
				w += " " + onesWords[n%10]
			}
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}
