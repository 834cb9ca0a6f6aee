package market

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Valuate annotates the canonical table in place with theoretical fair
// values, bubble percentages, and — for the implied-price rows — the inverse
// dollar and ounce prices the quoted close would require.
//
// Value(i) = gold · dollar / 31.1034768 · purity(i) · weight(i) / divisor(i)
func Valuate(table Table, goldOunceUSD, dollarPrice decimal.Decimal) {
	perGram := safeDiv(goldOunceUSD.Mul(dollarPrice), GramsPerTroyOunce)

	for i := range table {
		f := FactorsFor(i)
		value := safeDiv(perGram.Mul(f.Purity).Mul(f.Weight), f.Divisor)
		table[i].Value = value

		if table[i].Close != nil {
			table[i].BubblePct = safeDiv(table[i].Close.Sub(value), value).Mul(hundred)
		} else {
			table[i].BubblePct = decimal.Zero
		}

		if i < ImpliedPriceCount && table[i].Close != nil {
			dollar, gold := impliedPrices(*table[i].Close, f, goldOunceUSD, dollarPrice)
			table[i].ImpliedDollar = &dollar
			table[i].ImpliedGold = &gold
		}
	}
}

// impliedPrices solves the fair-value formula for the hidden market input
// while holding the quoted close fixed: the dollar (or ounce) price at which
// the quote would be arbitrage-consistent.
func impliedPrices(close decimal.Decimal, f Factors, goldOunceUSD, dollarPrice decimal.Decimal) (dollar, gold decimal.Decimal) {
	scaled := close.Mul(GramsPerTroyOunce).Mul(f.Divisor)
	dollar = safeDiv(scaled, goldOunceUSD.Mul(f.Purity).Mul(f.Weight))
	gold = safeDiv(scaled, dollarPrice.Mul(f.Purity).Mul(f.Weight))
	return dollar, gold
}

// safeDiv is the guarded division of the valuation pipeline: a zero
// denominator yields zero instead of poisoning downstream formatting.
func safeDiv(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}
