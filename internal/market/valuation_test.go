package market

import (
	"testing"

	"github.com/shopspring/decimal"
)

var (
	testGold   = decimal.NewFromInt(4300)
	testDollar = decimal.NewFromInt(131000)
)

func TestValuationExactness(t *testing.T) {
	table := NewTable()
	Valuate(table, testGold, testDollar)

	// geram18: 131000 * 4300 / 31.1034768 * 0.75 * 10
	expected := decimal.RequireFromString("135828866.56581106")
	got := table[0].Value
	if got.Sub(expected).Abs().GreaterThan(decimal.NewFromFloat(0.01)) {
		t.Fatalf("geram18 理论价不符: 期望 %s, 实际 %s", expected, got)
	}

	// sekke_refah is quoted per hundredth: weight 8.133, divisor 100.
	perGram := testGold.Mul(testDollar).Div(GramsPerTroyOunce)
	wantRefah := perGram.Mul(decimal.RequireFromString("0.9")).Mul(decimal.RequireFromString("8.133")).Div(decimal.NewFromInt(100))
	if !table.Lookup("sekke_refah").Value.Equal(wantRefah) {
		t.Fatalf("divisor row mismatch: %s vs %s", table.Lookup("sekke_refah").Value, wantRefah)
	}
}

func TestValuationBubble(t *testing.T) {
	table := NewTable()
	close := decimal.RequireFromString("149411753.2223922") // value * 1.1
	table[0].Close = &close
	Valuate(table, testGold, testDollar)

	bubble := table[0].BubblePct
	if bubble.Sub(decimal.NewFromInt(10)).Abs().GreaterThan(decimal.NewFromFloat(0.0001)) {
		t.Fatalf("bubble should be ~10%%, got %s", bubble)
	}
}

func TestValuationBubbleGuardedDivision(t *testing.T) {
	table := NewTable()
	close := decimal.NewFromInt(1000)
	table[0].Close = &close
	Valuate(table, decimal.Zero, decimal.Zero)

	if !table[0].Value.IsZero() {
		t.Fatalf("zero inputs should give zero value, got %s", table[0].Value)
	}
	if !table[0].BubblePct.IsZero() {
		t.Fatalf("zero value must yield bubble 0, not an error: %s", table[0].BubblePct)
	}
}

func TestImpliedPriceRoundTrip(t *testing.T) {
	tolerance := decimal.NewFromFloat(1e-6)

	table := NewTable()
	for i := 0; i < ImpliedPriceCount; i++ {
		f := FactorsFor(i)
		close := testGold.Mul(testDollar).Div(GramsPerTroyOunce).Mul(f.Purity).Mul(f.Weight).Div(f.Divisor)
		table[i].Close = &close
	}

	Valuate(table, testGold, testDollar)

	for i := 0; i < ImpliedPriceCount; i++ {
		row := table[i]
		if row.ImpliedDollar == nil || row.ImpliedGold == nil {
			t.Fatalf("row %d should carry implied prices", i)
		}

		relDollar := row.ImpliedDollar.Sub(testDollar).Div(testDollar).Abs()
		if relDollar.GreaterThan(tolerance) {
			t.Fatalf("row %d implied dollar 未能还原: %s (rel err %s)", i, row.ImpliedDollar, relDollar)
		}
		relGold := row.ImpliedGold.Sub(testGold).Div(testGold).Abs()
		if relGold.GreaterThan(tolerance) {
			t.Fatalf("row %d implied gold 未能还原: %s (rel err %s)", i, row.ImpliedGold, relGold)
		}
	}
}

func TestImpliedPricesOnlyOnLeadingRows(t *testing.T) {
	table := NewTable()
	for i := range table {
		close := decimal.NewFromInt(1000000)
		table[i].Close = &close
	}

	Valuate(table, testGold, testDollar)

	for i := range table {
		hasImplied := table[i].ImpliedDollar != nil
		if i < ImpliedPriceCount && !hasImplied {
			t.Fatalf("row %d should have implied prices", i)
		}
		if i >= ImpliedPriceCount && hasImplied {
			t.Fatalf("row %d must not have implied prices", i)
		}
	}
}

func TestValueComputedForNullRows(t *testing.T) {
	table := NewTable()
	Valuate(table, testGold, testDollar)

	for _, row := range table {
		if !row.Value.IsPositive() {
			t.Fatalf("%s: value should be computed even when close is null", row.Slug)
		}
		if row.ImpliedDollar != nil {
			t.Fatalf("%s: implied prices require a close", row.Slug)
		}
	}
}
