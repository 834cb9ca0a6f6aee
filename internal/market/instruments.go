package market

import "github.com/shopspring/decimal"

// Canonical slugs of the tracked instruments. Order is part of the contract:
// downstream consumers address rows by this order and the valuation factor
// table is indexed by it.
var CanonicalSlugs = []string{
	"geram18",
	"geram24",
	"shams",
	"sekke_emami",
	"sekke_bahar",
	"sekke_naghdi",
	"abshode",
	"sekke_refah",
	"sekke_saman",
	"sekke_ayandeh",
	"nim",
	"rob",
	"gerami",
}

// ImpliedPriceCount is how many leading canonical rows carry implied inverse
// prices. Those instruments price as a direct multiple of bullion content, so
// the fair-value formula can be solved back for the dollar or ounce input.
const ImpliedPriceCount = 5

// GramsPerTroyOunce converts the international ounce quote to per-gram.
var GramsPerTroyOunce = decimal.RequireFromString("31.1034768")

// Factors hold the per-instrument conversion constants: metal purity, gram
// weight (including the unit scaling of the domestic quote), and an extra
// divisor for the instruments quoted per hundredth.
type Factors struct {
	Purity  decimal.Decimal
	Weight  decimal.Decimal
	Divisor decimal.Decimal
}

var factorTable = []Factors{
	{d("0.75"), d("10"), d("1")},
	{d("0.995"), d("10"), d("1")},
	{d("0.995"), d("1"), d("1")},
	{d("0.9"), d("81.33"), d("1")},
	{d("0.9"), d("81.33"), d("1")},
	{d("0.9"), d("81.33"), d("1")},
	{d("0.705"), d("46.083"), d("1")},
	{d("0.9"), d("8.133"), d("100")},
	{d("0.9"), d("8.133"), d("100")},
	{d("0.9"), d("8.133"), d("100")},
	{d("0.9"), d("40.665"), d("1")},
	{d("0.9"), d("20.3225"), d("1")},
	{d("0.9"), d("10"), d("1")},
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// FactorsFor returns the conversion constants for a canonical index.
func FactorsFor(idx int) Factors {
	return factorTable[idx]
}

// Record is one row of the canonical instrument table. Close and ChangePct
// are nil when the instrument was absent from the cycle's feeds.
type Record struct {
	Slug          string
	Close         *decimal.Decimal
	ChangePct     *decimal.Decimal
	TradeDate     string
	TradeTime     string
	Value         decimal.Decimal
	BubblePct     decimal.Decimal
	ImpliedDollar *decimal.Decimal
	ImpliedGold   *decimal.Decimal
}

// Table is the canonical instrument table: always exactly one row per
// canonical slug, in canonical order.
type Table []Record

// NewTable returns an all-null canonical table.
func NewTable() Table {
	t := make(Table, len(CanonicalSlugs))
	for i, slug := range CanonicalSlugs {
		t[i] = Record{Slug: slug}
	}
	return t
}

// Lookup returns the row for a canonical slug, or nil for unknown slugs.
func (t Table) Lookup(slug string) *Record {
	for i := range t {
		if t[i].Slug == slug {
			return &t[i]
		}
	}
	return nil
}
