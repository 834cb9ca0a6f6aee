package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// CycleRecord is one appended history row: the scalar summary of a completed
// cycle, read back next cycle as the "previous" values for delta rules.
type CycleRecord struct {
	CycleTS                time.Time
	GoldPriceUSD           decimal.Decimal
	DollarPrice            decimal.Decimal
	ShamsPrice             decimal.Decimal
	DollarChangePct        decimal.Decimal
	ShamsChangePct         decimal.Decimal
	FundWeightedChangePct  decimal.Decimal
	FundFinalPriceAvg      decimal.Decimal
	FundWeightedBubblePct  decimal.Decimal
	SaraneKharidWeighted   decimal.Decimal
	SaraneForoshWeighted   decimal.Decimal
	EkhtelafSaraneWeighted decimal.Decimal
	PolHagigi              decimal.Decimal
	CreatedAt              time.Time
}
