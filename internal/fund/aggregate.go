package fund

import "github.com/shopspring/decimal"

// Aggregates are the value-weighted market-level fund metrics of one cycle.
type Aggregates struct {
	WeightedChangePct    decimal.Decimal
	WeightedClose        decimal.Decimal
	WeightedBubblePct    decimal.Decimal
	WeightedSaraneKharid decimal.Decimal
	WeightedSaraneForosh decimal.Decimal
	WeightedSaraneDiff   decimal.Decimal
	TotalTradeValue      decimal.Decimal
	TotalPolHagigi       decimal.Decimal
}

// Aggregate computes value-weighted means across the whole collection.
//
// The canonical weighted per-capita differential is the weighted buy series
// minus the weighted sell series, not a weighted mean of each fund's own
// differential. The two are not equivalent.
func Aggregate(records []Record) Aggregates {
	var agg Aggregates
	for _, rec := range records {
		agg.TotalTradeValue = agg.TotalTradeValue.Add(rec.TradeValue)
		agg.TotalPolHagigi = agg.TotalPolHagigi.Add(rec.PolHagigi)
	}

	agg.WeightedChangePct = weightedMean(records, agg.TotalTradeValue, func(r Record) decimal.Decimal { return r.ChangePct })
	agg.WeightedClose = weightedMean(records, agg.TotalTradeValue, func(r Record) decimal.Decimal { return r.Close })
	agg.WeightedBubblePct = weightedMean(records, agg.TotalTradeValue, func(r Record) decimal.Decimal { return r.BubblePct })
	agg.WeightedSaraneKharid = weightedMean(records, agg.TotalTradeValue, func(r Record) decimal.Decimal { return r.SaraneKharid })
	agg.WeightedSaraneForosh = weightedMean(records, agg.TotalTradeValue, func(r Record) decimal.Decimal { return r.SaraneForosh })
	agg.WeightedSaraneDiff = agg.WeightedSaraneKharid.Sub(agg.WeightedSaraneForosh)

	return agg
}

// weightedMean is Σ(metric·value) / Σ(value), zero when total value is zero.
func weightedMean(records []Record, totalValue decimal.Decimal, metric func(Record) decimal.Decimal) decimal.Decimal {
	if totalValue.IsZero() {
		return decimal.Zero
	}
	var sum decimal.Decimal
	for _, rec := range records {
		sum = sum.Add(metric(rec).Mul(rec.TradeValue))
	}
	return sum.Div(totalValue)
}

// Screen returns the funds with a hard-buy signal, descending by trade value:
// value-to-monthly-average ratio at least minValueRatio, inflow-to-value
// ratio at least minInflowRatio, and strictly positive per-capita
// differential.
func Screen(records []Record, minValueRatio, minInflowRatio decimal.Decimal) []Record {
	qualified := make([]Record, 0)
	for _, rec := range records {
		if rec.ValueToMonthlyAvgPct.GreaterThanOrEqual(minValueRatio) &&
			rec.InflowToValuePct.GreaterThanOrEqual(minInflowRatio) &&
			rec.SaraneDiff.IsPositive() {
			qualified = append(qualified, rec)
		}
	}
	SortByTradeValue(qualified)
	return qualified
}
