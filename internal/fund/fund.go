package fund

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Positional field indexes of a trading-terminal row. The terminal serves
// ~49 comma-separated fields per symbol; only these positions are read.
const (
	colSymbol            = 2
	colClose             = 6
	colChangePct         = 7
	colNAV               = 14
	colBubblePct         = 15
	colTradeValue        = 16
	colSaraneKharid      = 31
	colSaraneForosh      = 32
	colPolHagigi         = 38
	colValueToMonthlyAvg = 44
	colInflowToValue     = 45

	minTerminalFields = 46
)

// Unit scaling applied during normalization: trade value and real-money
// inflow to billions, per-capita figures to millions.
var (
	billionDivisor = decimal.New(1, 10)
	millionDivisor = decimal.New(1, 7)
)

// Record is one normalized gold-fund row.
type Record struct {
	Symbol               string
	Close                decimal.Decimal
	NAV                  decimal.Decimal
	BubblePct            decimal.Decimal
	ChangePct            decimal.Decimal
	SaraneKharid         decimal.Decimal
	SaraneForosh         decimal.Decimal
	SaraneDiff           decimal.Decimal
	PolHagigi            decimal.Decimal
	TradeValue           decimal.Decimal
	ValueToMonthlyAvgPct decimal.Decimal
	InflowToValuePct     decimal.Decimal
}

// FromTerminalRows maps raw positional rows onto normalized fund records,
// sorted descending by trade value. Short rows and rows without a symbol are
// skipped; unparsable numeric fields read as zero.
func FromTerminalRows(rows [][]string) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		if len(row) < minTerminalFields {
			continue
		}
		symbol := strings.TrimSpace(row[colSymbol])
		if symbol == "" {
			continue
		}

		rec := Record{
			Symbol:               symbol,
			Close:                field(row, colClose),
			NAV:                  field(row, colNAV),
			BubblePct:            field(row, colBubblePct),
			ChangePct:            field(row, colChangePct),
			SaraneKharid:         field(row, colSaraneKharid).Div(millionDivisor),
			SaraneForosh:         field(row, colSaraneForosh).Div(millionDivisor),
			PolHagigi:            field(row, colPolHagigi).Div(billionDivisor),
			TradeValue:           field(row, colTradeValue).Div(billionDivisor),
			ValueToMonthlyAvgPct: field(row, colValueToMonthlyAvg),
			InflowToValuePct:     field(row, colInflowToValue),
		}
		// Differential is derived after normalization so both sides share units.
		rec.SaraneDiff = rec.SaraneKharid.Sub(rec.SaraneForosh)
		records = append(records, rec)
	}

	SortByTradeValue(records)
	return records
}

// SortByTradeValue orders funds descending by trade value. Ties keep input
// order.
func SortByTradeValue(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TradeValue.GreaterThan(records[j].TradeValue)
	})
}

func field(row []string, idx int) decimal.Decimal {
	raw := strings.TrimSpace(row[idx])
	if raw == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return value
}
