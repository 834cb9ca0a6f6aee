package fund

import (
	"testing"

	"github.com/shopspring/decimal"
)

// terminalRow builds a minimal positional row with only the mapped columns
// populated.
func terminalRow(symbol, close, changePct, nav, bubble, value, saraneBuy, saraneSell, pol, valueRatio, inflowRatio string) []string {
	row := make([]string, 49)
	row[colSymbol] = symbol
	row[colClose] = close
	row[colChangePct] = changePct
	row[colNAV] = nav
	row[colBubblePct] = bubble
	row[colTradeValue] = value
	row[colSaraneKharid] = saraneBuy
	row[colSaraneForosh] = saraneSell
	row[colPolHagigi] = pol
	row[colValueToMonthlyAvg] = valueRatio
	row[colInflowToValue] = inflowRatio
	return row
}

func TestFromTerminalRowsNormalization(t *testing.T) {
	rows := [][]string{
		terminalRow("TALA1", "25000", "1.5", "24000", "4.1", "50000000000", "70000000", "30000000", "20000000000", "120", "30"),
	}

	records := FromTerminalRows(rows)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if !rec.TradeValue.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("交易额应换算为十亿单位: %s", rec.TradeValue)
	}
	if !rec.SaraneKharid.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("sarane kharid 应换算为百万单位: %s", rec.SaraneKharid)
	}
	if !rec.PolHagigi.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("pol hagigi 应换算为十亿单位: %s", rec.PolHagigi)
	}
	// Differential computes after normalization: 7 - 3 = 4 million.
	if !rec.SaraneDiff.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("sarane diff mismatch: %s", rec.SaraneDiff)
	}
}

func TestFromTerminalRowsSkipsBadRows(t *testing.T) {
	rows := [][]string{
		{"too", "short"},
		terminalRow("", "1", "1", "1", "1", "1", "1", "1", "1", "1", "1"),
		terminalRow("OK1", "1", "x", "1", "1", "not-a-number", "1", "1", "1", "1", "1"),
	}

	records := FromTerminalRows(rows)
	if len(records) != 1 {
		t.Fatalf("只有带 symbol 的完整行应保留, got %d", len(records))
	}
	if records[0].Symbol != "OK1" {
		t.Fatalf("unexpected symbol %s", records[0].Symbol)
	}
	if !records[0].TradeValue.IsZero() {
		t.Fatalf("unparsable numeric should read as zero: %s", records[0].TradeValue)
	}
}

func TestFromTerminalRowsSortedByTradeValue(t *testing.T) {
	rows := [][]string{
		terminalRow("SMALL", "1", "0", "1", "0", "10000000000", "0", "0", "0", "0", "0"),
		terminalRow("BIG", "1", "0", "1", "0", "90000000000", "0", "0", "0", "0", "0"),
		terminalRow("MID", "1", "0", "1", "0", "40000000000", "0", "0", "0", "0", "0"),
	}

	records := FromTerminalRows(rows)
	got := []string{records[0].Symbol, records[1].Symbol, records[2].Symbol}
	want := []string{"BIG", "MID", "SMALL"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %v", i, got)
		}
	}
}
