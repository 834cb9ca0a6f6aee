package market

import (
	"github.com/shopspring/decimal"

	"gold-market-alerts/internal/feed"
)

// Fixed slicing offsets of the feed timestamp string: "YYYY-MM-DD HH:MM:SS".
// The feed contract guarantees this layout, so no general date parsing.
const (
	tradeDateLen   = 10
	tradeTimeStart = 11
	tradeTimeEnd   = 19
)

// mergedRow is an intermediate per-slug row before canonical reindexing.
type mergedRow struct {
	slug      string
	close     *decimal.Decimal
	changePct *decimal.Decimal
	lastTrade string
}

// BuildTable reconciles the hierarchical market snapshot into the canonical
// instrument table. A nil snapshot yields an all-null table; slugs outside
// the canonical set are dropped; canonical slugs absent from the snapshot
// stay as null rows.
func BuildTable(snap *feed.MarketSnapshot) Table {
	table := NewTable()
	if snap == nil {
		return table
	}

	merged := make(map[string]mergedRow)
	// Warehouse receipts merge after assets: on a duplicate slug the later
	// source wins the whole row.
	for _, row := range flatten(snap.Assets) {
		merged[row.slug] = row
	}
	for _, row := range flatten(snap.Warehouse) {
		merged[row.slug] = row
	}

	for i := range table {
		row, ok := merged[table[i].Slug]
		if !ok {
			continue
		}
		table[i].Close = row.close
		table[i].ChangePct = row.changePct
		table[i].TradeDate, table[i].TradeTime = splitTradeTimestamp(row.lastTrade)
	}
	return table
}

// flatten expands the nested related-entity lists into one row per related
// entity. A related entity missing a field inherits the parent's value. An
// entity without related entities contributes nothing; a nil sub-list is
// simply empty.
func flatten(entities []feed.Entity) []mergedRow {
	rows := make([]mergedRow, 0, len(entities))
	for _, parent := range entities {
		for _, rel := range parent.Related {
			row := mergedRow{
				slug:      rel.Slug,
				close:     rel.Close,
				changePct: rel.ChangePct,
				lastTrade: rel.LastTrade,
			}
			if row.slug == "" {
				row.slug = parent.Slug
			}
			if row.close == nil {
				row.close = parent.Close
			}
			if row.changePct == nil {
				row.changePct = parent.ChangePct
			}
			if row.lastTrade == "" {
				row.lastTrade = parent.LastTrade
			}
			if row.slug == "" {
				continue
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// splitTradeTimestamp slices the raw feed timestamp into date and time parts.
func splitTradeTimestamp(raw string) (date, tm string) {
	if len(raw) >= tradeDateLen {
		date = raw[:tradeDateLen]
	}
	if len(raw) >= tradeTimeEnd {
		tm = raw[tradeTimeStart:tradeTimeEnd]
	}
	return date, tm
}
