package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"gold-market-alerts/internal/storage"
)

// Export renders cycle history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-time.Duration(opts.MaxPoints) * a.Config.Scheduler.Interval)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	records, err := store.ListCyclesBetween(ctx, from, to)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		a.Logger.Info().Msg("no cycles found for export window")
		return nil
	}

	downsampled := downsampleCycles(records, opts.MaxPoints)
	a.Logger.Info().Int("total", len(records)).Int("exported", len(downsampled)).Msg("exporting cycles")

	if opts.CSVPath != "" {
		if err := writeCyclesCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeCyclesPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleCycles(records []storage.CycleRecord, max int) []storage.CycleRecord {
	if max <= 0 || len(records) <= max {
		return records
	}

	result := make([]storage.CycleRecord, 0, max)
	step := float64(len(records)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(records) {
			idx = len(records) - 1
		}
		result = append(result, records[idx])
	}
	return result
}

func writeCyclesCSV(path string, records []storage.CycleRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"cycle_ts",
		"gold_price_usd",
		"dollar_price",
		"shams_price",
		"dollar_change_percent",
		"shams_change_percent",
		"fund_weighted_change_percent",
		"fund_final_price_avg",
		"fund_weighted_bubble_percent",
		"sarane_kharid_weighted",
		"sarane_forosh_weighted",
		"ekhtelaf_sarane_weighted",
		"pol_hagigi",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, record := range records {
		row := []string{
			record.CycleTS.Format(time.RFC3339),
			record.GoldPriceUSD.String(),
			record.DollarPrice.String(),
			record.ShamsPrice.String(),
			record.DollarChangePct.String(),
			record.ShamsChangePct.String(),
			record.FundWeightedChangePct.String(),
			record.FundFinalPriceAvg.String(),
			record.FundWeightedBubblePct.String(),
			record.SaraneKharidWeighted.String(),
			record.SaraneForoshWeighted.String(),
			record.EkhtelafSaraneWeighted.String(),
			record.PolHagigi.String(),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeCyclesPNG(path string, records []storage.CycleRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(records))
	dollar := make([]float64, len(records))
	shams := make([]float64, len(records))
	bubble := make([]float64, len(records))

	for i, record := range records {
		x[i] = record.CycleTS
		dollar[i] = record.DollarPrice.InexactFloat64()
		shams[i] = record.ShamsPrice.InexactFloat64()
		bubble[i] = record.FundWeightedBubblePct.InexactFloat64()
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Price (Toman)",
			ValueFormatter: priceFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name: "Weighted Bubble (%)",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.2f")
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Dollar",
				XValues: x,
				YValues: dollar,
			},
			chart.TimeSeries{
				Name:    "Shams",
				XValues: x,
				YValues: shams,
			},
			chart.TimeSeries{
				Name:    "Fund Bubble %",
				XValues: x,
				YValues: bubble,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
