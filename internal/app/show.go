package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// Show prints recent cycle history rows.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show cycles")
	}
	if closeStore != nil {
		defer closeStore()
	}

	records, err := store.ListRecentCycles(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no cycles found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tGold $\tDollar\tShams\tFund Δ%\tBubble%\tSarane Diff\tPol Hagigi")

	for _, record := range records {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			record.CycleTS.UTC().Format(time.RFC3339),
			formatDecimal(record.GoldPriceUSD, 1),
			record.DollarPrice.Round(0).String(),
			record.ShamsPrice.Round(0).String(),
			formatDecimal(record.FundWeightedChangePct, 2),
			formatDecimal(record.FundWeightedBubblePct, 2),
			formatDecimal(record.EkhtelafSaraneWeighted, 2),
			formatDecimal(record.PolHagigi, 2),
		)
	}

	writer.Flush()
	return nil
}
