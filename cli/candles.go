package cli

import (
	"fmt"
	"time"

	"github.com/lukehollenback/cbpro/exchange"
	"github.com/lukehollenback/cbpro/exchange/coinbasepro"
	"github.com/lukehollenback/cbpro/services/writer"
	"github.com/spf13/cobra"
)

const timeFlagFmt = time.RFC3339

func newCandlesCmd(o *app) *cobra.Command {
	var (
		start   string
		end     string
		csvPath string
	)

	granularity := coinbasepro.OneHour

	cmd := &cobra.Command{
		Use:   "candles PRODUCT-ID",
		Short: "Retrieve historic rates of a product, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := coinbasepro.CandleRequest{Granularity: granularity}

			var err error

			if start != "" {
				if params.Start, err = time.Parse(timeFlagFmt, start); err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
			}

			if end != "" {
				if params.End, err = time.Parse(timeFlagFmt, end); err != nil {
					return fmt.Errorf("invalid --end: %w", err)
				}
			}

			candles, err := o.client.Product.GetCandles(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}

			//
			// Either export the candles or print them.
			//
			if csvPath != "" {
				return exportCandles(o, csvPath, candles)
			}

			for _, c := range candles {
				closeVal := o.au.Green(c.Close())
				if c.Close().LessThan(c.Open()) {
					closeVal = o.au.Red(c.Close())
				}

				o.printf(cmd, "%s O %s H %s L %s C %s V %s\n", c.TimeString(), c.Open(), c.High(), c.Low(), closeVal, c.Volume())
			}

			o.printf(cmd, "%d candles\n", len(candles))

			return nil
		},
	}

	cmd.Flags().Var(&granularity, "granularity", "candle width (1m, 5m, 15m, 1h, 6h, 1d or seconds)")
	cmd.Flags().StringVar(&start, "start", "", "range start in RFC 3339 (requires --end)")
	cmd.Flags().StringVar(&end, "end", "", "range end in RFC 3339 (requires --start)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write the candles to this CSV file instead of printing them")

	return cmd
}

func exportCandles(o *app, path string, candles []*coinbasepro.Candle) error {
	w := writer.Create(path, &o.logger)

	if _, err := w.Start(); err != nil {
		return err
	}

	rows := make([]exchange.Candle, len(candles))
	for i, c := range candles {
		rows[i] = c
	}

	if err := w.Write(rows...); err != nil {
		_, _ = w.Stop()

		return err
	}

	_, err := w.Stop()

	return err
}
