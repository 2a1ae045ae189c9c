package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/lukehollenback/cbpro/exchange/coinbasepro"
	"github.com/spf13/cobra"
)

func newTradesCmd(o *app) *cobra.Command {
	page := &coinbasepro.Pagination{}

	cmd := &cobra.Command{
		Use:   "trades PRODUCT-ID",
		Short: "List the latest public trades of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trades, err := o.client.Product.GetTrades(cmd.Context(), args[0], page)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tID\tSIDE\tPRICE\tSIZE")

			for _, t := range trades.Trades {
				side := o.au.Green(t.Side).String()
				if t.Side == coinbasepro.Sell {
					side = o.au.Red(t.Side).String()
				}

				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
					t.Time.UTC().Format("2006-01-02 15:04:05.000"), t.TradeID, side, t.Price, t.Size)
			}

			if err := tw.Flush(); err != nil {
				return err
			}

			o.printf(cmd, "cursors: --before %s --after %s\n", trades.Before, trades.After)

			return nil
		},
	}

	cmd.Flags().StringVar(&page.Before, "before", "", "return trades newer than this cursor")
	cmd.Flags().StringVar(&page.After, "after", "", "return trades older than this cursor")
	cmd.Flags().IntVar(&page.Limit, "limit", 0, "number of trades per page (exchange default when zero)")

	return cmd
}
