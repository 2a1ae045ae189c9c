package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/lukehollenback/cbpro/exchange/coinbasepro"
	"github.com/spf13/cobra"
)

func newBookCmd(o *app) *cobra.Command {
	var (
		level int
		depth int
	)

	cmd := &cobra.Command{
		Use:   "book PRODUCT-ID",
		Short: "Show the order book of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := o.client.Product.GetProductOrderBook(cmd.Context(), args[0], &coinbasepro.OrderBookOptions{
				Level: coinbasepro.OrderBookLevel(level),
			})
			if err != nil {
				return err
			}

			o.printf(cmd, "%s level %d sequence %d: %d bids, %d asks\n",
				o.au.Bold(args[0]), book.Level, book.Sequence, len(book.Bids), len(book.Asks))

			if spread, ok := book.Spread(); ok {
				o.printf(cmd, "spread %s\n", o.au.Yellow(spread))
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "BID SIZE\tBID\tASK\tASK SIZE\t")

			for i := 0; i < depth && (i < len(book.Bids) || i < len(book.Asks)); i++ {
				bidSize, bid, ask, askSize := "", "", "", ""

				if i < len(book.Bids) {
					bidSize, bid = book.Bids[i].Size.String(), o.au.Green(book.Bids[i].Price).String()
				}

				if i < len(book.Asks) {
					ask, askSize = o.au.Red(book.Asks[i].Price).String(), book.Asks[i].Size.String()
				}

				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", bidSize, bid, ask, askSize)
			}

			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&level, "level", int(coinbasepro.BestBidAndAsk), "order book level (1: best bid/ask, 2: top 50, 3: full)")
	cmd.Flags().IntVar(&depth, "depth", 10, "number of rows to print per side")

	return cmd
}
