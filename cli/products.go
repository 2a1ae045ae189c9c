package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newProductsCmd(o *app) *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the available currency pairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := o.client.Product.GetProducts(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tBASE\tQUOTE\tMIN SIZE\tQUOTE INCREMENT\tSTATUS")

			for _, p := range products {
				status := o.au.Green(p.Status).String()
				if p.Status != "online" {
					status = o.au.Red(p.Status).String()
				}

				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					p.ID, p.BaseCurrency, p.QuoteCurrency, p.BaseMinSize, p.QuoteIncrement, status)
			}

			return tw.Flush()
		},
	}
}

func newProductCmd(o *app) *cobra.Command {
	return &cobra.Command{
		Use:   "product PRODUCT-ID",
		Short: "Show a single product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.client.Product.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			o.printf(cmd, "%s (%s)\n", o.au.Bold(p.ID), p.DisplayName)
			o.printf(cmd, "  base:  %s (min %s, max %s, increment %s)\n", p.BaseCurrency, p.BaseMinSize, p.BaseMaxSize, p.BaseIncrement)
			o.printf(cmd, "  quote: %s (increment %s)\n", p.QuoteCurrency, p.QuoteIncrement)
			o.printf(cmd, "  status: %s %s\n", p.Status, p.StatusMessage)

			return nil
		},
	}
}

func newTickerCmd(o *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ticker PRODUCT-ID",
		Short: "Show the last trade, best bid/ask, and 24h volume of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := o.client.Product.GetProductTicker(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			o.printf(cmd, "%s %s (size %s) bid %s ask %s volume %s at %s\n",
				o.au.Bold(args[0]), o.au.Yellow(t.Price), t.Size,
				o.au.Green(t.Bid), o.au.Red(t.Ask), t.Volume, t.Time.UTC().Format("2006-01-02 15:04:05"))

			return nil
		},
	}
}

func newStatsCmd(o *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats PRODUCT-ID",
		Short: "Show 24 hour statistics of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.client.Product.GetProductStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			change := o.au.Green(s.Last.Sub(s.Open))
			if s.Last.LessThan(s.Open) {
				change = o.au.Red(s.Last.Sub(s.Open))
			}

			o.printf(cmd, "%s open %s high %s low %s last %s (%s) volume %s (30d %s)\n",
				o.au.Bold(args[0]), s.Open, s.High, s.Low, s.Last, change, s.Volume, s.Volume30Day)

			return nil
		},
	}
}
