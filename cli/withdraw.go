package cli

import (
	"fmt"

	"github.com/lukehollenback/cbpro/exchange/coinbasepro"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newWithdrawCmd(o *app) *cobra.Command {
	var (
		amount string
		addFee bool
	)

	req := coinbasepro.CryptoWithdrawalRequest{}

	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw funds to a crypto address",
		Long: "Withdraw funds to a crypto address. The endpoint is authenticated, so --base-url must point at " +
			"a proxy that signs requests on your behalf.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error

			if req.Amount, err = decimal.NewFromString(amount); err != nil {
				return fmt.Errorf("invalid --amount: %w", err)
			}

			if cmd.Flags().Changed("add-network-fee") {
				req.AddNetworkFeeToTotal = &addFee
			}

			w, err := o.client.Withdraw.PostCryptoWithdrawal(cmd.Context(), req)
			if err != nil {
				return err
			}

			o.printf(cmd, "withdrawal %s of %s %s submitted\n", o.au.Bold(w.ID), o.au.Yellow(w.Amount), w.Currency)

			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "amount to withdraw")
	cmd.Flags().StringVar(&req.Currency, "currency", "", "currency to withdraw")
	cmd.Flags().StringVar(&req.CryptoAddress, "address", "", "crypto address of the recipient")
	cmd.Flags().StringVar(&req.DestinationTag, "tag", "", "destination tag for currencies that support one")
	cmd.Flags().BoolVar(&addFee, "add-network-fee", false, "add the network fee on top of the amount")

	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("currency")
	_ = cmd.MarkFlagRequired("address")

	return cmd
}
