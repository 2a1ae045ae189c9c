package cli

import (
	"github.com/lukehollenback/cbpro/services"
	"github.com/lukehollenback/cbpro/services/feed"
	coinbasepro "github.com/preichenberger/go-coinbasepro/v2"
	"github.com/spf13/cobra"
)

func newFeedCmd(o *app) *cobra.Command {
	var channels []string

	cmd := &cobra.Command{
		Use:   "feed PRODUCT-ID...",
		Short: "Subscribe to the websocket feed and print the messages it sends",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(channels) == 0 {
				channels = o.cfg.Feed.Channels
			}

			f, err := feed.New(feed.Config{
				URL:        o.cfg.Feed.URL,
				ProductIDs: args,
				Channels:   channels,
				Logger:     &o.logger,
			})
			if err != nil {
				return err
			}

			f.RegisterHandler("", func(msg *coinbasepro.Message) {
				switch msg.Type {
				case "ticker", "match", "last_match":
					side := o.au.Green(msg.Side)
					if msg.Side == "sell" {
						side = o.au.Red(msg.Side)
					}

					size := msg.LastSize
					if size == "" {
						size = msg.Size
					}

					o.printf(cmd, "%-10s %-8s %s %s @ %s\n", msg.ProductID, msg.Type, side, size, o.au.Bold(msg.Price))
				case feed.ErrorType:
					o.printf(cmd, "%s %s\n", o.au.Red("error"), msg.Message)
				default:
					o.printf(cmd, "%-10s %-8s seq %d\n", msg.ProductID, msg.Type, msg.Sequence)
				}
			})

			if err := startService(f); err != nil {
				return err
			}

			<-cmd.Context().Done()

			stopServices(o, []services.Service{f})

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&channels, "channels", nil, "channels to subscribe to (defaults to the configured ones)")

	return cmd
}
