package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/lukehollenback/cbpro/exchange/coinbasepro"
	"github.com/lukehollenback/cbpro/indicators/movingaverages"
	"github.com/lukehollenback/cbpro/services"
	"github.com/lukehollenback/cbpro/services/watcher"
	"github.com/lukehollenback/cbpro/services/writer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newWatchCmd(o *app) *cobra.Command {
	var (
		csvPath     string
		metricsAddr string
		maShort     int
		maLong      int
		maExp       bool
	)

	granularity := coinbasepro.OneMinute

	cmd := &cobra.Command{
		Use:   "watch PRODUCT-ID",
		Short: "Poll the candles of a product and print each one as it closes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			w, err := watcher.New(o.client.Product, watcher.Config{
				ProductID:    args[0],
				Granularity:  granularity,
				PollInterval: o.cfg.Watch.PollInterval,
				History:      o.cfg.Watch.History,
				Logger:       &o.logger,
			})
			if err != nil {
				return err
			}

			w.RegisterCandleCloseHandler(func(c *coinbasepro.Candle) {
				o.printf(cmd, "%s %s\n", o.au.Bold(args[0]), c)
			})

			//
			// Hook up the optional moving average crossover tracker.
			//
			if maLong > 0 {
				tracker, err := movingaverages.New(movingaverages.Config{
					ShortLen:    maShort,
					LongLen:     maLong,
					Exponential: maExp,
					Logger:      &o.logger,
				})
				if err != nil {
					return err
				}

				w.RegisterCandleCloseHandler(func(c *coinbasepro.Candle) {
					x, crossed := tracker.Add(c)
					if !crossed {
						return
					}

					trend := o.au.Green(x.Trend)
					if x.Trend == movingaverages.Downtrend {
						trend = o.au.Red(x.Trend)
					}

					o.printf(cmd, "%s %s at %s (short %s, long %s)\n",
						o.au.Bold(args[0]), o.au.Bold(trend), c.Close(), x.Short.StringFixed(2), x.Long.StringFixed(2))
				})
			}

			//
			// Start up all necessary services.
			//
			running := make([]services.Service, 0, 2)

			if csvPath != "" {
				out := writer.Create(csvPath, &o.logger)

				if err := startService(out); err != nil {
					return err
				}

				running = append(running, out)

				w.RegisterCandleCloseHandler(func(c *coinbasepro.Candle) {
					if err := out.Write(c); err != nil {
						o.logger.Error().Err(err).Msg("Failed to write candle.")
					}
				})
			}

			if err := startService(w); err != nil {
				stopServices(o, running)

				return err
			}

			running = append([]services.Service{w}, running...)

			if metricsAddr == "" {
				metricsAddr = o.cfg.Metrics.Addr
			}

			var srv *http.Server
			if metricsAddr != "" {
				srv = serveMetrics(o, metricsAddr)
			}

			//
			// Block until we are shut down.
			//
			<-ctx.Done()

			o.logger.Info().Msg("Shutting down all services...")

			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				_ = srv.Shutdown(shutdownCtx)
			}

			stopServices(o, running)

			return nil
		},
	}

	cmd.Flags().Var(&granularity, "granularity", "candle width (1m, 5m, 15m, 1h, 6h, 1d or seconds)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also append each closed candle to this CSV file")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics and /healthz on this address")
	cmd.Flags().IntVar(&maShort, "ma-short", 5, "length (in candles) of the short moving average")
	cmd.Flags().IntVar(&maLong, "ma-long", 0, "length (in candles) of the long moving average; zero disables crossover reporting")
	cmd.Flags().BoolVar(&maExp, "ma-exp", false, "use exponential instead of simple moving averages")

	return cmd
}

func startService(s services.Service) error {
	chStarted, err := s.Start()
	if err != nil {
		return err
	}

	<-chStarted

	return nil
}

func stopServices(o *app, running []services.Service) {
	for _, s := range running {
		chStopped, err := s.Stop()
		if err != nil {
			o.logger.Error().Err(err).Msg("Failed to stop service.")

			continue
		}

		<-chStopped
	}
}

//
// newMetricsRouter exposes the registry the REST client reports into, plus a liveness probe.
//
func newMetricsRouter(reg *prometheus.Registry) *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	return r
}

func serveMetrics(o *app, addr string) *http.Server {
	_ = o.registry.Register(collectors.NewGoCollector())

	srv := &http.Server{
		Addr:              addr,
		Handler:           newMetricsRouter(o.registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		o.logger.Info().Str("addr", addr).Msg("Serving metrics.")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.logger.Error().Err(err).Msg("Metrics server failed.")
		}
	}()

	return srv
}
