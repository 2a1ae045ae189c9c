package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/logrusorgru/aurora"
	"github.com/lukehollenback/cbpro/config"
	"github.com/lukehollenback/cbpro/exchange/coinbasepro"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

//
// app holds everything the commands share. It is populated by the root command's persistent pre-run
// hook, after flags have been parsed.
//
type app struct {
	configPath string
	logLevel   string
	baseURL    string
	sandbox    bool
	noColor    bool

	cfg      config.Config
	logger   zerolog.Logger
	registry *prometheus.Registry
	client   *coinbasepro.Client
	au       aurora.Aurora
}

//
// Execute runs the command line interface against the process arguments.
//
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	o := &app{}

	root := &cobra.Command{
		Use:           "cbpro",
		Short:         "Query the Coinbase Pro REST API and websocket feed",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&o.configPath, "config", "", "path to a YAML config file (defaults to $"+config.EnvVar+")")
	flags.StringVar(&o.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&o.baseURL, "base-url", "", "REST API base URL (e.g. a local signing proxy)")
	flags.BoolVar(&o.sandbox, "sandbox", false, "talk to the public sandbox instead of production")
	flags.BoolVar(&o.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newProductsCmd(o),
		newProductCmd(o),
		newBookCmd(o),
		newTickerCmd(o),
		newStatsCmd(o),
		newTradesCmd(o),
		newCandlesCmd(o),
		newWithdrawCmd(o),
		newWatchCmd(o),
		newFeedCmd(o),
	)

	return root
}

func (o *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	//
	// Command line flags win over the config file.
	//
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	if o.sandbox {
		cfg.Sandbox = true
		cfg.REST.BaseURL = ""
		cfg.Feed.URL = ""
		cfg.ResolveURLs()
	}

	if o.baseURL != "" {
		cfg.REST.BaseURL = o.baseURL
	}

	o.cfg = cfg

	o.logger, err = cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	o.registry = prometheus.NewRegistry()

	rest := cfg.REST
	rest.Logger = &o.logger
	rest.Registerer = o.registry

	o.client = coinbasepro.NewClient(rest)
	o.au = aurora.NewAurora(!o.noColor && isTerminal(cmd.OutOrStdout()))

	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}

func (o *app) printf(cmd *cobra.Command, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
