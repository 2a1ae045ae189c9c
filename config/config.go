package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lukehollenback/cbpro/constants"
	"github.com/lukehollenback/cbpro/exchange/coinbasepro"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

//
// EnvVar names the environment variable that can point at a configuration file when none is given
// on the command line.
//
const EnvVar = "CBPRO_CONFIG"

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

type FeedConfig struct {
	URL      string   `yaml:"url"`
	Channels []string `yaml:"channels"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type WatchConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	History      int           `yaml:"history"`
}

type Config struct {
	Sandbox bool               `yaml:"sandbox"`
	REST    coinbasepro.Config `yaml:"rest"`
	Feed    FeedConfig         `yaml:"feed"`
	Watch   WatchConfig        `yaml:"watch"`
	Metrics MetricsConfig      `yaml:"metrics"`
	Log     LogConfig          `yaml:"log"`
}

func Default() Config {
	return Config{
		REST: coinbasepro.Config{
			Timeout:        constants.DefaultTimeout,
			RateLimitRPS:   constants.PublicRateLimit,
			RateLimitBurst: constants.PublicRateLimitBurst,
		},
		Feed: FeedConfig{
			Channels: []string{"heartbeat", "ticker"},
		},
		Log: LogConfig{
			Level:  zerolog.InfoLevel.String(),
			Format: "console",
		},
	}
}

//
// Load reads the YAML configuration file at the provided path on top of the defaults. An empty path
// falls back to the file named by CBPRO_CONFIG, and then to the defaults alone.
//
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvVar)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.ResolveURLs()

	return cfg, nil
}

//
// ResolveURLs fills in the exchange URLs that were left blank, honoring the sandbox switch.
//
func (o *Config) ResolveURLs() {
	if o.REST.BaseURL == "" {
		o.REST.BaseURL = constants.RESTURL
		if o.Sandbox {
			o.REST.BaseURL = constants.SandboxRESTURL
		}
	}

	if o.Feed.URL == "" {
		o.Feed.URL = constants.FeedURL
		if o.Sandbox {
			o.Feed.URL = constants.SandboxFeedURL
		}
	}
}

//
// Logger builds the root logger described by the configuration.
//
func (o *Config) Logger(out io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(o.Log.Level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", o.Log.Level, err)
	}

	switch o.Log.Format {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", o.Log.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
