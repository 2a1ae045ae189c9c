package coinbasepro

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lukehollenback/cbpro/constants"
	"github.com/lukehollenback/cbpro/exchange"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

var errServerFault = errors.New("server fault")

//
// BreakerConfig controls the circuit breaker that guards the REST API. Only transport failures and
// 5xx responses count against it; client errors never trip it.
//
type BreakerConfig struct {
	Enabled                bool          `yaml:"enabled"`
	MaxConsecutiveFailures uint32        `yaml:"max_consecutive_failures"`
	OpenTimeout            time.Duration `yaml:"open_timeout"`
}

//
// Config holds the Coinbase Pro REST client configuration. Zero values are replaced with sensible
// defaults by NewClient.
//
type Config struct {
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
	UserAgent      string        `yaml:"user_agent"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps"`
	RateLimitBurst int           `yaml:"rate_limit_burst"`
	Breaker        BreakerConfig `yaml:"breaker"`

	//
	// HTTPClient is the transport that actually talks to the exchange. Callers that need
	// authenticated endpoints inject a client that already signs its requests.
	//
	HTTPClient *resty.Client `yaml:"-"`

	Logger     *zerolog.Logger       `yaml:"-"`
	Registerer prometheus.Registerer `yaml:"-"`
}

//
// Client is a typed binding of the Coinbase Pro REST API. Endpoints are grouped the same way the
// exchange documents them.
//
type Client struct {
	rest    *resty.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *metrics
	logger  zerolog.Logger

	Product  *ProductAPI
	Withdraw *WithdrawAPI
}

var _ exchange.Client = (*Client)(nil)

func NewClient(cfg Config) *Client {
	//
	// Fill in defaults.
	//
	if cfg.Timeout == 0 {
		cfg.Timeout = constants.DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = constants.UserAgent
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = constants.PublicRateLimit
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = constants.PublicRateLimitBurst
	}
	if cfg.Breaker.MaxConsecutiveFailures == 0 {
		cfg.Breaker.MaxConsecutiveFailures = 5
	}
	if cfg.Breaker.OpenTimeout == 0 {
		cfg.Breaker.OpenTimeout = 30 * time.Second
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	o := &Client{
		logger:  logger.With().Str(constants.ComponentKey, Name).Logger(),
		metrics: newMetrics(cfg.Registerer),
	}

	//
	// Prepare the transport. An injected client keeps its own base URL unless one was explicitly
	// configured.
	//
	o.rest = cfg.HTTPClient
	if o.rest == nil {
		o.rest = resty.New().SetTimeout(cfg.Timeout)

		if cfg.BaseURL == "" {
			cfg.BaseURL = constants.RESTURL
		}
	}

	if cfg.BaseURL != "" {
		o.rest.SetBaseURL(cfg.BaseURL)
	}

	o.rest.
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")

	//
	// NOTE ~> A negative rate disables client-side throttling entirely.
	//
	if cfg.RateLimitRPS < 0 {
		o.limiter = rate.NewLimiter(rate.Inf, cfg.RateLimitBurst)
	} else {
		o.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	if cfg.Breaker.Enabled {
		maxFailures := cfg.Breaker.MaxConsecutiveFailures

		o.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    Name,
			Timeout: cfg.Breaker.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				o.logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker changed state.")
			},
		})
	}

	o.Product = &ProductAPI{client: o}
	o.Withdraw = &WithdrawAPI{client: o}

	return o
}

//
// RetrieveCandles implements the exchange.Client interface on top of ProductAPI.GetCandles.
//
func (o *Client) RetrieveCandles(
	ctx context.Context,
	symbol string,
	interval exchange.Interval,
	start time.Time,
	end time.Time,
) ([]exchange.Candle, error) {
	granularity, err := GranularityFromDuration(interval.Duration())
	if err != nil {
		return nil, fmt.Errorf("interval %s is not supported by Coinbase Pro: %w", interval, err)
	}

	candles, err := o.Product.GetCandles(ctx, symbol, CandleRequest{
		Granularity: granularity,
		Start:       start,
		End:         end,
	})
	if err != nil {
		return nil, err
	}

	ret := make([]exchange.Candle, len(candles))

	for i, v := range candles {
		ret[i] = v
	}

	return ret, nil
}

//
// request makes the specified request to the Coinbase Pro API and returns the raw response, or an
// error if something went wrong along the way. The endpoint name is only used for logs and
// metrics. The prepare callback (if non-nil) can attach path params, query params, and a body.
//
func (o *Client) request(
	ctx context.Context,
	endpoint string,
	method string,
	url string,
	prepare func(*resty.Request),
) (*resty.Response, error) {
	//
	// Wait for our turn against the rate limit.
	//
	if err := o.limiter.Wait(ctx); err != nil {
		o.metrics.requests.WithLabelValues(endpoint, "throttled").Inc()

		return nil, fmt.Errorf("waiting on rate limiter for %s: %w", endpoint, err)
	}

	//
	// Build and execute the request (through the circuit breaker if there is one).
	//
	req := o.rest.R().SetContext(ctx)
	if prepare != nil {
		prepare(req)
	}

	start := time.Now()

	resp, err := o.execute(func() (*resty.Response, error) {
		return req.Execute(method, url)
	})

	elapsed := time.Since(start)
	o.metrics.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())

	if err != nil {
		code := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			code = "rejected"
		}

		o.metrics.requests.WithLabelValues(endpoint, code).Inc()
		o.logger.Error().Err(err).Str("endpoint", endpoint).Str("method", method).Dur("elapsed", elapsed).Msg("Request failed.")

		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}

	o.metrics.requests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode())).Inc()
	o.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Str("url", resp.Request.URL).
		Int("status", resp.StatusCode()).
		Dur("elapsed", elapsed).
		Msg("Request completed.")

	//
	// Make sure the status code was valid. If it was not, try to surface the API's own explanation.
	//
	if !resp.IsSuccess() {
		if apiErr := parseAPIError(resp.StatusCode(), resp.Body()); apiErr != nil {
			return resp, apiErr
		}

		return resp, exchange.NewHTTPError(resp.StatusCode(), string(resp.Body()))
	}

	return resp, nil
}

//
// execute runs the provided call, guarded by the circuit breaker when one is configured.
//
func (o *Client) execute(call func() (*resty.Response, error)) (*resty.Response, error) {
	if o.breaker == nil {
		return call()
	}

	result, err := o.breaker.Execute(func() (interface{}, error) {
		resp, err := call()
		if err != nil {
			return nil, err
		}

		if resp.StatusCode() >= 500 {
			return resp, errServerFault
		}

		return resp, nil
	})

	//
	// NOTE ~> A 5xx response is a failure as far as the breaker is concerned, but it is still a
	//  response that the caller should get to inspect.
	//
	if errors.Is(err, errServerFault) {
		return result.(*resty.Response), nil
	}

	if err != nil {
		return nil, err
	}

	return result.(*resty.Response), nil
}

//
// decode unmarshals the payload of a successful response into the provided value.
//
func decode(resp *resty.Response, v interface{}) error {
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", resp.Request.URL, err)
	}

	return nil
}
