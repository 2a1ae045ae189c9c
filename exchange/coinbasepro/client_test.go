package coinbasepro

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lukehollenback/cbpro/exchange"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorIsSurfaced(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /products/NOPE-USD/ticker", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]string{"message": "NotFound"})
	})

	client := newTestClient(t, mux)

	_, err := client.Product.GetProductTicker(context.Background(), "NOPE-USD")
	require.Error(t, err)

	var apiErr exchange.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode())
	assert.Equal(t, "NotFound", apiErr.Message())
}

func TestHTTPErrorIsSurfaced(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))

	_, err := client.Product.GetProducts(context.Background())
	require.Error(t, err)

	var httpErr *exchange.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode())
	assert.Contains(t, httpErr.Body(), "bad gateway")
}

func TestMalformedPayloadIsAnError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a list"}`))
	}))

	_, err := client.Product.GetProducts(context.Background())
	assert.ErrorContains(t, err, "failed to decode response")
}

func TestCircuitBreakerOpensOnServerFaults(t *testing.T) {
	var hits int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		BaseURL:      srv.URL,
		RateLimitRPS: -1,
		Breaker: BreakerConfig{
			Enabled:                true,
			MaxConsecutiveFailures: 2,
			OpenTimeout:            time.Minute,
		},
	})

	for i := 0; i < 2; i++ {
		_, err := client.Product.GetProductStats(context.Background(), "BTC-USD")

		var httpErr *exchange.HTTPError
		require.True(t, errors.As(err, &httpErr), "attempt %d: %v", i, err)
		assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode())
	}

	_, err := client.Product.GetProductStats(context.Background(), "BTC-USD")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClientErrorsDoNotTripCircuitBreaker(t *testing.T) {
	var hits int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(t, w, http.StatusBadRequest, map[string]string{"message": "Invalid product_id"})
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		BaseURL:      srv.URL,
		RateLimitRPS: -1,
		Breaker:      BreakerConfig{Enabled: true, MaxConsecutiveFailures: 1},
	})

	for i := 0; i < 3; i++ {
		_, err := client.Product.GetProductStats(context.Background(), "BTC-XXX")

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
	}

	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestRateLimiterHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []interface{}{})
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{BaseURL: srv.URL, RateLimitRPS: 0.001, RateLimitBurst: 1})

	_, err := client.Product.GetProducts(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Product.GetProducts(ctx)
	assert.Error(t, err)
}

func TestMetricsAreRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{"open": "1", "high": "2", "low": "0.5", "last": "1.5"})
	}))
	t.Cleanup(srv.Close)

	reg := prometheus.NewRegistry()

	client := NewClient(Config{BaseURL: srv.URL, RateLimitRPS: -1, Registerer: reg})

	//
	// A second client against the same registry must share the collectors rather than panic.
	//
	other := NewClient(Config{BaseURL: srv.URL, RateLimitRPS: -1, Registerer: reg})

	_, err := client.Product.GetProductStats(context.Background(), "BTC-USD")
	require.NoError(t, err)

	_, err = other.Product.GetProductStats(context.Background(), "BTC-USD")
	require.NoError(t, err)

	assert.Equal(t, float64(2), testutil.ToFloat64(client.metrics.requests.WithLabelValues("stats", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(client.metrics.duration))
}

func TestInjectedHTTPClientIsUsed(t *testing.T) {
	var signed int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("CB-ACCESS-KEY") == "key" {
			atomic.AddInt32(&signed, 1)
		}

		writeJSON(t, w, http.StatusOK, []interface{}{})
	}))
	t.Cleanup(srv.Close)

	rest := resty.New().
		SetBaseURL(srv.URL).
		OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
			req.SetHeader("CB-ACCESS-KEY", "key")

			return nil
		})

	client := NewClient(Config{HTTPClient: rest, RateLimitRPS: -1})

	_, err := client.Product.GetProducts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&signed))
}
