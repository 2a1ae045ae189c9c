package coinbasepro

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

//
// newTestClient spins up a fake exchange backed by the provided handler and returns a client that
// talks to it without any client-side throttling.
//
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL:      srv.URL,
		RateLimitRPS: -1,
	})
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v interface{}) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

//
// bookFixture generates an order book payload with the requested number of entries per side. Level
// 3 entries carry order IDs instead of order counts.
//
func bookFixture(level OrderBookLevel, bids int, asks int) map[string]interface{} {
	side := func(n int, base float64, step float64) [][]interface{} {
		entries := make([][]interface{}, n)

		for i := range entries {
			price := fmt.Sprintf("%.2f", base+step*float64(i))

			if level == FullOrderBook {
				entries[i] = []interface{}{price, "0.01000000", uuid.NewString()}
			} else {
				entries[i] = []interface{}{price, "0.50000000", i + 1}
			}
		}

		return entries
	}

	return map[string]interface{}{
		"sequence": 3,
		"bids":     side(bids, 8000.00, -0.01),
		"asks":     side(asks, 8000.01, 0.01),
	}
}

func tradesFixture(n int) []map[string]interface{} {
	trades := make([]map[string]interface{}, n)
	now := time.Date(2020, 3, 15, 12, 0, 0, 0, time.UTC)

	for i := range trades {
		side := "buy"
		if i%2 == 1 {
			side = "sell"
		}

		trades[i] = map[string]interface{}{
			"time":     now.Add(-time.Duration(i) * time.Second).Format(time.RFC3339Nano),
			"trade_id": 26004000 - i,
			"price":    "4950.12000000",
			"size":     "0.00200000",
			"side":     side,
		}
	}

	return trades
}

//
// candlesFixture generates candles of the provided granularity for every slot within the inclusive
// range, newest first (which is how the exchange orders them).
//
func candlesFixture(start time.Time, end time.Time, granularity Granularity) [][]interface{} {
	ret := make([][]interface{}, 0)
	width := granularity.Duration()

	first := start.Truncate(width)
	if first.Before(start) {
		first = first.Add(width)
	}

	for t := first; !t.After(end); t = t.Add(width) {
		ret = append([][]interface{}{{t.Unix(), 4900.5, 5100.25, 5000, 5050.75, 12.5}}, ret...)
	}

	return ret
}
