package exchange

import (
	"context"
	"time"
)

//
// Client generically provides an interface to an object that can be used to interact with a
// cryptocurrency exchange's regular REST API.
//
// Whenever an endpoint fails – whether due to a system failure, an HTTP error, or an API error –
// the returned error will be non-nil. API errors satisfy the APIError interface and unexplained
// non-2xx responses are reported as *HTTPError.
//
type Client interface {

	//
	// RetrieveCandles retrieves candles of the specified interval for the specified ticker symbol
	// within the specified time range, ordered oldest first. Implementations are responsible for
	// splitting the range into as many requests as the exchange requires.
	//
	RetrieveCandles(ctx context.Context, symbol string, interval Interval, start time.Time, end time.Time) ([]Candle, error)
}
