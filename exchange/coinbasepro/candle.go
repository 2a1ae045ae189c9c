package coinbasepro

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lukehollenback/cbpro/exchange"
	"github.com/shopspring/decimal"
)

// NOTE ~> According to the Coinbase Pro documentation, the arrays returned from the candles
//  endpoint are structured as follows:
//
//  [0] 1415398768, // Bucket start time (unix seconds)
//  [1] 0.32,       // Lowest price during the bucket interval
//  [2] 4.2,        // Highest price during the bucket interval
//  [3] 0.35,       // Opening price (first trade) in the bucket interval
//  [4] 4.2,        // Closing price (last trade) in the bucket interval
//  [5] 12.3        // Volume of trading activity during the bucket interval

const (
	TimeIndex   = 0
	LowIndex    = 1
	HighIndex   = 2
	OpenIndex   = 3
	CloseIndex  = 4
	VolumeIndex = 5
)

var (
	ErrIncompleteRange = errors.New("candle range needs both a start and an end (or neither)")
	ErrInvalidRange    = errors.New("candle range end must not be before its start")
)

//
// Candle implements the exchange.Candle interface for candlesticks provided by the Coinbase Pro API.
//
type Candle struct {
	start  time.Time
	width  time.Duration
	open   decimal.Decimal
	high   decimal.Decimal
	low    decimal.Decimal
	close  decimal.Decimal
	volume decimal.Decimal
}

var _ exchange.Candle = (*Candle)(nil)

//
// NewCandle instantiates a candle by hand. Candles retrieved from the exchange never need this.
//
func NewCandle(
	start time.Time,
	granularity Granularity,
	open decimal.Decimal,
	high decimal.Decimal,
	low decimal.Decimal,
	close decimal.Decimal,
	volume decimal.Decimal,
) *Candle {
	return &Candle{
		start:  start.UTC(),
		width:  granularity.Duration(),
		open:   open,
		high:   high,
		low:    low,
		close:  close,
		volume: volume,
	}
}

//
// UnmarshalJSON implements the json.Unmarshaler interface for Candle structures so that the JSON
// arrays provided by the Coinbase Pro API that represent them can be properly unmarshalled.
//
func (o *Candle) UnmarshalJSON(data []byte) error {
	//
	// NOTE ~> Decode into json.Number values so that prices never take a detour through float64.
	//
	var raw []json.Number

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if len(raw) <= VolumeIndex {
		return fmt.Errorf("candle has %d elements, expected 6 (%s)", len(raw), data)
	}

	//
	// Parse the start time of the candle.
	//
	seconds, err := strconv.ParseInt(raw[TimeIndex].String(), 10, 64)
	if err != nil {
		return fmt.Errorf("failed to parse start time (%s): %w", raw[TimeIndex], err)
	}

	o.start = time.Unix(seconds, 0).UTC()

	//
	// Parse the prices and volume of the candle.
	//
	fields := []struct {
		index int
		name  string
		dst   *decimal.Decimal
	}{
		{LowIndex, "low", &o.low},
		{HighIndex, "high", &o.high},
		{OpenIndex, "open", &o.open},
		{CloseIndex, "close", &o.close},
		{VolumeIndex, "volume", &o.volume},
	}

	for _, f := range fields {
		if *f.dst, err = decimal.NewFromString(raw[f.index].String()); err != nil {
			return fmt.Errorf("failed to parse %s (%s): %w", f.name, raw[f.index], err)
		}
	}

	return nil
}

//
// Unix returns the opening instant of the candle in seconds since the epoch, as the exchange
// reports it.
//
func (o *Candle) Unix() int64 {
	return o.start.Unix()
}

//
// TimeString returns the opening instant of the candle in ISO 8601 (UTC, millisecond precision).
//
func (o *Candle) TimeString() string {
	return o.start.Format(isoTimeFmt)
}

func (o *Candle) StartTime() time.Time {
	return o.start
}

func (o *Candle) EndTime() time.Time {
	return o.start.Add(o.width).Add(-time.Nanosecond)
}

func (o *Candle) Granularity() Granularity {
	return Granularity(o.width / time.Second)
}

func (o *Candle) Open() decimal.Decimal {
	return o.open
}

func (o *Candle) High() decimal.Decimal {
	return o.high
}

func (o *Candle) Low() decimal.Decimal {
	return o.low
}

func (o *Candle) Close() decimal.Decimal {
	return o.close
}

func (o *Candle) Volume() decimal.Decimal {
	return o.volume
}

func (o *Candle) String() string {
	return fmt.Sprintf(
		"%s O:%s H:%s L:%s C:%s V:%s",
		o.TimeString(), o.open, o.high, o.low, o.close, o.volume,
	)
}

//
// CandleRequest describes the candles to retrieve. Start and End are both optional, but must be
// provided together. Without them the exchange responds with its most recent candles.
//
type CandleRequest struct {
	Granularity Granularity
	Start       time.Time
	End         time.Time
}

//
// GetCandles retrieves historic rates for a product, sorted oldest first. Ranges holding more
// candles than the exchange serves at once are fetched bucket by bucket.
//
func (o *ProductAPI) GetCandles(ctx context.Context, productID string, params CandleRequest) ([]*Candle, error) {
	//
	// Validate the request before touching the network.
	//
	if !params.Granularity.Valid() {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidGranularity, params.Granularity)
	}

	if params.Start.IsZero() != params.End.IsZero() {
		return nil, ErrIncompleteRange
	}

	if params.End.Before(params.Start) {
		return nil, ErrInvalidRange
	}

	//
	// Work out which time slices we have to ask for.
	//
	ranges := []bucket{{}}

	if !params.Start.IsZero() {
		ranges = buckets(params.Start, params.End, params.Granularity)
	}

	//
	// Retrieve each time slice and merge them, skipping duplicates and anything the exchange sent
	// back that lies outside of the requested range.
	//
	seen := make(map[int64]struct{})
	candles := make([]*Candle, 0)

	for _, b := range ranges {
		batch, err := o.getCandleBucket(ctx, productID, params.Granularity, b)
		if err != nil {
			return nil, err
		}

		for _, c := range batch {
			if !b.contains(c.start) {
				continue
			}

			if _, dup := seen[c.Unix()]; dup {
				continue
			}

			seen[c.Unix()] = struct{}{}
			c.width = params.Granularity.Duration()
			candles = append(candles, c)
		}
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].start.Before(candles[j].start)
	})

	o.client.logger.Debug().
		Str("product", productID).
		Str("granularity", params.Granularity.String()).
		Int("buckets", len(ranges)).
		Int("candles", len(candles)).
		Msg("Retrieved candles.")

	return candles, nil
}

func (o *ProductAPI) getCandleBucket(
	ctx context.Context,
	productID string,
	granularity Granularity,
	b bucket,
) ([]*Candle, error) {
	resp, err := o.client.request(ctx, "candles", http.MethodGet, CandlesURL, func(req *resty.Request) {
		req.SetPathParam(ProductIDParam, productID)
		req.SetQueryParam("granularity", strconv.Itoa(int(granularity)))

		if !b.start.IsZero() {
			req.SetQueryParam("start", b.start.UTC().Format(isoTimeFmt))
			req.SetQueryParam("end", b.end.UTC().Format(isoTimeFmt))
		}
	})
	if err != nil {
		return nil, err
	}

	var batch []*Candle

	if err := decode(resp, &batch); err != nil {
		return nil, err
	}

	return batch, nil
}
