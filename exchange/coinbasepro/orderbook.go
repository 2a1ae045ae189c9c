package coinbasepro

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NOTE ~> Entries of the order book are arrays whose third element depends on the requested level:
//
//  Levels 1 and 2: [ price, size, num-orders ]
//  Level 3:        [ price, size, order-id ]

const (
	EntryPriceIndex = 0
	EntrySizeIndex  = 1
	EntryExtraIndex = 2
)

var ErrInvalidOrderBookLevel = errors.New("order book level must be 1, 2, or 3")

//
// OrderBookLevel is an enum that represents the depth of order book data that the exchange should
// respond with.
//
type OrderBookLevel int

const (
	BestBidAndAsk    OrderBookLevel = 1 // Only the best bid and ask.
	Top50BidsAndAsks OrderBookLevel = 2 // Top 50 bids and asks (aggregated).
	FullOrderBook    OrderBookLevel = 3 // Full order book (non aggregated).
)

func (o OrderBookLevel) Valid() bool {
	return o >= BestBidAndAsk && o <= FullOrderBook
}

type OrderBookOptions struct {
	Level OrderBookLevel
}

//
// OrderBookEntry is a single price level (levels 1 and 2) or a single open order (level 3).
//
type OrderBookEntry struct {
	Price     decimal.Decimal
	Size      decimal.Decimal
	NumOrders int       // Only populated for levels 1 and 2.
	OrderID   uuid.UUID // Only populated for level 3.
}

//
// UnmarshalJSON implements the json.Unmarshaler interface for OrderBookEntry structures so that the
// JSON arrays provided by the Coinbase Pro API that represent them can be properly unmarshalled.
//
func (o *OrderBookEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if len(raw) <= EntryExtraIndex {
		return fmt.Errorf("order book entry has %d elements, expected 3 (%s)", len(raw), data)
	}

	if err := json.Unmarshal(raw[EntryPriceIndex], &o.Price); err != nil {
		return fmt.Errorf("failed to parse price of order book entry (%s): %w", raw[EntryPriceIndex], err)
	}

	if err := json.Unmarshal(raw[EntrySizeIndex], &o.Size); err != nil {
		return fmt.Errorf("failed to parse size of order book entry (%s): %w", raw[EntrySizeIndex], err)
	}

	//
	// The last element is a plain number of orders for aggregated levels and an order ID string for
	// the full order book.
	//
	extra := raw[EntryExtraIndex]

	if n, err := strconv.Atoi(string(extra)); err == nil {
		o.NumOrders = n

		return nil
	}

	var orderID string

	if err := json.Unmarshal(extra, &orderID); err != nil {
		return fmt.Errorf("failed to parse last element of order book entry (%s): %w", extra, err)
	}

	id, err := uuid.Parse(orderID)
	if err != nil {
		return fmt.Errorf("failed to parse order ID of order book entry (%s): %w", orderID, err)
	}

	o.OrderID = id

	return nil
}

//
// OrderBook is a list of open orders for a product, sorted best first on both sides.
//
type OrderBook struct {
	Sequence int64            `json:"sequence"`
	Bids     []OrderBookEntry `json:"bids"`
	Asks     []OrderBookEntry `json:"asks"`

	Level OrderBookLevel `json:"-"`
}

func (o *OrderBook) BestBid() (OrderBookEntry, bool) {
	if len(o.Bids) == 0 {
		return OrderBookEntry{}, false
	}

	return o.Bids[0], true
}

func (o *OrderBook) BestAsk() (OrderBookEntry, bool) {
	if len(o.Asks) == 0 {
		return OrderBookEntry{}, false
	}

	return o.Asks[0], true
}

//
// Spread returns the difference between the best ask and the best bid, or false if either side of
// the book is empty.
//
func (o *OrderBook) Spread() (decimal.Decimal, bool) {
	bid, okBid := o.BestBid()
	ask, okAsk := o.BestAsk()

	if !okBid || !okAsk {
		return decimal.Zero, false
	}

	return ask.Price.Sub(bid.Price), true
}

//
// GetProductOrderBook lists open orders for a product at the requested depth. When no options (or
// no level) are provided, only the best bid and ask are returned.
//
func (o *ProductAPI) GetProductOrderBook(
	ctx context.Context,
	productID string,
	opts *OrderBookOptions,
) (*OrderBook, error) {
	level := BestBidAndAsk

	if opts != nil && opts.Level != 0 {
		level = opts.Level
	}

	if !level.Valid() {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidOrderBookLevel, level)
	}

	resp, err := o.client.request(ctx, "book", http.MethodGet, OrderBookURL, func(req *resty.Request) {
		req.SetPathParam(ProductIDParam, productID)
		req.SetQueryParam("level", strconv.Itoa(int(level)))
	})
	if err != nil {
		return nil, err
	}

	book := &OrderBook{}

	if err := decode(resp, book); err != nil {
		return nil, err
	}

	book.Level = level

	return book, nil
}
