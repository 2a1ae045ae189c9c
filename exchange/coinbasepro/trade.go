package coinbasepro

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

//
// Trade is a single public trade. The side indicates the maker order side.
//
type Trade struct {
	TradeID int64           `json:"trade_id"`
	Price   decimal.Decimal `json:"price"`
	Size    decimal.Decimal `json:"size"`
	Side    Side            `json:"side"`
	Time    time.Time       `json:"time"`
}

//
// Pagination holds cursor parameters for paginated endpoints. Coinbase Pro cursors are opaque, so
// callers should only ever pass back values previously returned in a page.
//
type Pagination struct {
	Before string
	After  string
	Limit  int
}

//
// TradePage holds one page of trades (newest first) along with the cursors needed to move to newer
// (Before) or older (After) pages.
//
type TradePage struct {
	Trades []Trade
	Before string
	After  string
}

//
// GetTrades lists the latest public trades for a product.
//
func (o *ProductAPI) GetTrades(ctx context.Context, productID string, page *Pagination) (*TradePage, error) {
	resp, err := o.client.request(ctx, "trades", http.MethodGet, TradesURL, func(req *resty.Request) {
		req.SetPathParam(ProductIDParam, productID)

		if page == nil {
			return
		}

		if page.Before != "" {
			req.SetQueryParam("before", page.Before)
		}

		if page.After != "" {
			req.SetQueryParam("after", page.After)
		}

		if page.Limit > 0 {
			req.SetQueryParam("limit", strconv.Itoa(page.Limit))
		}
	})
	if err != nil {
		return nil, err
	}

	ret := &TradePage{
		Before: resp.Header().Get(BeforeHeader),
		After:  resp.Header().Get(AfterHeader),
	}

	if err := decode(resp, &ret.Trades); err != nil {
		return nil, err
	}

	return ret, nil
}
