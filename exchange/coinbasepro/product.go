package coinbasepro

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

//
// ProductAPI groups the public market data endpoints of the Coinbase Pro REST API.
//
type ProductAPI struct {
	client *Client
}

//
// Product describes a market (a.k.a. trading pair) that is available on the exchange.
//
type Product struct {
	ID             string          `json:"id"`
	DisplayName    string          `json:"display_name"`
	BaseCurrency   string          `json:"base_currency"`
	QuoteCurrency  string          `json:"quote_currency"`
	BaseIncrement  decimal.Decimal `json:"base_increment"`
	QuoteIncrement decimal.Decimal `json:"quote_increment"`
	BaseMinSize    decimal.Decimal `json:"base_min_size"`
	BaseMaxSize    decimal.Decimal `json:"base_max_size"`
	MinMarketFunds decimal.Decimal `json:"min_market_funds"`
	MaxMarketFunds decimal.Decimal `json:"max_market_funds"`
	Status         string          `json:"status"`
	StatusMessage  string          `json:"status_message"`
	CancelOnly     bool            `json:"cancel_only"`
	LimitOnly      bool            `json:"limit_only"`
	PostOnly       bool            `json:"post_only"`
	MarginEnabled  bool            `json:"margin_enabled"`
}

//
// Ticker is a snapshot of the last trade, best bid/ask, and 24h volume of a product.
//
type Ticker struct {
	TradeID int64           `json:"trade_id"`
	Price   decimal.Decimal `json:"price"`
	Size    decimal.Decimal `json:"size"`
	Bid     decimal.Decimal `json:"bid"`
	Ask     decimal.Decimal `json:"ask"`
	Volume  decimal.Decimal `json:"volume"`
	Time    time.Time       `json:"time"`
}

//
// Stats holds 24 hour statistics of a product. Volume is in base currency units; open, high, and
// low are in quote currency units.
//
type Stats struct {
	Open        decimal.Decimal `json:"open"`
	High        decimal.Decimal `json:"high"`
	Low         decimal.Decimal `json:"low"`
	Last        decimal.Decimal `json:"last"`
	Volume      decimal.Decimal `json:"volume"`
	Volume30Day decimal.Decimal `json:"volume_30day"`
}

//
// GetProducts lists the available currency pairs for trading.
//
func (o *ProductAPI) GetProducts(ctx context.Context) ([]Product, error) {
	resp, err := o.client.request(ctx, "products", http.MethodGet, ProductsURL, nil)
	if err != nil {
		return nil, err
	}

	var products []Product

	if err := decode(resp, &products); err != nil {
		return nil, err
	}

	return products, nil
}

//
// GetProduct retrieves market data for a single product.
//
func (o *ProductAPI) GetProduct(ctx context.Context, productID string) (*Product, error) {
	resp, err := o.client.request(ctx, "product", http.MethodGet, ProductURL, withProduct(productID))
	if err != nil {
		return nil, err
	}

	var product Product

	if err := decode(resp, &product); err != nil {
		return nil, err
	}

	return &product, nil
}

//
// GetProductTicker retrieves a snapshot of the last trade (tick), best bid/ask, and 24h volume.
//
func (o *ProductAPI) GetProductTicker(ctx context.Context, productID string) (*Ticker, error) {
	resp, err := o.client.request(ctx, "ticker", http.MethodGet, TickerURL, withProduct(productID))
	if err != nil {
		return nil, err
	}

	var ticker Ticker

	if err := decode(resp, &ticker); err != nil {
		return nil, err
	}

	return &ticker, nil
}

//
// GetProductStats retrieves the 24 hour statistics of a product.
//
func (o *ProductAPI) GetProductStats(ctx context.Context, productID string) (*Stats, error) {
	resp, err := o.client.request(ctx, "stats", http.MethodGet, StatsURL, withProduct(productID))
	if err != nil {
		return nil, err
	}

	var stats Stats

	if err := decode(resp, &stats); err != nil {
		return nil, err
	}

	return &stats, nil
}

func withProduct(productID string) func(*resty.Request) {
	return func(req *resty.Request) {
		req.SetPathParam(ProductIDParam, productID)
	}
}
