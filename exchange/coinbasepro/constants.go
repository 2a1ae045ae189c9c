package coinbasepro

const (
	Name = "≪rest-client≫"

	ProductIDParam = "productId"

	ProductsURL          = "/products"
	ProductURL           = ProductsURL + "/{" + ProductIDParam + "}"
	OrderBookURL         = ProductURL + "/book"
	TickerURL            = ProductURL + "/ticker"
	StatsURL             = ProductURL + "/stats"
	TradesURL            = ProductURL + "/trades"
	CandlesURL           = ProductURL + "/candles"
	CryptoWithdrawalsURL = "/withdrawals/crypto"

	BeforeHeader = "CB-BEFORE"
	AfterHeader  = "CB-AFTER"

	// NOTE ~> Coinbase Pro refuses to serve more than 300 candles from a single call to the candles
	//  endpoint, so larger ranges have to be split into buckets.
	MaxCandlesPerRequest = 300

	isoTimeFmt = "2006-01-02T15:04:05.000Z"
)
