package coinbasepro

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInvalidWithdrawal = errors.New("invalid crypto withdrawal")

//
// WithdrawAPI groups the (authenticated) withdrawal endpoints of the Coinbase Pro REST API. The
// injected HTTP client is expected to sign these requests.
//
type WithdrawAPI struct {
	client *Client
}

//
// CryptoWithdrawalRequest describes a withdrawal of funds to a crypto address.
//
type CryptoWithdrawalRequest struct {
	Amount        decimal.Decimal
	Currency      string
	CryptoAddress string

	//
	// DestinationTag is the destination tag (or memo) for currencies that support one. When it is
	// empty the exchange is told explicitly that no tag is needed.
	//
	DestinationTag string

	//
	// AddNetworkFeeToTotal adds the network fee on top of the amount when true. When nil the exchange
	// defaults to deducting the network fee from the amount.
	//
	AddNetworkFeeToTotal *bool
}

type cryptoWithdrawalBody struct {
	AddNetworkFeeToTotal *bool           `json:"add_network_fee_to_total,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	CryptoAddress        string          `json:"crypto_address"`
	Currency             string          `json:"currency"`
	DestinationTag       string          `json:"destination_tag,omitempty"`
	NoDestinationTag     bool            `json:"no_destination_tag,omitempty"`
}

type CryptoWithdrawal struct {
	ID       uuid.UUID       `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (o CryptoWithdrawalRequest) validate() error {
	if !o.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive (got %s)", ErrInvalidWithdrawal, o.Amount)
	}

	if o.Currency == "" {
		return fmt.Errorf("%w: currency is required", ErrInvalidWithdrawal)
	}

	if o.CryptoAddress == "" {
		return fmt.Errorf("%w: crypto address is required", ErrInvalidWithdrawal)
	}

	return nil
}

func (o CryptoWithdrawalRequest) body() cryptoWithdrawalBody {
	body := cryptoWithdrawalBody{
		AddNetworkFeeToTotal: o.AddNetworkFeeToTotal,
		Amount:               o.Amount,
		CryptoAddress:        o.CryptoAddress,
		Currency:             o.Currency,
	}

	if o.DestinationTag != "" {
		body.DestinationTag = o.DestinationTag
	} else {
		body.NoDestinationTag = true
	}

	return body
}

//
// PostCryptoWithdrawal withdraws funds to a crypto address.
//
func (o *WithdrawAPI) PostCryptoWithdrawal(ctx context.Context, params CryptoWithdrawalRequest) (*CryptoWithdrawal, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	resp, err := o.client.request(ctx, "crypto_withdrawal", http.MethodPost, CryptoWithdrawalsURL, func(req *resty.Request) {
		req.SetHeader("Content-Type", "application/json")
		req.SetBody(params.body())
	})
	if err != nil {
		return nil, err
	}

	var withdrawal CryptoWithdrawal

	if err := decode(resp, &withdrawal); err != nil {
		return nil, err
	}

	o.client.logger.Info().
		Str("id", withdrawal.ID.String()).
		Str("currency", withdrawal.Currency).
		Str("amount", withdrawal.Amount.String()).
		Msg("Crypto withdrawal submitted.")

	return &withdrawal, nil
}
