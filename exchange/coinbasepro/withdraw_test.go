package coinbasepro

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//
// withdrawalServer echoes the withdrawal back and hands the decoded request body to the test.
//
func withdrawalServer(t *testing.T, id uuid.UUID, bodies chan<- map[string]interface{}) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /withdrawals/crypto", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}

		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies <- body

		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"id":       id.String(),
			"amount":   body["amount"],
			"currency": body["currency"],
		})
	})

	return mux
}

func TestPostCryptoWithdrawalWithoutDestinationTag(t *testing.T) {
	id := uuid.New()
	bodies := make(chan map[string]interface{}, 1)

	client := newTestClient(t, withdrawalServer(t, id, bodies))

	withdrawal, err := client.Withdraw.PostCryptoWithdrawal(context.Background(), CryptoWithdrawalRequest{
		Amount:        decimal.RequireFromString("1.5"),
		Currency:      "BTC",
		CryptoAddress: "3QJmV3qfvL9SuYo34YihAf3sRCW3qSinyC",
	})
	require.NoError(t, err)

	body := <-bodies
	assert.Equal(t, true, body["no_destination_tag"])
	assert.NotContains(t, body, "destination_tag")
	assert.NotContains(t, body, "add_network_fee_to_total")
	assert.Equal(t, "3QJmV3qfvL9SuYo34YihAf3sRCW3qSinyC", body["crypto_address"])

	assert.Equal(t, id, withdrawal.ID)
	assert.Equal(t, "BTC", withdrawal.Currency)
	assert.True(t, withdrawal.Amount.Equal(decimal.RequireFromString("1.5")))
}

func TestPostCryptoWithdrawalWithDestinationTag(t *testing.T) {
	bodies := make(chan map[string]interface{}, 1)
	addFee := true

	client := newTestClient(t, withdrawalServer(t, uuid.New(), bodies))

	_, err := client.Withdraw.PostCryptoWithdrawal(context.Background(), CryptoWithdrawalRequest{
		Amount:               decimal.NewFromInt(25),
		Currency:             "XRP",
		CryptoAddress:        "rw2ciyaNshpHe7bCHo4bRWq6pqqynnWKQg",
		DestinationTag:       "12345",
		AddNetworkFeeToTotal: &addFee,
	})
	require.NoError(t, err)

	body := <-bodies
	assert.Equal(t, "12345", body["destination_tag"])
	assert.NotContains(t, body, "no_destination_tag")
	assert.Equal(t, true, body["add_network_fee_to_total"])
}

func TestPostCryptoWithdrawalValidates(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("No request should have been made, but %s was requested.", r.URL)
	}))

	cases := []CryptoWithdrawalRequest{
		{Amount: decimal.Zero, Currency: "BTC", CryptoAddress: "addr"},
		{Amount: decimal.NewFromInt(1), CryptoAddress: "addr"},
		{Amount: decimal.NewFromInt(1), Currency: "BTC"},
	}

	for _, c := range cases {
		_, err := client.Withdraw.PostCryptoWithdrawal(context.Background(), c)
		assert.ErrorIs(t, err, ErrInvalidWithdrawal)
	}
}
