package coinbasepro

import (
	"encoding/json"
	"fmt"
)

//
// APIError implements the exchange.APIError interface for errors returned from Coinbase Pro API
// calls. The exchange reports them as a JSON object with a single "message" field.
//
type APIError struct {
	statusCode int
	message    string
}

func (o *APIError) StatusCode() int {
	return o.statusCode
}

func (o *APIError) Message() string {
	return o.message
}

func (o *APIError) Error() string {
	return fmt.Sprintf(
		"the Coinbase Pro endpoint returned an API error (status: %d, message: %s)",
		o.statusCode, o.message,
	)
}

//
// parseAPIError attempts to interpret the provided response payload as a first-class API error. It
// returns nil if the payload does not appear to hold one.
//
func parseAPIError(statusCode int, body []byte) *APIError {
	var raw struct {
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &raw); err != nil || raw.Message == "" {
		return nil
	}

	return &APIError{
		statusCode: statusCode,
		message:    raw.Message,
	}
}
