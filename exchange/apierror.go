package exchange

//
// APIError generically provides an interface to objects that represent a first-class error provided
// in the response of a request against a cryptocurrency exchange's API.
//
type APIError interface {
	error

	//
	// StatusCode returns the HTTP status code of the response that carried the error.
	//
	StatusCode() int

	//
	// Message returns the actual error message provided by the API (if there was one).
	//
	Message() string
}
