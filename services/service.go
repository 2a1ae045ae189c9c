package services

import "errors"

var (
	ErrAlreadyStarted = errors.New("service is already running")
	ErrNotStarted     = errors.New("service is not running")
)

//
// Service generically provides an interface to any isolated, long-running service in the software.
//
type Service interface {

	//
	// Start fires up the service. A channel that can be blocked on for a "true" value – which
	// indicates that start up is complete – is returned. Starting a service that is already running
	// results in ErrAlreadyStarted.
	//
	Start() (<-chan bool, error)

	//
	// Stop tells the service to shut down. A channel that can be blocked on for a "true" value –
	// which indicates that shut down is complete – is returned. Stopping a service that is not
	// running results in ErrNotStarted.
	//
	Stop() (<-chan bool, error)
}
