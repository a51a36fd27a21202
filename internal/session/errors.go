package session

import "errors"

var (
	ErrInvalidTransition  = errors.New("session: transition not allowed from this screen")
	ErrWrongScreen        = errors.New("session: operation not available on this screen")
	ErrInvalidInput       = errors.New("session: invalid input")
	ErrBusy               = errors.New("session: a request is already in progress")
	ErrStale              = errors.New("session: response arrived for a context that is no longer current")
	ErrCatalogUnavailable = errors.New("session: catalog unavailable")
	ErrCheckoutFailed     = errors.New("session: checkout failed")
	ErrSessionNotFound    = errors.New("session: not found")
)
