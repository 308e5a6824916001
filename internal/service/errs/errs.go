package errs

import "errors"

var (
	// ErrAuth means the order API rejected the token (401/403).
	ErrAuth = errors.New("authorization failed")
	// ErrTransient covers every other failed call to the order API.
	ErrTransient = errors.New("transient network error")
	// ErrPrinter means the printer session failed to open, flush or close.
	ErrPrinter = errors.New("printer error")
	// ErrNotAuthenticated is returned when polling is started without a token.
	ErrNotAuthenticated = errors.New("not authenticated")
)
