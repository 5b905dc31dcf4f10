package traffmonetizer

import "errors"

var (
	// ErrNotAuthenticated is returned by protected endpoints when no session token is set.
	// No request is sent in that case.
	ErrNotAuthenticated = errors.New("traffmonetizer: not logged in")

	// ErrInvalidProxySpec is returned for proxy strings that are not host:port or host:port:user:pass,
	// and for unsupported proxy schemes.
	ErrInvalidProxySpec = errors.New("traffmonetizer: invalid proxy spec")

	// ErrMalformedResponse means the HTTP call succeeded but the body lacks the expected JSON shape.
	ErrMalformedResponse = errors.New("traffmonetizer: malformed response")
)
