// Package middleware wraps the outgoing HTTP transport. Every request of the
// API client passes through the same chain, whichever screen issued it.
package middleware

import "net/http"

type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type Middleware func(http.RoundTripper) http.RoundTripper

// Chain wraps base so that mws[0] sees the request first.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}
