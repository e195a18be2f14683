package middleware

import (
	"context"
	"net/http"
	"strings"
)

// credential endpoints: a 401 here means bad credentials, not an expired session
var open = map[string]bool{
	"/auth/login":    true,
	"/auth/register": true,
}

func isOpen(path string) bool {
	for p := range open {
		if strings.HasSuffix(path, p) {
			return true
		}
	}
	return false
}

type TokenSource interface {
	Token() string
}

type ExpiryHandler interface {
	SessionExpired(ctx context.Context)
}

// Auth attaches Authorization: Bearer <token> when a token is present.
// A missing token is not an error here; the server decides.
func Auth(tokens TokenSource) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(r *http.Request) (*http.Response, error) {
			tok := tokens.Token()
			if tok == "" {
				return next.RoundTrip(r)
			}
			r = r.Clone(r.Context())
			r.Header.Set("Authorization", "Bearer "+tok)
			return next.RoundTrip(r)
		})
	}
}

// Unauthorized hands every 401 outside the credential endpoints to h. The
// response still reaches the caller, which reports the failure as usual.
func Unauthorized(h ExpiryHandler) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(r *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(r)
			if err != nil {
				return resp, err
			}
			if resp.StatusCode == http.StatusUnauthorized && !isOpen(r.URL.Path) {
				h.SessionExpired(r.Context())
			}
			return resp, nil
		})
	}
}
