package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/eleganza/storefront/api/web"
	"github.com/eleganza/storefront/api/weberr"
	"github.com/eleganza/storefront/rate"
)

// RateLimit bounds per-client request rates on sensitive routes, keyed by
// remote host.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !lim.Check(host) {
				err := errors.New("rate limit exceeded")
				return weberr.NewError(err, err.Error(), http.StatusTooManyRequests)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
