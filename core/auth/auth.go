package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/eleganza/storefront/api/web"
	"github.com/eleganza/storefront/api/weberr"
	"github.com/eleganza/storefront/core/claims"
)

const (
	userIDKey = "user_id"
	roleKey   = "role"
)

// LoadAndSave adapts the scs session middleware to the web.Handler shape.
// It must be the outermost middleware so every handler sees session state.
func LoadAndSave(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error

			sh := session.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			}))
			sh.ServeHTTP(w, r)

			return err
		}
		return h
	}
	return m
}

// Authenticate loads the session principal into the request claims. Requests
// without a logged-in user are rejected before the handler runs.
func Authenticate(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			userID := session.GetString(ctx, userIDKey)
			if userID == "" {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			clm := claims.Claims{
				UserID: userID,
				Role:   session.GetString(ctx, roleKey),
			}

			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}

// Admin is Authenticate plus an admin-role gate. Unlike ownership checks,
// which fold into NotFound, the admin surfaces answer a distinct Forbidden.
func Admin(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			userID := session.GetString(ctx, userIDKey)
			if userID == "" {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			role := session.GetString(ctx, roleKey)
			if role != claims.RoleAdmin {
				return weberr.Forbidden(errors.New("user is not an admin"))
			}

			clm := claims.Claims{UserID: userID, Role: role}
			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}
