package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/eleganza/storefront/api/background"
	"github.com/eleganza/storefront/api/web"
	"github.com/eleganza/storefront/api/weberr"
	"github.com/eleganza/storefront/core/user"
	"github.com/eleganza/storefront/random"
	"github.com/eleganza/storefront/validate"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

type Mailer interface {
	SendRecoveryCode(to string, code string) error
}

type recoverRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Code            string `json:"code" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"eqfield=Password"`
}

// HandleRecover issues a one-time recovery code and mails it off the request
// path. Unknown emails get the same answer as known ones, so the endpoint
// does not confirm which addresses have accounts.
func HandleRecover(db *sqlx.DB, store Store, mailer Mailer, bg *background.Background, ttl time.Duration) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var req recoverRequest
		if err := web.Decode(w, r, &req); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding recovery request: %w", err))
		}

		if err := validate.Check(req); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		if _, err := user.FetchByEmail(ctx, db, req.Email); err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return web.Respond(ctx, w, nil, http.StatusAccepted)
			}
			return err
		}

		code, err := random.StringSecure(8)
		if err != nil {
			return fmt.Errorf("generating recovery code: %w", err)
		}

		if err := store.Save(ctx, req.Email, code, ttl); err != nil {
			return err
		}

		email := req.Email
		bg.Run("recovery email", func() error {
			return mailer.SendRecoveryCode(email, code)
		})

		return web.Respond(ctx, w, nil, http.StatusAccepted)
	}
}

// HandleReset redeems a recovery code and rewrites the password hash. The
// code is single use; a redeemed or expired one answers NotFound.
func HandleReset(db *sqlx.DB, store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var req resetRequest
		if err := web.Decode(w, r, &req); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding reset request: %w", err))
		}

		if err := validate.Check(req); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		if err := store.Redeem(ctx, req.Email, req.Code); err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		if err := user.UpdatePassword(ctx, db, req.Email, hash); err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
