package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/eleganza/storefront/api/web"
	"github.com/eleganza/storefront/api/weberr"
	"github.com/eleganza/storefront/core/claims"
	"github.com/eleganza/storefront/core/user"
	"github.com/eleganza/storefront/validate"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

const uniqueViolation = "23505"

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func HandleSignup(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var un user.UserNew
		if err := web.Decode(w, r, &un); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding signup: %w", err))
		}

		if err := validate.Check(un); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(un.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		now := time.Now().UTC()
		usr := user.User{
			ID:           validate.GenerateID(),
			Name:         un.Name,
			Email:        un.Email,
			Phone:        un.Phone,
			Role:         claims.RoleUser,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := user.Create(ctx, db, usr); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
				return weberr.NewError(err, "email is already registered", http.StatusConflict)
			}
			return err
		}

		return web.Respond(ctx, w, usr, http.StatusCreated)
	}
}

func HandleLogin(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var creds credentials
		if err := web.Decode(w, r, &creds); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding login: %w", err))
		}

		if err := validate.Check(creds); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		usr, err := user.FetchByEmail(ctx, db, creds.Email)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return weberr.NotAuthorized(errors.New("invalid email or password"))
			}
			return err
		}

		if err := bcrypt.CompareHashAndPassword(usr.PasswordHash, []byte(creds.Password)); err != nil {
			return weberr.NotAuthorized(errors.New("invalid email or password"))
		}

		// A fresh token on login prevents session fixation.
		if err := session.RenewToken(ctx); err != nil {
			return fmt.Errorf("renewing session token: %w", err)
		}

		session.Put(ctx, userIDKey, usr.ID)
		session.Put(ctx, roleKey, usr.Role)

		return web.Respond(ctx, w, usr, http.StatusOK)
	}
}

func HandleLogout(session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := session.Destroy(ctx); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
