package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/eleganza/storefront/api/web"
	"github.com/eleganza/storefront/api/weberr"
	"github.com/eleganza/storefront/core/claims"
	"github.com/eleganza/storefront/core/product"
	"github.com/eleganza/storefront/validate"
	"github.com/jmoiron/sqlx"
)

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		items, err := FetchItems(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		crt := Cart{UserID: clm.UserID, Items: items}
		return web.Respond(ctx, w, crt, http.StatusOK)
	}
}

func HandleCreateItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding cart item: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		if _, err := product.Fetch(ctx, db, in.ProductID); err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if err := UpsertItem(ctx, db, clm.UserID, in); err != nil {
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleUpdateItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		productID := web.Param(r, "product_id")
		if err := validate.CheckID(productID); err != nil {
			return weberr.NotFound(err)
		}

		var up ItemUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding cart item update: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		ok, err := SetItemQuantity(ctx, db, clm.UserID, productID, up.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return weberr.NotFound(errors.New("item not in cart"))
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleDeleteItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		productID := web.Param(r, "product_id")
		if err := validate.CheckID(productID); err != nil {
			return weberr.NotFound(err)
		}

		ok, err := DeleteItem(ctx, db, clm.UserID, productID)
		if err != nil {
			return err
		}
		if !ok {
			return weberr.NotFound(errors.New("item not in cart"))
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		if err := Delete(ctx, db, clm.UserID); err != nil {
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
