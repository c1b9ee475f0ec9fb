package product

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/eleganza/storefront/api/web"
	"github.com/eleganza/storefront/api/weberr"
	"github.com/eleganza/storefront/validate"
	"github.com/jmoiron/sqlx"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ps, err := List(ctx, db)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, ps, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		p, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var pn ProductNew
		if err := web.Decode(w, r, &pn); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding product: %w", err))
		}

		if err := validate.Check(pn); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		now := time.Now().UTC()
		p := Product{
			ID:          validate.GenerateID(),
			Name:        pn.Name,
			Price:       pn.Price,
			Description: pn.Description,
			PhotoLink:   pn.PhotoLink,
			InStock:     true,
			Category:    pn.Category,
			Color:       pn.Color,
			Size:        pn.Size,
			Material:    pn.Material,
			Pattern:     pn.Pattern,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if pn.InStock != nil {
			p.InStock = *pn.InStock
		}

		if err := Create(ctx, db, p); err != nil {
			return err
		}

		return web.Respond(ctx, w, p, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		var up ProductUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding product update: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		p, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		p = Merge(p, up, time.Now().UTC())

		if err := Update(ctx, db, p); err != nil {
			return err
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		if err := Delete(ctx, db, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
