package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/eleganza/storefront/api/web"
	"github.com/eleganza/storefront/api/weberr"
	"github.com/eleganza/storefront/core/cart"
	"github.com/eleganza/storefront/core/claims"
	"github.com/eleganza/storefront/core/product"
	"github.com/eleganza/storefront/database"
	"github.com/eleganza/storefront/validate"
	"github.com/jmoiron/sqlx"
)

// HandleCreate builds an order from the request line items. The order, its
// items, the initial history entry and the cart flush commit as one unit:
// either the whole checkout lands or none of it does.
func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var on OrderNew
		if err := web.Decode(w, r, &on); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding order: %w", err))
		}

		if err := validate.Check(on); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		// A product may appear at most once per order; repeated entries in
		// the request collapse into one line with the summed quantity.
		quantities := make(map[string]int, len(on.Items))
		ids := make([]string, 0, len(on.Items))
		for _, it := range on.Items {
			if _, ok := quantities[it.ProductID]; !ok {
				ids = append(ids, it.ProductID)
			}
			quantities[it.ProductID] += it.Quantity
		}

		for _, id := range ids {
			if _, err := product.Fetch(ctx, db, id); err != nil {
				if errors.Is(err, product.ErrNotFound) {
					return weberr.NotFound(fmt.Errorf("product[%s]: %w", id, err))
				}
				return err
			}
		}

		ord := Order{
			ID:              validate.GenerateID(),
			UserID:          clm.UserID,
			DeliveryAddress: on.DeliveryAddress,
			DeliveryLink:    on.DeliveryLink,
			TotalAmount:     on.TotalAmount,
			Status:          Pending,
			CreatedAt:       time.Now().UTC(),
		}
		if ord.DeliveryLink == "" {
			ord.DeliveryLink = NoDeliveryLink
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if err := Create(ctx, tx, ord); err != nil {
				return fmt.Errorf("creating order: %w", err)
			}

			for _, id := range ids {
				it := Item{
					OrderID:   ord.ID,
					ProductID: id,
					Quantity:  quantities[id],
				}
				if err := CreateItem(ctx, tx, it); err != nil {
					return fmt.Errorf("creating item: %w", err)
				}
			}

			userID := clm.UserID
			if err := AppendHistory(ctx, tx, ord.ID, Pending, "Order created", &userID); err != nil {
				return err
			}

			if err := cart.Delete(ctx, tx, clm.UserID); err != nil {
				return fmt.Errorf("flushing cart: %w", err)
			}

			return nil
		})
		if err != nil {
			return fmt.Errorf("creating order for user[%s]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, ord, http.StatusCreated)
	}
}

func HandleListMine(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		ords, err := ListForUser(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, ords, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		ord, err := fetchOwned(ctx, db, id, clm)
		if err != nil {
			return err
		}

		items, err := FetchItems(ctx, db, ord.ID)
		if err != nil {
			return err
		}

		resp := struct {
			Order
			Items []Item `json:"items"`
		}{ord, items}

		return web.Respond(ctx, w, resp, http.StatusOK)
	}
}

func HandleListAll(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		sums, err := ListAll(ctx, db)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, sums, http.StatusOK)
	}
}

// HandleUpdateStatus is the admin transition surface. The new value only has
// to be a member of the status enum; the status write and its history entry
// commit together.
func HandleUpdateStatus(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		var up StatusUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding status update: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		status := Status(up.Status)
		if !status.Valid() {
			err := fmt.Errorf("unknown order status %q", up.Status)
			return weberr.Unprocessable(err, err.Error())
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if err := UpdateStatus(ctx, tx, id, status); err != nil {
				return err
			}

			adminID := clm.UserID
			return AppendHistory(ctx, tx, id, status, up.Note, &adminID)
		})
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("updating status of order[%s]: %w", id, err)
		}

		ord, err := Fetch(ctx, db, id)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}

func HandleShowHistory(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		ord, err := fetchOwned(ctx, db, id, clm)
		if err != nil {
			return err
		}

		entries, err := ListHistory(ctx, db, ord.ID)
		if err != nil {
			return err
		}

		tl := Timeline{
			OrderID:       ord.ID,
			CurrentStatus: ord.Status,
			History:       entries,
		}

		return web.Respond(ctx, w, tl, http.StatusOK)
	}
}

func HandleSalesSummary(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		sum, err := FetchSalesSummary(ctx, db)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, sum, http.StatusOK)
	}
}

// fetchOwned resolves an order for the requesting principal. Orders owned by
// someone else answer NotFound rather than Forbidden, so existence does not
// leak; admins may read any order.
func fetchOwned(ctx context.Context, db sqlx.ExtContext, orderID string, clm claims.Claims) (Order, error) {
	ord, err := Fetch(ctx, db, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Order{}, weberr.NotFound(err)
		}
		return Order{}, err
	}

	if ord.UserID != clm.UserID && clm.Role != claims.RoleAdmin {
		return Order{}, weberr.NotFound(ErrNotFound)
	}

	return ord, nil
}
