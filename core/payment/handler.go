package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eleganza/storefront/api/web"
	"github.com/eleganza/storefront/api/weberr"
	"github.com/eleganza/storefront/core/claims"
	"github.com/eleganza/storefront/core/order"
	"github.com/eleganza/storefront/core/user"
	"github.com/eleganza/storefront/random"
	"github.com/eleganza/storefront/validate"
	"github.com/jmoiron/sqlx"
)

// HandleCreateSession opens a checkout session with the provider. The
// correlation token is minted locally before the call, so a provider failure
// leaves no payment row behind: persistence happens only after the provider
// accepted the session.
func HandleCreateSession(db *sqlx.DB, gw Gateway) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var sn SessionNew
		if err := web.Decode(w, r, &sn); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding payment session: %w", err))
		}

		if err := validate.Check(sn); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}
		if sn.Currency == "" {
			sn.Currency = "INR"
		}

		ord, err := order.Fetch(ctx, db, sn.OrderID)
		if err != nil {
			if errors.Is(err, order.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}
		if ord.UserID != clm.UserID {
			return weberr.NotFound(order.ErrNotFound)
		}

		usr, err := user.Fetch(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("fetching customer: %w", err)
		}

		token, err := random.StringSecure(24)
		if err != nil {
			return fmt.Errorf("generating provider order id: %w", err)
		}

		sess, err := gw.CreateSession(ctx, SessionRequest{
			OrderID:       token,
			Amount:        sn.Amount,
			Currency:      sn.Currency,
			CustomerID:    usr.ID,
			CustomerEmail: usr.Email,
			CustomerPhone: usr.Phone,
		})
		if err != nil {
			var ge *GatewayError
			if errors.As(err, &ge) {
				return weberr.Unavailable(err)
			}
			return err
		}

		pay := Payment{
			ID:                validate.GenerateID(),
			OrderID:           ord.ID,
			Provider:          providerName,
			ProviderPaymentID: sess.ProviderOrderID,
			Amount:            sn.Amount,
			Currency:          sn.Currency,
			Status:            StatusPending,
			CreatedAt:         time.Now().UTC(),
		}

		if err := Create(ctx, db, pay); err != nil {
			return fmt.Errorf("recording payment for order[%s]: %w", ord.ID, err)
		}

		resp := struct {
			PaymentID         string `json:"paymentId"`
			ProviderPaymentID string `json:"providerPaymentId"`
			SessionID         string `json:"sessionId"`
		}{pay.ID, pay.ProviderPaymentID, sess.SessionID}

		return web.Respond(ctx, w, resp, http.StatusCreated)
	}
}

// HandleConfirm is the client-reported outcome channel. The caller's verdict
// is unverified and therefore advisory: it moves our status strings but must
// never gate anything security-sensitive.
func HandleConfirm(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var cf Confirm
		if err := web.Decode(w, r, &cf); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding payment confirmation: %w", err))
		}

		if err := validate.Check(cf); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		success := strings.EqualFold(cf.Status, "success")
		note := "Payment failed"
		if success {
			note = "Payment successful"
		}

		out, err := ApplyOutcome(ctx, db, cf.ProviderPaymentID, success, note)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("confirming payment[%s]: %w", cf.ProviderPaymentID, err)
		}

		return web.Respond(ctx, w, out, http.StatusOK)
	}
}

type webhookEvent struct {
	OrderID     string `json:"order_id"`
	OrderStatus string `json:"order_status"`
}

// HandleWebhook is the provider-pushed outcome channel. The raw body is
// authenticated with an HMAC before anything is parsed; a verified event for
// an unknown payment is acknowledged as a no-op, since at-least-once
// delivery redelivers events we may never have created a session for.
func HandleWebhook(db *sqlx.DB, secret string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1048576))
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("reading webhook body: %w", err))
		}

		sig := r.Header.Get(SignatureHeader)
		if !VerifySignature(secret, body, sig) {
			// No detail in the response: signature internals stay private.
			return weberr.BadRequest(errors.New("webhook signature verification failed"))
		}

		var evt webhookEvent
		if err := json.Unmarshal(body, &evt); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding webhook event: %w", err))
		}
		if evt.OrderID == "" {
			return weberr.BadRequest(errors.New("webhook event missing order_id"))
		}

		success := strings.EqualFold(evt.OrderStatus, "paid") || strings.EqualFold(evt.OrderStatus, "success")
		note := "Payment failed via Cashfree webhook"
		if success {
			note = "Confirmed via Cashfree webhook"
		}

		if _, err := ApplyOutcome(ctx, db, evt.OrderID, success, note); err != nil {
			if errors.Is(err, ErrNotFound) {
				return web.Respond(ctx, w, nil, http.StatusNoContent)
			}
			return fmt.Errorf("applying webhook outcome[%s]: %w", evt.OrderID, err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
