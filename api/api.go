package api

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/eleganza/storefront/api/background"
	"github.com/eleganza/storefront/api/middleware"
	"github.com/eleganza/storefront/api/web"
	"github.com/eleganza/storefront/core/auth"
	"github.com/eleganza/storefront/core/cart"
	"github.com/eleganza/storefront/core/order"
	"github.com/eleganza/storefront/core/payment"
	"github.com/eleganza/storefront/core/product"
	"github.com/eleganza/storefront/core/token"
	"github.com/eleganza/storefront/core/user"
	"github.com/eleganza/storefront/rate"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin    string
	Log           logrus.FieldLogger
	DB            *sqlx.DB
	Session       *scs.SessionManager
	Gateway       payment.Gateway
	WebhookSecret string
	Mailer        token.Mailer
	TokenStore    token.Store
	TokenTimeout  time.Duration
	Background    *background.Background
	AuthLimiter   *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.Session)
	admin := auth.Admin(cfg.Session)
	limited := middleware.RateLimit(cfg.AuthLimiter)

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB), limited)
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session), limited)
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))

	a.Handle(http.MethodPost, "/tokens/recover", token.HandleRecover(cfg.DB, cfg.TokenStore, cfg.Mailer, cfg.Background, cfg.TokenTimeout), limited)
	a.Handle(http.MethodPost, "/tokens/reset", token.HandleReset(cfg.DB, cfg.TokenStore), limited)

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)

	a.Handle(http.MethodGet, "/products", product.HandleList(cfg.DB))
	a.Handle(http.MethodGet, "/products/{id}", product.HandleShow(cfg.DB))
	a.Handle(http.MethodPost, "/products", product.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/products/{id}", product.HandleUpdate(cfg.DB), admin)
	a.Handle(http.MethodDelete, "/products/{id}", product.HandleDelete(cfg.DB), admin)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodDelete, "/cart", cart.HandleDelete(cfg.DB), authen)
	a.Handle(http.MethodPut, "/cart/items", cart.HandleCreateItem(cfg.DB), authen)
	a.Handle(http.MethodPut, "/cart/items/{product_id}", cart.HandleUpdateItem(cfg.DB), authen)
	a.Handle(http.MethodDelete, "/cart/items/{product_id}", cart.HandleDeleteItem(cfg.DB), authen)

	a.Handle(http.MethodPost, "/orders", order.HandleCreate(cfg.DB), authen)
	a.Handle(http.MethodGet, "/orders", order.HandleListMine(cfg.DB), authen)
	a.Handle(http.MethodGet, "/orders/all", order.HandleListAll(cfg.DB), admin)
	a.Handle(http.MethodGet, "/orders/{id}", order.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodGet, "/orders/{id}/history", order.HandleShowHistory(cfg.DB), authen)
	a.Handle(http.MethodPut, "/orders/{id}/status", order.HandleUpdateStatus(cfg.DB), admin)

	a.Handle(http.MethodGet, "/admin/sales-summary", order.HandleSalesSummary(cfg.DB), admin)

	a.Handle(http.MethodPost, "/payments/sessions", payment.HandleCreateSession(cfg.DB, cfg.Gateway), authen)
	a.Handle(http.MethodPost, "/payments/confirm", payment.HandleConfirm(cfg.DB))
	a.Handle(http.MethodPost, "/payments/webhook", payment.HandleWebhook(cfg.DB, cfg.WebhookSecret))

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
