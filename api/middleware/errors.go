package middleware

import (
	"context"
	"net/http"

	"github.com/eleganza/storefront/api/web"
	"github.com/eleganza/storefront/api/weberr"
	"github.com/sirupsen/logrus"
)

// Errors is the single place failed requests are logged and answered. An
// error without a response decoration is a bug or an outage and turns into
// an opaque 500.
func Errors(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			fields := logrus.Fields{
				"req_id":  ContextRequestID(ctx),
				"message": err,
			}
			if extra, ok := weberr.Fields(err); ok {
				for k, v := range extra {
					fields[k] = v
				}
			}

			log.WithFields(fields).Error("ERROR")

			if body, status, ok := weberr.Response(err); ok {
				return web.Respond(ctx, w, body, status)
			}

			er := weberr.ErrorResponse{
				Error: http.StatusText(http.StatusInternalServerError),
			}
			return web.Respond(ctx, w, er, http.StatusInternalServerError)
		}
		return h
	}
	return m
}
