package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/eleganza/storefront/api/web"
)

// RequestIDHeader carries a caller-chosen request id; absent one, ids are
// minted as a per-process random prefix plus a counter.
const RequestIDHeader = "X-Request-Id"

// requestIDLengthLimit caps inbound ids so a hostile header cannot bloat
// every log line.
const requestIDLengthLimit = 128

type reqIDKeyCtx int

const reqIDKey reqIDKeyCtx = 1

var reqCounter int64

var reqPrefix string

func init() {
	var buf [5]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(err)
	}
	reqPrefix = hex.EncodeToString(buf[:])
}

func RequestID() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = fmt.Sprintf("%s-%d", reqPrefix, atomic.AddInt64(&reqCounter, 1))
			} else if len(id) > requestIDLengthLimit {
				id = id[:requestIDLengthLimit]
			}

			return handler(context.WithValue(ctx, reqIDKey, id), w, r)
		}
		return h
	}
	return m
}

// ContextRequestID returns the request id stored in ctx, or "".
func ContextRequestID(ctx context.Context) string {
	id, _ := ctx.Value(reqIDKey).(string)
	return id
}
