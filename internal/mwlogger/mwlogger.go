// Package mwlogger attaches a request-scoped zerolog logger, keyed by
// request id, to every request the dev server handles.
package mwlogger

import (
	"context"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/helpers"
	"github.com/wb-go/wbf/zlog"
)

type requestLoggerKey struct{}
type requestIDKey struct{}

// New wraps the engine so every request carries a request id (reusing
// the caller's X-Request-Id - the imageman client always sends one) and
// a logger tagged with it in the request context.
func New(next *ginext.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = helpers.CreateUUID()
		}

		logger := zlog.Logger.With().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		ctx := context.WithValue(r.Context(), requestLoggerKey{}, logger)
		ctx = context.WithValue(ctx, requestIDKey{}, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext extracts the request logger, falling back to the global one.
func FromContext(ctx context.Context) zlog.Zerolog {
	if l, ok := ctx.Value(requestLoggerKey{}).(zlog.Zerolog); ok {
		return l
	}
	return zlog.Logger
}

// RequestID returns the id assigned by New for the current request.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
