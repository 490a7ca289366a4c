package util

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type loggerKeyType struct{}

var loggerKey = loggerKeyType{}

// WithRequest derives a request-scoped logger carrying method, path, request id and,
// when known, the name of the token that authenticated the request.
func WithRequest(base zerolog.Logger, r *http.Request, tokenName string) zerolog.Logger {
	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	lc := base.With().
		Str("request_id", requestID).
		Str("method", r.Method).
		Str("path", r.URL.Path)
	if tokenName != "" {
		lc = lc.Str("token", tokenName)
	}

	return lc.Logger()
}

// ContextWithLogger stores the request logger in context for downstream handlers.
func ContextWithLogger(ctx context.Context, rl zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, &rl)
}

// FromContext retrieves a request logger from context when available.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return nil
	}

	if rl, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok {
		return rl
	}

	return nil
}

// LoggerFor returns the request logger, falling back to a logger derived from base.
func LoggerFor(r *http.Request, base zerolog.Logger) zerolog.Logger {
	if rl := FromContext(r.Context()); rl != nil {
		return *rl
	}
	return WithRequest(base, r, "")
}
