package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/indieinfra/hydrogen/server/auth"
	"github.com/indieinfra/hydrogen/server/resp"
	"github.com/indieinfra/hydrogen/server/util"
)

type Options struct {
	// AllowQueryToken accepts ?access_token= for clients that cannot set headers,
	// such as browser websockets.
	AllowQueryToken bool
}

// function RequireScope wraps a downstream handler. At execution time, it extracts a
// Bearer token from the Authorization header (or, when allowed, the access_token query
// parameter), verifies it against the configured tokens and checks that it carries
// scope. The request logger and token details travel to next in the request context.
func RequireScope(verifier *auth.Verifier, logger zerolog.Logger, scope auth.Scope, opts Options, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractBearerToken(r.Header.Get("Authorization"))
		if token == "" && opts.AllowQueryToken {
			token = strings.TrimSpace(r.URL.Query().Get("access_token"))
		}

		if token == "" {
			resp.WriteUnauthorized(w, "An access token is required")
			return
		}

		details, err := verifier.VerifyAccessToken(token)
		if err != nil || details == nil {
			rl := util.WithRequest(logger, r, "")
			rl.Debug().Msg("token validation failed")
			resp.WriteForbidden(w, "Token validation failed")
			return
		}

		rl := util.WithRequest(logger, r, details.Name)
		if !details.HasScope(scope) {
			rl.Debug().Str("scope", scope.String()).Msg("token lacks scope")
			resp.WriteInsufficientScope(w, "Token is missing the "+scope.String()+" scope")
			return
		}

		ctx := util.ContextWithLogger(r.Context(), rl)
		next.ServeHTTP(w, r.WithContext(auth.AddToken(ctx, details)))
	})
}
