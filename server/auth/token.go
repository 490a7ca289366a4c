package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/indieinfra/hydrogen/config"
)

type tokenKeyType struct{}

var tokenKey = tokenKeyType{}

type TokenDetails struct {
	Name   string
	Scopes []string
}

// ExtractBearerToken extracts a Bearer token from an Authorization header value.
// Returns an empty string if the header is not present, malformed, or not a Bearer token.
func ExtractBearerToken(auth string) string {
	if auth == "" {
		return ""
	}

	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

func AddToken(ctx context.Context, details *TokenDetails) context.Context {
	return context.WithValue(ctx, tokenKey, details)
}

func GetToken(ctx context.Context) *TokenDetails {
	token, ok := ctx.Value(tokenKey).(*TokenDetails)
	if !ok {
		return nil
	}

	return token
}

func (details *TokenDetails) String() string {
	return fmt.Sprintf("TokenDetails{name=%v, scopes=%v}", details.Name, strings.Join(details.Scopes, " "))
}

func (details *TokenDetails) HasScope(scope Scope) bool {
	return slices.ContainsFunc(details.Scopes, func(s string) bool {
		return strings.EqualFold(s, scope.String())
	})
}

var ErrEmptyToken = errors.New("received empty token")

// Verifier checks presented tokens against the statically configured set.
type Verifier struct {
	tokens []config.AccessToken
}

func NewVerifier(cfg *config.ServerAuth) *Verifier {
	return &Verifier{tokens: slices.Clone(cfg.Tokens)}
}

// VerifyAccessToken returns the details of the matching token, or nil when no token
// matches. Every configured token is compared in constant time.
func (v *Verifier) VerifyAccessToken(token string) (*TokenDetails, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	var match *config.AccessToken
	for i := range v.tokens {
		if subtle.ConstantTimeCompare([]byte(v.tokens[i].Token), []byte(token)) == 1 && match == nil {
			match = &v.tokens[i]
		}
	}

	if match == nil {
		return nil, nil
	}

	return &TokenDetails{Name: match.Name, Scopes: slices.Clone(match.Scopes)}, nil
}
