package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/indieinfra/hydrogen/config"
	"github.com/indieinfra/hydrogen/server/auth"
	"github.com/indieinfra/hydrogen/server/util"
)

func testVerifier() *auth.Verifier {
	return auth.NewVerifier(&config.ServerAuth{Tokens: []config.AccessToken{
		{Name: "uploader", Token: "uploader-token-0001", Scopes: []string{"media"}},
		{Name: "reader", Token: "reader-token-000002", Scopes: []string{"read"}},
	}})
}

func TestRequireScope_MissingToken(t *testing.T) {
	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/media/1", nil)

	RequireScope(testVerifier(), zerolog.Nop(), auth.ScopeRead, Options{}, next).ServeHTTP(rr, req)

	if nextCalled {
		t.Fatalf("next handler should not be called when token missing")
	}
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRequireScope_InvalidToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/media/1", nil)
	req.Header.Set("Authorization", "Bearer bad")

	RequireScope(testVerifier(), zerolog.Nop(), auth.ScopeRead, Options{}, next).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestRequireScope_InsufficientScope(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next should not run")
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/media", nil)
	req.Header.Set("Authorization", "Bearer reader-token-000002")

	RequireScope(testVerifier(), zerolog.Nop(), auth.ScopeMedia, Options{}, next).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestRequireScope_PassesTokenAndLogger(t *testing.T) {
	var seen *auth.TokenDetails
	var haveLogger bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.GetToken(r.Context())
		haveLogger = util.FromContext(r.Context()) != nil
		w.WriteHeader(http.StatusCreated)
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/media", nil)
	req.Header.Set("Authorization", "Bearer uploader-token-0001")

	RequireScope(testVerifier(), zerolog.Nop(), auth.ScopeMedia, Options{}, next).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if seen == nil || seen.Name != "uploader" {
		t.Fatalf("expected token details in context, got %+v", seen)
	}
	if !haveLogger {
		t.Fatalf("expected request logger in context")
	}
}

func TestRequireScope_QueryToken(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/events?access_token=reader-token-000002", nil)

	rr := httptest.NewRecorder()
	RequireScope(testVerifier(), zerolog.Nop(), auth.ScopeRead, Options{}, next).ServeHTTP(rr, req)
	if called || rr.Code != http.StatusUnauthorized {
		t.Fatalf("query token must be ignored unless allowed, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	RequireScope(testVerifier(), zerolog.Nop(), auth.ScopeRead, Options{AllowQueryToken: true}, next).ServeHTTP(rr, req)
	if !called {
		t.Fatalf("expected query token to be accepted, got %d", rr.Code)
	}
}
