package auth

import (
	"context"
	"testing"

	"github.com/indieinfra/hydrogen/config"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		value  string
		expect string
	}{
		{name: "empty", value: "", expect: ""},
		{name: "no scheme", value: "token", expect: ""},
		{name: "wrong scheme", value: "Basic abc", expect: ""},
		{name: "valid", value: "Bearer abc123", expect: "abc123"},
		{name: "case insensitive", value: "bearer token", expect: "token"},
		{name: "trailing space", value: "Bearer token ", expect: "token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractBearerToken(tc.value); got != tc.expect {
				t.Fatalf("ExtractBearerToken(%q) = %q, want %q", tc.value, got, tc.expect)
			}
		})
	}
}

func TestTokenDetailsString(t *testing.T) {
	details := &TokenDetails{Name: "ci", Scopes: []string{"read", "sync"}}
	got := details.String()
	want := "TokenDetails{name=ci, scopes=read sync}"

	if got != want {
		t.Fatalf("unexpected String(): %q", got)
	}
}

func TestVerifyAccessToken(t *testing.T) {
	v := NewVerifier(&config.ServerAuth{Tokens: []config.AccessToken{
		{Name: "uploader", Token: "uploader-token-0001", Scopes: []string{"media"}},
		{Name: "ops", Token: "ops-token-000000002", Scopes: []string{"read", "sync"}},
	}})

	details, err := v.VerifyAccessToken("ops-token-000000002")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details == nil || details.Name != "ops" {
		t.Fatalf("expected ops token, got %+v", details)
	}
	if !details.HasScope(ScopeSync) || details.HasScope(ScopeMedia) {
		t.Fatalf("unexpected scopes %v", details.Scopes)
	}

	details, err = v.VerifyAccessToken("ops-token-00000000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details != nil {
		t.Fatalf("expected nil details for unknown token")
	}
}

func TestVerifyAccessToken_ReturnsErrorOnEmptyToken(t *testing.T) {
	v := NewVerifier(&config.ServerAuth{})

	details, err := v.VerifyAccessToken("")
	if err != ErrEmptyToken {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
	if details != nil {
		t.Fatalf("expected nil details for empty token")
	}
}

func TestAddAndGetToken(t *testing.T) {
	token := &TokenDetails{Scopes: []string{"read"}}
	ctx := AddToken(context.Background(), token)

	if got := GetToken(ctx); got != token {
		t.Fatalf("expected token to round-trip via context")
	}
	if GetToken(context.Background()) != nil {
		t.Fatalf("expected nil token for empty context")
	}
}

func TestTokenDetailsHasScope(t *testing.T) {
	details := TokenDetails{Scopes: []string{"READ", "media"}}

	if !details.HasScope(ScopeRead) {
		t.Fatalf("expected HasScope to match case-insensitively")
	}

	if details.HasScope(ScopeSync) {
		t.Fatalf("did not expect HasScope to match missing scope")
	}
}
