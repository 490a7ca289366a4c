package auth

import (
	"net/http"
)

type Scope int

const (
	ScopeRead Scope = iota
	ScopeMedia
	ScopeSync
)

var scopeName = map[Scope]string{
	ScopeRead:  "read",
	ScopeMedia: "media",
	ScopeSync:  "sync",
}

func (scope Scope) String() string {
	return scopeName[scope]
}

func RequestHasScope(r *http.Request, scope Scope) bool {
	token := GetToken(r.Context())
	if token == nil {
		return false
	}

	return token.HasScope(scope)
}
