package util

import (
	"fmt"
	"mime"
	"net/http"
	"slices"

	"github.com/indieinfra/hydrogen/server/resp"
)

func RequireValidMediaContentType(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	return requireValidContentType(w, r, []string{"multipart/form-data"})
}

func ExtractMediaType(w http.ResponseWriter, r *http.Request) (string, bool) {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		resp.WriteUnsupportedMediaType(w, "Content-Type must be specified")
		return "", false
	}

	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		resp.WriteUnsupportedMediaType(w, fmt.Errorf("Invalid Content-Type: %w", err).Error())
		return "", false
	}

	return mediaType, true
}

func requireValidContentType(w http.ResponseWriter, r *http.Request, valid []string) (string, string, bool) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return r.Method, "", true
	}

	mediaType, ok := ExtractMediaType(w, r)
	if !ok {
		return r.Method, "", false
	}

	if !slices.Contains(valid, mediaType) {
		resp.WriteUnsupportedMediaType(w, fmt.Sprintf("only %v allowed", valid))
		return r.Method, mediaType, false
	}

	return r.Method, mediaType, true
}
