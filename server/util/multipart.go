package util

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/indieinfra/hydrogen/server/resp"
)

// multipartOverhead is the allowance for boundaries, headers and form values on top of
// the file itself.
const multipartOverhead = 1 << 20

type MultipartValues map[string]any

type MultipartFile struct {
	Field  string
	File   multipart.File
	Header *multipart.FileHeader
}

// Filename returns the client supplied filename without any directory part.
func (mf *MultipartFile) Filename() string {
	name := strings.ReplaceAll(mf.Header.Filename, `\`, "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// ParseSingleFile parses a multipart body that must carry exactly one file in one of
// fields (a trailing "[]" on the field name is accepted). It writes the error response
// itself and returns ok=false when the request is unusable.
func ParseSingleFile(w http.ResponseWriter, r *http.Request, maxMemory, maxFileSize int64, fields []string) (MultipartValues, *MultipartFile, bool) {
	if maxFileSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxFileSize+multipartOverhead)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			resp.WriteTooLarge(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return nil, nil, false
		}
		resp.WriteInvalidRequest(w, fmt.Sprintf("invalid multipart body: %v", err))
		return nil, nil, false
	}

	values := extractValues(r)

	var matched []MultipartFile
	for key, fhs := range r.MultipartForm.File {
		if !slices.Contains(fields, strings.TrimSuffix(key, "[]")) {
			continue
		}
		for _, fh := range fhs {
			matched = append(matched, MultipartFile{Field: strings.TrimSuffix(key, "[]"), Header: fh})
		}
	}

	switch {
	case len(matched) == 0:
		resp.WriteInvalidRequest(w, fmt.Sprintf("a file is required in field %q", fields[0]))
		return nil, nil, false
	case len(matched) > 1:
		resp.WriteInvalidRequest(w, "only one file may be uploaded per request")
		return nil, nil, false
	}

	mf := matched[0]
	if mf.Filename() == "" {
		resp.WriteInvalidRequest(w, "the uploaded file must have a filename")
		return nil, nil, false
	}
	if maxFileSize > 0 && mf.Header.Size > maxFileSize {
		resp.WriteTooLarge(w, fmt.Sprintf("file exceeds %d bytes", maxFileSize))
		return nil, nil, false
	}

	f, err := mf.Header.Open()
	if err != nil {
		resp.WriteInternalServerError(w, "could not open uploaded file")
		return nil, nil, false
	}
	mf.File = f

	return values, &mf, true
}

func extractValues(r *http.Request) MultipartValues {
	values := make(MultipartValues)

	if r.MultipartForm != nil {
		for key, arr := range r.MultipartForm.Value {
			switch len(arr) {
			case 0:
				continue
			case 1:
				values[key] = arr[0]
			default:
				asAny := make([]any, len(arr))
				for i, v := range arr {
					asAny[i] = v
				}
				values[key] = asAny
			}
		}
	}

	return values
}
