package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/indieinfra/hydrogen/shopify"
)

type platformFile struct {
	kind     string
	resource string
	url      string
}

// fakePlatform answers the admin GraphQL operations hydrogen issues and accepts staged
// multipart transfers on /staged.
type fakePlatform struct {
	srv *httptest.Server

	mu        sync.Mutex
	nextID    int
	files     map[string]*platformFile
	transfers []string
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()

	p := &fakePlatform{files: make(map[string]*platformFile)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/api/{version}/graphql.json", p.graphql)
	mux.HandleFunc("POST /staged", p.staged)

	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)

	return p
}

func (p *fakePlatform) URL() string { return p.srv.URL }

// publish marks the file behind id as processed so lookups start returning its URL.
func (p *fakePlatform) publish(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if f, ok := p.files[id]; ok {
		f.url = fmt.Sprintf("https://cdn.example.com/files/%s", f.resource)
	}
}

func (p *fakePlatform) transferred() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.transfers...)
}

func (p *fakePlatform) staged(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.FormValue("key") == "" {
		http.Error(w, "missing key", http.StatusBadRequest)
		return
	}
	_, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.transfers = append(p.transfers, header.Filename)
	p.mu.Unlock()

	w.WriteHeader(http.StatusCreated)
}

func (p *fakePlatform) graphql(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var data any
	switch shopify.OperationName(req.Query) {
	case "stagedUploadsCreate":
		data = p.stage(req.Variables)
	case "fileCreate":
		data = p.create(req.Variables)
	case "fileLookup":
		data = p.lookup(req.Variables)
	default:
		http.Error(w, "unknown operation", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func firstInput(variables map[string]any, key string) map[string]any {
	list, _ := variables[key].([]any)
	if len(list) == 0 {
		return map[string]any{}
	}
	in, _ := list[0].(map[string]any)
	return in
}

func (p *fakePlatform) stage(variables map[string]any) any {
	in := firstInput(variables, "input")
	filename, _ := in["filename"].(string)
	key := "tmp/" + filename

	return map[string]any{
		"stagedUploadsCreate": map[string]any{
			"stagedTargets": []any{map[string]any{
				"url":         p.srv.URL + "/staged",
				"resourceUrl": p.srv.URL + "/" + key,
				"parameters": []any{
					map[string]any{"name": "key", "value": key},
					map[string]any{"name": "policy", "value": "signed"},
				},
			}},
			"userErrors": []any{},
		},
	}
}

func (p *fakePlatform) create(variables map[string]any) any {
	in := firstInput(variables, "files")
	source, _ := in["originalSource"].(string)

	kind := "GenericFile"
	if in["contentType"] == "IMAGE" {
		kind = "MediaImage"
	}

	p.mu.Lock()
	p.nextID++
	id := fmt.Sprint(p.nextID)
	p.files[id] = &platformFile{kind: kind, resource: source[strings.LastIndex(source, "/")+1:]}
	p.mu.Unlock()

	return map[string]any{
		"fileCreate": map[string]any{
			"files": []any{map[string]any{
				"id":         fmt.Sprintf("gid://shopify/%s/%s", kind, id),
				"fileStatus": "UPLOADED",
			}},
			"userErrors": []any{},
		},
	}
}

func (p *fakePlatform) lookup(variables map[string]any) any {
	query, _ := variables["query"].(string)
	id := strings.TrimPrefix(query, "id:")

	p.mu.Lock()
	f, ok := p.files[id]
	var file platformFile
	if ok {
		file = *f
	}
	p.mu.Unlock()

	edges := []any{}
	if ok {
		node := map[string]any{
			"__typename": file.kind,
			"id":         fmt.Sprintf("gid://shopify/%s/%s", file.kind, id),
		}
		switch {
		case file.kind == "MediaImage" && file.url != "":
			node["image"] = map[string]any{"url": file.url}
		case file.kind == "MediaImage":
			node["image"] = nil
		case file.url != "":
			node["url"] = file.url
		default:
			node["url"] = nil
		}
		edges = append(edges, map[string]any{"node": node})
	}

	return map[string]any{"files": map[string]any{"edges": edges}}
}
