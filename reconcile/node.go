package reconcile

import (
	"encoding/json"
)

type NodeKind string

const (
	KindGenericFile NodeKind = "GenericFile"
	KindMediaImage  NodeKind = "MediaImage"
	KindUnknown     NodeKind = "unknown"
)

// FileNode is one file returned by the lookup query. Only GenericFile and MediaImage
// carry a URL; any other type decodes as KindUnknown with an empty URL.
type FileNode struct {
	Kind     NodeKind
	Typename string
	ID       string
	URL      string
}

func (n *FileNode) UnmarshalJSON(data []byte) error {
	var raw struct {
		Typename string  `json:"__typename"`
		ID       string  `json:"id"`
		URL      *string `json:"url"`
		Image    *struct {
			URL *string `json:"url"`
		} `json:"image"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*n = FileNode{Typename: raw.Typename, ID: raw.ID, Kind: KindUnknown}

	kind := NodeKind(raw.Typename)
	if raw.Typename == "" {
		switch {
		case raw.Image != nil:
			kind = KindMediaImage
		case raw.URL != nil:
			kind = KindGenericFile
		}
	}

	switch kind {
	case KindMediaImage:
		n.Kind = KindMediaImage
		if raw.Image != nil && raw.Image.URL != nil {
			n.URL = *raw.Image.URL
		}
	case KindGenericFile:
		n.Kind = KindGenericFile
		if raw.URL != nil {
			n.URL = *raw.URL
		}
	}

	return nil
}

// Resolved reports whether the node carries a usable URL.
func (n *FileNode) Resolved() bool {
	return n != nil && n.URL != ""
}
