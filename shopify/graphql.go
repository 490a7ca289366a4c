package shopify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FieldPath is the `field` member of a userErrors entry. The platform sends a list of
// path segments; older API versions send a plain string or null.
type FieldPath []string

func (f *FieldPath) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = nil
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FieldPath{s}
		return nil
	}

	var parts []string
	if err := json.Unmarshal(b, &parts); err != nil {
		return err
	}
	*f = parts
	return nil
}

func (f FieldPath) String() string {
	return strings.Join(f, ".")
}

type UserError struct {
	Field   FieldPath `json:"field"`
	Message string    `json:"message"`
}

func (e UserError) String() string {
	if len(e.Field) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type GraphQLError struct {
	Message string `json:"message"`
}

// ResponseError is returned when a response carries top-level GraphQL errors.
type ResponseError struct {
	Errors []GraphQLError
}

func (e *ResponseError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		msgs = append(msgs, ge.Message)
	}
	return "graphql errors: " + strings.Join(msgs, "; ")
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// DecodeData unmarshals the `data` member of a GraphQL response body into out.
func DecodeData(body []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("malformed graphql response: %w", err)
	}

	if len(env.Errors) > 0 {
		return &ResponseError{Errors: env.Errors}
	}

	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return fmt.Errorf("graphql response has no data")
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("malformed graphql data: %w", err)
	}

	return nil
}

// LastSegment returns the final slash-delimited segment of a resource path such as
// gid://shopify/MediaImage/42.
func LastSegment(id string) string {
	id = strings.TrimRight(strings.TrimSpace(id), "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}
