package media

import (
	"context"
	"errors"
)

// ErrNotFound indicates that a media record was not found.
var ErrNotFound = errors.New("media record not found")

// Record is the local mirror of one media asset stored on the remote platform.
type Record struct {
	ID          int64   `json:"id"`
	Filename    string  `json:"filename"`
	ContentType string  `json:"content_type"`
	ExternalID  *string `json:"external_id"`
	ExternalURL *string `json:"external_url"`
}

// IsPending reports whether the record has been registered remotely but its public URL is unknown.
func (r *Record) IsPending() bool {
	return r.ExternalID != nil && r.ExternalURL == nil
}

func (r *Record) Clone() *Record {
	c := *r
	if r.ExternalID != nil {
		id := *r.ExternalID
		c.ExternalID = &id
	}
	if r.ExternalURL != nil {
		url := *r.ExternalURL
		c.ExternalURL = &url
	}
	return &c
}

type Store interface {
	// function Create persists a new record and assigns its ID.
	Create(ctx context.Context, rec *Record) error

	// function Get returns the record with the given ID, or ErrNotFound.
	Get(ctx context.Context, id int64) (*Record, error)

	// function Pending returns every record whose external URL is null and whose external ID is not null.
	// The slice is never nil, but may be empty.
	Pending(ctx context.Context) ([]*Record, error)

	// function Save writes all mutable fields of an existing record.
	Save(ctx context.Context, rec *Record) error

	Close() error
}

func StringPtr(s string) *string {
	return &s
}
