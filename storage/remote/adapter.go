// Package remote exposes the upload client through a storage-driver shaped surface.
// Only writes are supported; every other operation reports ErrNotImplemented.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/indieinfra/hydrogen/upload"
)

var ErrNotImplemented = errors.New("not implemented")

// Uploader is satisfied by *upload.Client.
type Uploader interface {
	Upload(ctx context.Context, filename string, content io.Reader) (upload.Handle, error)
}

type Adapter struct {
	uploader Uploader
	logger   zerolog.Logger
}

func NewAdapter(uploader Uploader, logger zerolog.Logger) *Adapter {
	return &Adapter{
		uploader: uploader,
		logger:   logger.With().Str("component", "remote").Logger(),
	}
}

// Write uploads content under the final segment of p and returns the remote handle.
func (a *Adapter) Write(ctx context.Context, p string, content io.Reader) (upload.Handle, error) {
	name := Filename(p)
	if name == "" {
		return "", fmt.Errorf("write %q: empty filename", p)
	}

	a.logger.Debug().Str("path", p).Str("filename", name).Msg("write")

	handle, err := a.uploader.Upload(ctx, name, content)
	if err != nil {
		return "", fmt.Errorf("write %q: %w", p, err)
	}
	return handle, nil
}

func (a *Adapter) MimeType(p string) string {
	return upload.DetectContentType(Filename(p))
}

// Filename returns the last non-empty segment of a slash separated path.
func Filename(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}

func (a *Adapter) unsupported(op, p string) error {
	a.logger.Debug().Str("op", op).Str("path", p).Msg("unsupported storage operation")
	return fmt.Errorf("%s %q: %w", op, p, ErrNotImplemented)
}

func (a *Adapter) Read(_ context.Context, p string) ([]byte, error) {
	return nil, a.unsupported("read", p)
}

func (a *Adapter) ReadStream(_ context.Context, p string) (io.ReadCloser, error) {
	return nil, a.unsupported("read stream", p)
}

func (a *Adapter) Has(_ context.Context, p string) (bool, error) {
	return false, a.unsupported("has", p)
}

func (a *Adapter) List(_ context.Context, dir string, _ bool) ([]string, error) {
	return nil, a.unsupported("list", dir)
}

func (a *Adapter) Delete(_ context.Context, p string) error {
	return a.unsupported("delete", p)
}

func (a *Adapter) DeleteDir(_ context.Context, dir string) error {
	return a.unsupported("delete dir", dir)
}

func (a *Adapter) CreateDir(_ context.Context, dir string) error {
	return a.unsupported("create dir", dir)
}

func (a *Adapter) Rename(_ context.Context, from, _ string) error {
	return a.unsupported("rename", from)
}

func (a *Adapter) Copy(_ context.Context, from, _ string) error {
	return a.unsupported("copy", from)
}

func (a *Adapter) Update(_ context.Context, p string, _ io.Reader) error {
	return a.unsupported("update", p)
}

type Metadata struct {
	Path        string
	ContentType string
	Size        int64
	Modified    time.Time
}

func (a *Adapter) Metadata(_ context.Context, p string) (*Metadata, error) {
	return nil, a.unsupported("metadata", p)
}

func (a *Adapter) Size(_ context.Context, p string) (int64, error) {
	return 0, a.unsupported("size", p)
}

func (a *Adapter) Timestamp(_ context.Context, p string) (time.Time, error) {
	return time.Time{}, a.unsupported("timestamp", p)
}
