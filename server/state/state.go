package state

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/indieinfra/hydrogen/config"
	"github.com/indieinfra/hydrogen/reconcile"
	"github.com/indieinfra/hydrogen/storage/media"
	"github.com/indieinfra/hydrogen/upload"
)

// RemoteStorage is the write side of the remote storage adapter.
type RemoteStorage interface {
	Write(ctx context.Context, path string, content io.Reader) (upload.Handle, error)
	MimeType(path string) string
}

type Reconciler interface {
	Run(ctx context.Context) (reconcile.Report, error)
}

type HydrogenState struct {
	Cfg        *config.Config
	Logger     zerolog.Logger
	MediaStore media.Store
	Remote     RemoteStorage
	Job        Reconciler
}
