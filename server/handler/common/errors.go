package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/indieinfra/hydrogen/server/resp"
	"github.com/indieinfra/hydrogen/server/util"
	"github.com/indieinfra/hydrogen/storage/media"
	"github.com/indieinfra/hydrogen/storage/remote"
	"github.com/indieinfra/hydrogen/upload"
)

// LogAndWriteError logs an error with request context and maps known conditions to client responses.
func LogAndWriteError(w http.ResponseWriter, r *http.Request, op string, err error) {
	rl := util.LoggerFor(r, zerolog.Nop())
	rl.Error().Err(err).Str("op", op).Msg("request failed")

	var (
		stagingErr      *upload.StagingError
		transferErr     *upload.TransferError
		registrationErr *upload.RegistrationError
	)

	switch {
	case errors.Is(err, media.ErrNotFound):
		resp.WriteNotFound(w, "not found")
	case errors.Is(err, remote.ErrNotImplemented):
		resp.WriteInvalidRequest(w, fmt.Sprintf("%s is not supported", op))
	case errors.Is(err, context.DeadlineExceeded):
		resp.WriteGatewayTimeout(w, fmt.Sprintf("%s timed out", op))
	case errors.As(err, &stagingErr):
		resp.WriteBadGateway(w, "the remote platform refused the staged upload")
	case errors.As(err, &transferErr):
		resp.WriteBadGateway(w, "the file could not be transferred to remote storage")
	case errors.As(err, &registrationErr):
		resp.WriteBadGateway(w, "the remote platform refused to register the file")
	default:
		resp.WriteInternalServerError(w, fmt.Sprintf("%s failed", op))
	}
}
