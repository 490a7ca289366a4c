package upload

import (
	"fmt"
	"net/http"

	"github.com/indieinfra/hydrogen/server/handler/common"
	"github.com/indieinfra/hydrogen/server/resp"
	"github.com/indieinfra/hydrogen/server/state"
	"github.com/indieinfra/hydrogen/server/util"
	"github.com/indieinfra/hydrogen/storage/media"
)

// HandleMediaUpload stores the multipart "file" field remotely and records the returned
// handle as a pending media record.
func HandleMediaUpload(st *state.HydrogenState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := util.RequireValidMediaContentType(w, r); !ok {
			return
		}

		maxMemory := int64(st.Cfg.Server.Limits.MaxMultipartMem)
		maxSize := int64(st.Cfg.Server.Limits.MaxFileSize)
		_, file, ok := util.ParseSingleFile(w, r, maxMemory, maxSize, []string{"file"})
		if !ok {
			return
		}
		defer file.File.Close()

		filename := file.Filename()
		handle, err := st.Remote.Write(r.Context(), filename, file.File)
		if err != nil {
			common.LogAndWriteError(w, r, "upload media", err)
			return
		}

		rec := &media.Record{
			Filename:    filename,
			ContentType: st.Remote.MimeType(filename),
			ExternalID:  media.StringPtr(handle.String()),
		}
		if err := st.MediaStore.Create(r.Context(), rec); err != nil {
			common.LogAndWriteError(w, r, "record media", err)
			return
		}

		rl := util.LoggerFor(r, st.Logger)
		rl.Info().Int64("media_id", rec.ID).Str("handle", handle.String()).Msg("media uploaded")

		resp.WriteCreated(w, fmt.Sprintf("/media/%d", rec.ID), rec)
	}
}
