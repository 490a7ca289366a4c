package media

import (
	"net/http"
	"strconv"

	"github.com/indieinfra/hydrogen/server/handler/common"
	"github.com/indieinfra/hydrogen/server/resp"
	"github.com/indieinfra/hydrogen/server/state"
)

func HandleGetMedia(st *state.HydrogenState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil || id <= 0 {
			resp.WriteInvalidRequest(w, "media id must be a positive integer")
			return
		}

		rec, err := st.MediaStore.Get(r.Context(), id)
		if err != nil {
			common.LogAndWriteError(w, r, "get media", err)
			return
		}

		resp.WriteOK(w, rec)
	}
}
