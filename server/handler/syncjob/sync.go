package syncjob

import (
	"net/http"

	"github.com/indieinfra/hydrogen/server/handler/common"
	"github.com/indieinfra/hydrogen/server/resp"
	"github.com/indieinfra/hydrogen/server/state"
)

// HandleSync runs one reconciliation pass and returns its report.
func HandleSync(st *state.HydrogenState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := st.Job.Run(r.Context())
		if err != nil {
			common.LogAndWriteError(w, r, "sync", err)
			return
		}

		resp.WriteOK(w, report)
	}
}
