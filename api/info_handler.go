package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/workscale/backlog"
)

// ProcInfo is one proc's measured quantity as served to the autoscaler.
type ProcInfo struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// info measures every proc with one shared cache and returns the list of
// quantities. A wrong token gets a plain 404 so the endpoint's existence is
// not revealed.
func (a *API) info(w http.ResponseWriter, r *http.Request) {
	if !a.tokenMatches(chi.URLParam(r, "token")) {
		http.NotFound(w, r)
		return
	}

	cache := backlog.NewCache()
	infos := make([]ProcInfo, 0, len(a.procs))
	for _, proc := range a.procs {
		quantity, err := proc.Quantity(r.Context(), cache)
		if err != nil {
			a.logger.Error("quantity failed",
				slog.String("proc", proc.Name()),
				slog.String("error", err.Error()),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(errorResponse{Error: "measuring " + proc.Name() + " failed"})
			return
		}
		infos = append(infos, ProcInfo{Name: proc.Name(), Quantity: quantity})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(infos)
}
