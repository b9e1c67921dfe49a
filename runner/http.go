package runner

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// Handler exposes the run state for polling clients:
//
//	GET  /status  current snapshot
//	POST /run     start a run in the background
//
// A run requested while one is active is ignored and answered with the
// current snapshot.
func (r *Runner) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, r.Snapshot())
	})
	mux.HandleFunc("POST /run", func(w http.ResponseWriter, _ *http.Request) {
		err := r.Start(ctx)
		switch {
		case errors.Is(err, ErrAlreadyRunning):
			writeJSON(w, http.StatusOK, r.Snapshot())
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		default:
			writeJSON(w, http.StatusAccepted, r.Snapshot())
		}
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode status response", slog.Any("error", err))
	}
}
