package api

import (
	"log"
	"net/http"

	"github.com/lucaslui/hems/event-pipeline/internal/processing"
)

// NewProcessingMux serves the persisted aggregate state. Reads go
// straight to the store, independent of the aggregation timer, so a
// slow tick never blocks a dashboard poll.
func NewProcessingMux(store processing.StateStore, logger *log.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, r *http.Request) {
		state, ok, err := store.Load()
		if err != nil {
			logger.Printf("[api] stats load failed: %v", err)
			writeMessage(w, http.StatusInternalServerError, "error reading statistics")
			return
		}
		if !ok {
			writeMessage(w, http.StatusNotFound, "Statistics do not exist")
			return
		}
		writeJSON(w, http.StatusOK, state)
	})
	return mux
}
