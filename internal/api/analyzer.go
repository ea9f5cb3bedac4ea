package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/lucaslui/hems/event-pipeline/internal/analyzer"
	"github.com/lucaslui/hems/event-pipeline/internal/model"
)

// NewAnalyzerMux exposes the replay reader. "Not Found" (the index is
// past the end of the matching events) is distinct from a failed scan.
func NewAnalyzerMux(reader *analyzer.Reader, logger *log.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sensor-data/{index}", indexHandler(reader, model.EventSensorData, logger))
	mux.HandleFunc("GET /user-command/{index}", indexHandler(reader, model.EventUserCommand, logger))

	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, r *http.Request) {
		stats, err := reader.ReadStats(r.Context())
		if err != nil {
			logger.Printf("[api] stats scan failed: %v", err)
			writeMessage(w, http.StatusInternalServerError, "Error retrieving statistics")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	})

	return mux
}

func indexHandler(reader *analyzer.Reader, eventType string, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(r.PathValue("index"))
		if err != nil || index < 0 {
			writeMessage(w, http.StatusBadRequest, "index must be a non-negative integer")
			return
		}
		payload, err := reader.ReadByIndex(r.Context(), eventType, index)
		if errors.Is(err, analyzer.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Not Found")
			return
		}
		if err != nil {
			logger.Printf("[api] replay lookup failed: %v", err)
			writeMessage(w, http.StatusInternalServerError, "Error retrieving message")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
	}
}
