package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/lucaslui/hems/event-pipeline/internal/broker"
	"github.com/lucaslui/hems/event-pipeline/internal/gateway"
	"github.com/lucaslui/hems/event-pipeline/internal/model"
)

// NewReceiverMux exposes the ingestion gateway. 201 carries the trace
// id; 400 means the event was rejected before any publish; 503 means
// the broker stayed unavailable through the whole retry budget and the
// event was dropped.
func NewReceiverMux(gw *gateway.Gateway, logger *log.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sensor-data", ingestHandler(gw, model.EventSensorData, logger))
	mux.HandleFunc("POST /user-command", ingestHandler(gw, model.EventUserCommand, logger))
	return mux
}

func ingestHandler(gw *gateway.Gateway, eventType string, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "cannot read body")
			return
		}

		res, err := gw.Ingest(r.Context(), eventType, body)
		var verr *gateway.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		case broker.Retryable(err):
			writeError(w, http.StatusServiceUnavailable, "event log unavailable")
			return
		case err != nil:
			logger.Printf("[api] ingest %s failed: %v", eventType, err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		out := map[string]string{"trace_id": res.TraceID}
		if res.ForwardErr != nil {
			out["forward_error"] = res.ForwardErr.Error()
		}
		writeJSON(w, http.StatusCreated, out)
	}
}
