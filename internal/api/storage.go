package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lucaslui/hems/event-pipeline/internal/model"
	"github.com/lucaslui/hems/event-pipeline/internal/sink"
)

// NewStorageMux exposes the persisted store: windowed range reads for
// the aggregator, plus direct writes used by the receiver's optional
// forward path.
func NewStorageMux(store sink.Store, logger *log.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /sensor-data", func(w http.ResponseWriter, r *http.Request) {
		start, end, ok := rangeParams(w, r)
		if !ok {
			return
		}
		records, err := store.SensorDataRange(r.Context(), start, end)
		if err != nil {
			logger.Printf("[api] sensor data range query failed: %v", err)
			writeMessage(w, http.StatusInternalServerError, "error retrieving sensor data")
			return
		}
		writeJSON(w, http.StatusOK, records)
	})

	mux.HandleFunc("GET /user-command", func(w http.ResponseWriter, r *http.Request) {
		start, end, ok := rangeParams(w, r)
		if !ok {
			return
		}
		records, err := store.UserCommandRange(r.Context(), start, end)
		if err != nil {
			logger.Printf("[api] user command range query failed: %v", err)
			writeMessage(w, http.StatusInternalServerError, "error retrieving user commands")
			return
		}
		writeJSON(w, http.StatusOK, records)
	})

	mux.HandleFunc("POST /sensor-data", func(w http.ResponseWriter, r *http.Request) {
		var reading model.SensorReading
		if !decodeBody(w, r, &reading) {
			return
		}
		if reading.TraceID == "" {
			reading.TraceID = uuid.NewString()
		}
		if err := store.WriteSensorData(r.Context(), reading); err != nil {
			logger.Printf("[api] direct sensor data write failed: %v", err)
			writeMessage(w, http.StatusInternalServerError, "error storing sensor data")
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("POST /user-command", func(w http.ResponseWriter, r *http.Request) {
		var cmd model.UserCommand
		if !decodeBody(w, r, &cmd) {
			return
		}
		if cmd.TraceID == "" {
			cmd.TraceID = uuid.NewString()
		}
		if err := store.WriteUserCommand(r.Context(), cmd); err != nil {
			logger.Printf("[api] direct user command write failed: %v", err)
			writeMessage(w, http.StatusInternalServerError, "error storing user command")
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	return mux
}

// rangeParams parses the half-open [start, end) window. Fractional
// seconds in the inputs are accepted and truncated by time.Parse.
func rangeParams(w http.ResponseWriter, r *http.Request) (start, end string, ok bool) {
	start = r.URL.Query().Get("start_timestamp")
	end = r.URL.Query().Get("end_timestamp")
	for _, ts := range []string{start, end} {
		if _, err := time.Parse(model.TimeLayout, ts); err != nil {
			writeMessage(w, http.StatusBadRequest, "start_timestamp and end_timestamp must be "+model.TimeLayout)
			return "", "", false
		}
	}
	return start, end, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "cannot read body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
