package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lucaslui/hems/event-pipeline/internal/analyzer"
	"github.com/lucaslui/hems/event-pipeline/internal/broker"
	"github.com/lucaslui/hems/event-pipeline/internal/gateway"
	"github.com/lucaslui/hems/event-pipeline/internal/model"
	"github.com/lucaslui/hems/event-pipeline/internal/processing"
	"github.com/lucaslui/hems/event-pipeline/internal/sink"
)

func discard() *log.Logger { return log.New(io.Discard, "", 0) }

// --- receiver ---

type stubPublisher struct {
	err   error
	calls int
}

func (p *stubPublisher) Publish(ctx context.Context, key, value []byte) error {
	p.calls++
	return p.err
}

func receiverMux(pub gateway.Publisher) *http.ServeMux {
	policy := broker.RetryPolicy{MaxAttempts: 2, Delay: broker.FixedDelay(0)}
	return NewReceiverMux(gateway.New(pub, nil, policy, discard()), discard())
}

func TestReceiverAcceptsValidSensorData(t *testing.T) {
	mux := receiverMux(&stubPublisher{})
	body := `{"sensorId":"s1","temperature":30,"timestamp":"2024-01-01T00:00:00","location":"lab"}`

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sensor-data", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out["trace_id"] == "" {
		t.Error("response missing trace_id")
	}
}

func TestReceiverRejectsIncompleteBody(t *testing.T) {
	pub := &stubPublisher{}
	mux := receiverMux(pub)
	body := `{"sensorId":"s1","temperature":30}`

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sensor-data", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if pub.calls != 0 {
		t.Errorf("publish calls = %d, want 0", pub.calls)
	}
}

func TestReceiverReports503WhenBrokerUnavailable(t *testing.T) {
	pub := &stubPublisher{err: fmt.Errorf("dial: %w", broker.ErrUnavailable)}
	mux := receiverMux(pub)
	body := `{"userId":"u1","targetDevice":"d","targetTemperature":21,"timestamp":"t"}`

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/user-command", strings.NewReader(body)))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

// --- storage ---

type memStore struct {
	readings []model.SensorReadingRecord
	commands []model.UserCommandRecord
	err      error
}

func (m *memStore) WriteSensorData(ctx context.Context, r model.SensorReading) error {
	if m.err != nil {
		return m.err
	}
	m.readings = append(m.readings, model.SensorReadingRecord{
		ID: int64(len(m.readings) + 1), SensorID: r.SensorID, Temperature: r.Temperature,
		Timestamp: r.Timestamp, Location: r.Location, TraceID: r.TraceID,
		DateCreated: "2024-01-01T00:00:01",
	})
	return nil
}

func (m *memStore) WriteUserCommand(ctx context.Context, c model.UserCommand) error {
	if m.err != nil {
		return m.err
	}
	m.commands = append(m.commands, model.UserCommandRecord{
		ID: int64(len(m.commands) + 1), UserID: c.UserID, TargetDevice: c.TargetDevice,
		TargetTemperature: c.TargetTemperature, Timestamp: c.Timestamp, TraceID: c.TraceID,
		DateCreated: "2024-01-01T00:00:01",
	})
	return nil
}

func (m *memStore) SensorDataRange(ctx context.Context, start, end string) ([]model.SensorReadingRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []model.SensorReadingRecord{}
	for _, r := range m.readings {
		if r.DateCreated >= start && r.DateCreated < end {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) UserCommandRange(ctx context.Context, start, end string) ([]model.UserCommandRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []model.UserCommandRecord{}
	for _, c := range m.commands {
		if c.DateCreated >= start && c.DateCreated < end {
			out = append(out, c)
		}
	}
	return out, nil
}

func TestStorageRangeQuery(t *testing.T) {
	store := &memStore{}
	_ = store.WriteSensorData(context.Background(), model.SensorReading{SensorID: "s1", Temperature: 30, TraceID: "t1"})
	mux := NewStorageMux(store, discard())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/sensor-data?start_timestamp=2024-01-01T00:00:00&end_timestamp=2024-01-01T00:00:05", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var out []model.SensorReadingRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].SensorID != "s1" {
		t.Errorf("records = %+v, want the stored reading", out)
	}
}

func TestStorageRejectsBadTimestamps(t *testing.T) {
	mux := NewStorageMux(&memStore{}, discard())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/sensor-data?start_timestamp=yesterday&end_timestamp=now", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestStorageDirectWriteAssignsTraceID(t *testing.T) {
	store := &memStore{}
	mux := NewStorageMux(store, discard())
	body := `{"sensorId":"s2","temperature":25,"timestamp":"2024-01-01T00:00:00","location":"attic"}`

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sensor-data", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if len(store.readings) != 1 || store.readings[0].TraceID == "" {
		t.Errorf("stored = %+v, want one reading with an assigned trace id", store.readings)
	}
}

func TestStorageRangeQueryError(t *testing.T) {
	mux := NewStorageMux(&memStore{err: &sink.StorageError{Op: "query", Err: errors.New("down")}}, discard())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/user-command?start_timestamp=2024-01-01T00:00:00&end_timestamp=2024-01-01T00:00:05", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

// --- analyzer ---

type sliceStream struct {
	messages []broker.Message
	pos      int
}

func (s *sliceStream) Next(ctx context.Context) (broker.Message, error) {
	if s.pos >= len(s.messages) {
		return broker.Message{}, broker.ErrEndOfStream
	}
	m := s.messages[s.pos]
	s.pos++
	return m, nil
}

func (s *sliceStream) Close() error { return nil }

func analyzerMuxOver(t *testing.T, types ...string) *http.ServeMux {
	t.Helper()
	var messages []broker.Message
	for i, typ := range types {
		payload, _ := json.Marshal(map[string]int{"n": i})
		value, err := json.Marshal(model.Envelope{Type: typ, Payload: payload})
		if err != nil {
			t.Fatal(err)
		}
		messages = append(messages, broker.Message{Offset: int64(i), Value: value})
	}
	open := func(ctx context.Context) (analyzer.EventStream, error) {
		return &sliceStream{messages: messages}, nil
	}
	return NewAnalyzerMux(analyzer.NewReader(open, discard()), discard())
}

func TestAnalyzerIndexLookup(t *testing.T) {
	mux := analyzerMuxOver(t, model.EventSensorData, model.EventUserCommand, model.EventSensorData)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sensor-data/1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var out map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out["n"] != 2 {
		t.Errorf("payload n = %d, want the second sensor event (n=2)", out["n"])
	}
}

func TestAnalyzerIndexNotFound(t *testing.T) {
	mux := analyzerMuxOver(t, model.EventSensorData)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/user-command/0", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Not Found") {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestAnalyzerStats(t *testing.T) {
	mux := analyzerMuxOver(t, model.EventSensorData, model.EventUserCommand, model.EventSensorData)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var stats analyzer.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.NumSensorData != 2 || stats.NumUserCommand != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

// --- processing ---

func TestProcessingStatsBeforeFirstTick(t *testing.T) {
	store := processing.NewFileStateStore(filepath.Join(t.TempDir(), "stats.json"))
	mux := NewProcessingMux(store, discard())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestProcessingStatsServesPersistedState(t *testing.T) {
	store := processing.NewFileStateStore(filepath.Join(t.TempDir(), "stats.json"))
	want := model.AggregateState{NumSensorDataEvents: 4, MaxTemperature: 33, LastUpdated: "2024-01-01T00:00:10"}
	if err := store.Save(want); err != nil {
		t.Fatal(err)
	}
	mux := NewProcessingMux(store, discard())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got model.AggregateState
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("state = %+v, want %+v", got, want)
	}
}
