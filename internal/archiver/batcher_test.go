package archiver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/lucaslui/hems/event-pipeline/internal/model"
)

type fakeUploader struct {
	objects []string
	sizes   []int64
	err     error
}

func (u *fakeUploader) Upload(ctx context.Context, objectName string, r io.Reader, size int64) error {
	if u.err != nil {
		return u.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	u.objects = append(u.objects, objectName)
	u.sizes = append(u.sizes, size)
	return nil
}

func TestToRecordExtractsTraceID(t *testing.T) {
	payload, _ := json.Marshal(model.SensorReading{SensorID: "s1", Temperature: 30, TraceID: "t-9"})
	env := model.Envelope{Type: model.EventSensorData, Datetime: "2024-01-01T00:00:00", Payload: payload}

	rec := ToRecord(env)
	if rec.EventType != model.EventSensorData {
		t.Errorf("event type = %q", rec.EventType)
	}
	if rec.TraceID != "t-9" {
		t.Errorf("trace id = %q, want t-9", rec.TraceID)
	}
	if !strings.Contains(rec.Payload, `"sensorId":"s1"`) {
		t.Errorf("payload not preserved: %s", rec.Payload)
	}
}

func TestBatcherFullByCountAndAge(t *testing.T) {
	b := NewBatcher(2, time.Hour, &fakeUploader{}, "events")
	if b.Full() {
		t.Error("empty batcher reported full")
	}
	b.Add(Record{EventType: model.EventSensorData})
	if b.Full() {
		t.Error("half-full batcher reported full")
	}
	b.Add(Record{EventType: model.EventUserCommand})
	if !b.Full() {
		t.Error("batcher at MaxRecords not reported full")
	}

	aged := NewBatcher(100, time.Nanosecond, &fakeUploader{}, "events")
	aged.Add(Record{EventType: model.EventSensorData})
	time.Sleep(time.Millisecond)
	if !aged.Full() {
		t.Error("aged batcher not reported full")
	}
}

func TestFlushUploadsAndResets(t *testing.T) {
	up := &fakeUploader{}
	b := NewBatcher(10, time.Hour, up, "events")
	b.Add(Record{EventType: model.EventSensorData, Datetime: "2024-01-01T00:00:00", TraceID: "a", Payload: "{}"})
	b.Add(Record{EventType: model.EventUserCommand, Datetime: "2024-01-01T00:00:01", TraceID: "b", Payload: "{}"})

	n, err := b.Flush(context.Background())
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if n != 2 {
		t.Errorf("flushed %d records, want 2", n)
	}
	if b.Len() != 0 {
		t.Errorf("buffer length after flush = %d, want 0", b.Len())
	}
	if len(up.objects) != 1 {
		t.Fatalf("uploads = %d, want 1", len(up.objects))
	}
	if !strings.HasPrefix(up.objects[0], "events/year=") || !strings.HasSuffix(up.objects[0], ".parquet") {
		t.Errorf("object path = %q, want hive-style parquet path", up.objects[0])
	}
	if up.sizes[0] <= 0 {
		t.Errorf("uploaded size = %d, want > 0", up.sizes[0])
	}
}

func TestFlushKeepsBufferOnUploadFailure(t *testing.T) {
	up := &fakeUploader{err: io.ErrClosedPipe}
	b := NewBatcher(10, time.Hour, up, "events")
	b.Add(Record{EventType: model.EventSensorData, Payload: "{}"})

	if _, err := b.Flush(context.Background()); err == nil {
		t.Fatal("expected flush failure")
	}
	if b.Len() != 1 {
		t.Errorf("buffer length = %d, want 1 (kept for retry)", b.Len())
	}

	up.err = nil
	n, err := b.Flush(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("retry flush: n=%d err=%v", n, err)
	}
}

func TestFlushEmptyIsNoop(t *testing.T) {
	up := &fakeUploader{}
	b := NewBatcher(10, time.Hour, up, "events")
	n, err := b.Flush(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("empty flush: n=%d err=%v", n, err)
	}
	if len(up.objects) != 0 {
		t.Error("empty flush uploaded an object")
	}
}
