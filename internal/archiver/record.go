package archiver

import (
	"encoding/json"

	"github.com/lucaslui/hems/event-pipeline/internal/model"
)

// Record is the flattened parquet row for cold storage. The payload
// stays a JSON string so both event shapes share one schema.
type Record struct {
	EventType string `parquet:"name=event_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Datetime  string `parquet:"name=datetime, type=BYTE_ARRAY, convertedtype=UTF8"`
	TraceID   string `parquet:"name=trace_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Payload   string `parquet:"name=payload, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func ToRecord(env model.Envelope) Record {
	var traced struct {
		TraceID string `json:"trace_id"`
	}
	_ = json.Unmarshal(env.Payload, &traced)
	return Record{
		EventType: env.Type,
		Datetime:  env.Datetime,
		TraceID:   traced.TraceID,
		Payload:   string(env.Payload),
	}
}
