package model

import "encoding/json"

// Event types carried in the envelope's type field.
const (
	EventSensorData  = "sensor_data"
	EventUserCommand = "user_command"
)

// TimeLayout is the wire format for every timestamp in the pipeline:
// producer datetime stamps, date_created ordering keys and the
// aggregate watermark. Second precision, no zone.
const TimeLayout = "2006-01-02T15:04:05"

// Envelope wraps a payload published to the event topic. Identity is the
// (partition, offset) assigned by the broker, never anything inside it.
type Envelope struct {
	Type     string          `json:"type"`
	Datetime string          `json:"datetime"`
	Payload  json.RawMessage `json:"payload"`
}

type SensorReading struct {
	SensorID    string  `json:"sensorId"`
	Temperature float64 `json:"temperature"`
	Timestamp   string  `json:"timestamp"`
	Location    string  `json:"location"`
	TraceID     string  `json:"trace_id"`
}

type UserCommand struct {
	UserID            string  `json:"userId"`
	TargetDevice      string  `json:"targetDevice"`
	TargetTemperature float64 `json:"targetTemperature"`
	Timestamp         string  `json:"timestamp"`
	TraceID           string  `json:"trace_id"`
}
