package model

// Persisted rows. id and date_created are sink-assigned: id by
// AUTO_INCREMENT, date_created by the storage service's clock at insert
// time. Windowed queries order by date_created, not by the
// producer-supplied timestamp, so client clock skew cannot punch holes
// in an aggregation window.

type SensorReadingRecord struct {
	ID          int64   `json:"id"`
	SensorID    string  `json:"sensor_id"`
	Temperature float64 `json:"temperature"`
	Timestamp   string  `json:"timestamp"`
	Location    string  `json:"location"`
	TraceID     string  `json:"trace_id"`
	DateCreated string  `json:"date_created"`
}

type UserCommandRecord struct {
	ID                int64   `json:"id"`
	UserID            string  `json:"user_id"`
	TargetDevice      string  `json:"target_device"`
	TargetTemperature float64 `json:"target_temperature"`
	Timestamp         string  `json:"timestamp"`
	TraceID           string  `json:"trace_id"`
	DateCreated       string  `json:"date_created"`
}

// AggregateState is the processing service's running totals plus the
// watermark (last_updated). Persisted as a single JSON document; the
// whole record is rewritten atomically on every successful tick.
type AggregateState struct {
	NumSensorDataEvents  int     `json:"num_sensor_data_events"`
	MaxTemperature       float64 `json:"max_temperature"`
	NumUserCommands      int     `json:"num_user_commands"`
	MaxTargetTemperature float64 `json:"max_target_temperature"`
	LastUpdated          string  `json:"last_updated"`
}
