package gateway

import (
	"fmt"

	"github.com/lucaslui/hems/event-pipeline/internal/model"
)

// ValidationError rejects a request before anything touches the broker.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("missing key: %s", e.Field)
}

var requiredFields = map[string][]string{
	model.EventSensorData:  {"temperature", "timestamp", "sensorId", "location"},
	model.EventUserCommand: {"timestamp", "userId", "targetDevice", "targetTemperature"},
}

func checkRequired(eventType string, fields map[string]any) error {
	required, ok := requiredFields[eventType]
	if !ok {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown event type %q", eventType)}
	}
	for _, f := range required {
		if _, present := fields[f]; !present {
			return &ValidationError{Field: f}
		}
	}
	return nil
}
