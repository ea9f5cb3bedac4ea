package processing

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/lucaslui/hems/event-pipeline/internal/model"
)

// InfluxSnapshotWriter pushes a point per successful tick so dashboards
// can graph the totals over time. The JSON state file stays the source
// of truth.
type InfluxSnapshotWriter struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
}

func NewInfluxSnapshotWriter(url, token, org, bucket string) *InfluxSnapshotWriter {
	client := influxdb2.NewClient(url, token)
	return &InfluxSnapshotWriter{
		client: client,
		write:  client.WriteAPIBlocking(org, bucket),
	}
}

func (w *InfluxSnapshotWriter) WriteSnapshot(ctx context.Context, s model.AggregateState) error {
	point := influxdb2.NewPoint(
		"event_stats",
		map[string]string{"service": "processing"},
		map[string]interface{}{
			"num_sensor_data_events": s.NumSensorDataEvents,
			"max_temperature":        s.MaxTemperature,
			"num_user_commands":      s.NumUserCommands,
			"max_target_temperature": s.MaxTargetTemperature,
		},
		time.Now().UTC(),
	)
	return w.write.WritePoint(ctx, point)
}

func (w *InfluxSnapshotWriter) Close() { w.client.Close() }
