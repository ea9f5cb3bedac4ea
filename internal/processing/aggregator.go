// Package processing maintains the dashboard statistics: a scheduled
// aggregator folds newly persisted events into running totals, bounded
// by a watermark that only advances when a whole tick succeeds.
package processing

import (
	"context"
	"log"
	"time"

	"github.com/lucaslui/hems/event-pipeline/internal/model"
)

// QueryClient is the storage service's range-query surface.
type QueryClient interface {
	SensorDataRange(ctx context.Context, start, end string) ([]model.SensorReadingRecord, error)
	UserCommandRange(ctx context.Context, start, end string) ([]model.UserCommandRecord, error)
}

// StateStore persists the aggregate state across restarts. Load's bool
// reports whether a state existed.
type StateStore interface {
	Load() (model.AggregateState, bool, error)
	Save(model.AggregateState) error
}

// SnapshotWriter receives a copy of the state after each successful
// tick. Failures are logged and ignored: snapshots are derived data.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, s model.AggregateState) error
}

// Aggregator must run as a single instance per state store. Nothing
// coordinates concurrent writers; the deployment has to guarantee the
// singleton.
type Aggregator struct {
	store StateStore
	query QueryClient
	snap  SnapshotWriter // may be nil
	log   *log.Logger
	now   func() time.Time
}

func NewAggregator(store StateStore, query QueryClient, snap SnapshotWriter, logger *log.Logger) *Aggregator {
	return &Aggregator{store: store, query: query, snap: snap, log: logger, now: time.Now}
}

// Run ticks every period until ctx is cancelled.
func (a *Aggregator) Run(ctx context.Context, period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			a.Tick(ctx)
		case <-ctx.Done():
			a.log.Printf("[processing] scheduler stopped: %v", ctx.Err())
			return
		}
	}
}

// Tick runs one aggregation pass over the window [watermark, now).
// Both sources are queried every tick (a sensor-data failure does not
// block the user-command query), but the folded totals and the advanced
// watermark are persisted only when both succeeded. A failed tick
// leaves the state untouched, so the next tick re-requests the same
// window start: consecutive windows partition time with no gap and no
// overlap.
func (a *Aggregator) Tick(ctx context.Context) {
	a.log.Printf("[processing] starting periodic processing")

	state, ok, err := a.store.Load()
	if err != nil {
		a.log.Printf("[processing] cannot load state, skipping tick: %v", err)
		return
	}
	if !ok {
		state = model.AggregateState{LastUpdated: a.now().UTC().Format(model.TimeLayout)}
		if err := a.store.Save(state); err != nil {
			a.log.Printf("[processing] cannot initialize state: %v", err)
			return
		}
		a.log.Printf("[processing] initialized statistics with default values")
		return
	}

	windowStart := state.LastUpdated
	windowEnd := a.now().UTC().Format(model.TimeLayout)
	a.log.Printf("[processing] fetching events between %s and %s", windowStart, windowEnd)

	next := state
	sensorOK := a.foldSensorData(ctx, &next, windowStart, windowEnd)
	commandOK := a.foldUserCommands(ctx, &next, windowStart, windowEnd)
	if !sensorOK || !commandOK {
		a.log.Printf("[processing] tick aborted, watermark stays at %s", windowStart)
		return
	}

	next.LastUpdated = windowEnd
	if err := a.store.Save(next); err != nil {
		a.log.Printf("[processing] cannot persist state, watermark stays at %s: %v", windowStart, err)
		return
	}
	a.log.Printf("[processing] periodic processing completed: sensor=%d max_temp=%.2f commands=%d max_target=%.2f",
		next.NumSensorDataEvents, next.MaxTemperature, next.NumUserCommands, next.MaxTargetTemperature)

	if a.snap != nil {
		if err := a.snap.WriteSnapshot(ctx, next); err != nil {
			a.log.Printf("[processing] snapshot write failed: %v", err)
		}
	}
}

func (a *Aggregator) foldSensorData(ctx context.Context, s *model.AggregateState, start, end string) bool {
	readings, err := a.query.SensorDataRange(ctx, start, end)
	if err != nil {
		a.log.Printf("[processing] error fetching sensor data: %v", err)
		return false
	}
	a.log.Printf("[processing] received %d sensor data events", len(readings))
	for _, r := range readings {
		s.NumSensorDataEvents++
		if r.Temperature > s.MaxTemperature {
			s.MaxTemperature = r.Temperature
		}
	}
	return true
}

func (a *Aggregator) foldUserCommands(ctx context.Context, s *model.AggregateState, start, end string) bool {
	commands, err := a.query.UserCommandRange(ctx, start, end)
	if err != nil {
		a.log.Printf("[processing] error fetching user commands: %v", err)
		return false
	}
	a.log.Printf("[processing] received %d user command events", len(commands))
	for _, c := range commands {
		s.NumUserCommands++
		if c.TargetTemperature > s.MaxTargetTemperature {
			s.MaxTargetTemperature = c.TargetTemperature
		}
	}
	return true
}
