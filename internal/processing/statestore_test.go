package processing

import (
	"path/filepath"
	"testing"

	"github.com/lucaslui/hems/event-pipeline/internal/model"
)

func TestFileStateStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	store := NewFileStateStore(path)

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("fresh store: ok=%v err=%v, want absent without error", ok, err)
	}

	want := model.AggregateState{
		NumSensorDataEvents:  7,
		MaxTemperature:       31.5,
		NumUserCommands:      3,
		MaxTargetTemperature: 22,
		LastUpdated:          "2024-01-01T00:00:10",
	}
	if err := store.Save(want); err != nil {
		t.Fatal(err)
	}

	// A new store over the same path simulates a process restart.
	got, ok, err := NewFileStateStore(path).Load()
	if err != nil || !ok {
		t.Fatalf("reload: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Errorf("reloaded state = %+v, want %+v", got, want)
	}
}

func TestFileStateStoreOverwritesWholeRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	store := NewFileStateStore(path)

	_ = store.Save(model.AggregateState{NumSensorDataEvents: 1, LastUpdated: "2024-01-01T00:00:00"})
	next := model.AggregateState{NumSensorDataEvents: 2, LastUpdated: "2024-01-01T00:00:05"}
	if err := store.Save(next); err != nil {
		t.Fatal(err)
	}

	got, _, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got != next {
		t.Errorf("state = %+v, want %+v", got, next)
	}
}
