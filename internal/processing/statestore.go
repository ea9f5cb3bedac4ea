package processing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lucaslui/hems/event-pipeline/internal/model"
)

// FileStateStore keeps the aggregate state in a single JSON file. Save
// writes a temp file and renames it over the target so a crash mid-save
// leaves either the old state or the new one, never a torn record.
type FileStateStore struct {
	path string
}

func NewFileStateStore(path string) *FileStateStore {
	return &FileStateStore{path: path}
}

func (f *FileStateStore) Load() (model.AggregateState, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.AggregateState{}, false, nil
	}
	if err != nil {
		return model.AggregateState{}, false, fmt.Errorf("read state file: %w", err)
	}
	var s model.AggregateState
	if err := json.Unmarshal(data, &s); err != nil {
		return model.AggregateState{}, false, fmt.Errorf("decode state file: %w", err)
	}
	return s, true, nil
}

func (f *FileStateStore) Save(s model.AggregateState) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp := filepath.Join(filepath.Dir(f.path), ".stats.tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
