package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"hodor/internal/storage"
)

// Checkpoint records how far a journal's events have been delivered.
type Checkpoint struct {
	Journal          string `json:"journal"`
	LastDeliveredSeq uint64 `json:"last_delivered_seq"`
	Slot             uint64 `json:"slot"`
	UpdatedAt        string `json:"updated_at"`
}

// CheckpointStore keeps one checkpoint file. A disabled store loads nothing
// and drops saves.
type CheckpointStore struct {
	path    string
	enabled bool
	now     func() time.Time
}

func NewCheckpointStore(path string, enabled bool) *CheckpointStore {
	return &CheckpointStore{path: path, enabled: enabled && path != "", now: time.Now}
}

// Load returns the stored checkpoint for journal. A checkpoint written for
// another journal is an error rather than a silent skip of its events.
func (c *CheckpointStore) Load(journal string) (Checkpoint, bool, error) {
	if !c.enabled {
		return Checkpoint{}, false, nil
	}
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse checkpoint %s: %w", c.path, err)
	}
	if cp.Journal != "" && cp.Journal != journal {
		return Checkpoint{}, false, fmt.Errorf("checkpoint %s belongs to journal %s, not %s", c.path, cp.Journal, journal)
	}
	return cp, true, nil
}

func (c *CheckpointStore) Save(cp Checkpoint) error {
	if !c.enabled {
		return nil
	}
	cp.UpdatedAt = c.now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := storage.WriteFileAtomic(c.path, data); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}
