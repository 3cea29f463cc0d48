package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"hodor/internal/storage"
)

// Snapshot is the on-disk form of a Bank.
type Snapshot struct {
	Slot      uint64                        `json:"slot"`
	UpdatedAt string                        `json:"updated_at"`
	Accounts  map[solana.PublicKey]*Account `json:"accounts"`
}

// Save writes the ledger to path atomically.
func (b *Bank) Save(path string) error {
	b.mu.Lock()
	snap := Snapshot{
		Slot:      b.slot,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Accounts:  b.accounts,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	b.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	if err := storage.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load replaces the ledger's accounts with the snapshot at path. A missing
// file leaves the ledger empty.
func (b *Bank) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			b.logger.Info("no ledger snapshot, starting empty", zap.String("path", path))
			return nil
		}
		return fmt.Errorf("read ledger: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse ledger: %w", err)
	}
	if snap.Accounts == nil {
		snap.Accounts = make(map[solana.PublicKey]*Account)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts = snap.Accounts
	b.slot = snap.Slot
	b.logger.Debug("ledger loaded", zap.String("path", path), zap.Int("accounts", len(b.accounts)), zap.Uint64("slot", b.slot))
	return nil
}
