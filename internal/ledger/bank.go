package ledger

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"hodor/internal/swap"
)

// Program is an on-ledger program invoked by Execute.
type Program interface {
	Process(rt swap.Runtime, programID solana.PublicKey, accounts []*swap.AccountInfo, data []byte) error
}

// ProgramFunc adapts a function to Program.
type ProgramFunc func(rt swap.Runtime, programID solana.PublicKey, accounts []*swap.AccountInfo, data []byte) error

func (f ProgramFunc) Process(rt swap.Runtime, programID solana.PublicKey, accounts []*swap.AccountInfo, data []byte) error {
	return f(rt, programID, accounts, data)
}

// Account is a stored account.
type Account struct {
	Owner solana.PublicKey `json:"owner"`
	Data  []byte           `json:"data"`
}

// Bank is an in-memory account ledger with a built-in SPL token sub-ledger.
// Instructions run one at a time; each either commits every change it made
// or none of them.
type Bank struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]*Account
	programs map[solana.PublicKey]Program
	slot     uint64
	logger   *zap.Logger
}

func NewBank(logger *zap.Logger) *Bank {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bank{
		accounts: make(map[solana.PublicKey]*Account),
		programs: make(map[solana.PublicKey]Program),
		logger:   logger.Named("ledger"),
	}
}

// Register installs program under programID.
func (b *Bank) Register(programID solana.PublicKey, program Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.programs[programID] = program
}

// Slot returns the number of committed instructions.
func (b *Bank) Slot() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.slot
}

// Account returns a copy of the stored account.
func (b *Bank) Account(key solana.PublicKey) (Account, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[key]
	if !ok {
		return Account{}, false
	}
	return Account{Owner: acc.Owner, Data: bytes.Clone(acc.Data)}, true
}

// Keys returns every stored account key in a stable order.
func (b *Bank) Keys() []solana.PublicKey {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]solana.PublicKey, 0, len(b.accounts))
	for k := range b.accounts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })
	return keys
}

// Execute runs ix with signers as the transaction signers and returns the
// events emitted by the program. The ledger is left untouched on error.
func (b *Bank) Execute(ix solana.Instruction, signers ...solana.PublicKey) ([]swap.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	programID := ix.ProgramID()
	program, ok := b.programs[programID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, programID)
	}
	data, err := ix.Data()
	if err != nil {
		return nil, fmt.Errorf("instruction data: %w", err)
	}

	t := b.begin(programID, ix.Accounts(), signers)
	if err := program.Process(t, programID, t.infos, data); err != nil {
		b.logger.Debug("rollback", zap.Stringer("program", programID), zap.Error(err))
		return nil, err
	}
	if err := b.commit(t); err != nil {
		b.logger.Debug("rollback", zap.Stringer("program", programID), zap.Error(err))
		return nil, err
	}

	b.logger.Debug("commit",
		zap.Stringer("program", programID),
		zap.Uint64("slot", b.slot),
		zap.Int("events", len(t.events)),
	)
	return t.events, nil
}

func (b *Bank) begin(programID solana.PublicKey, metas []*solana.AccountMeta, signers []solana.PublicKey) *txn {
	t := &txn{
		programID: programID,
		signers:   make(map[solana.PublicKey]bool, len(signers)),
		byKey:     make(map[solana.PublicKey]*entry, len(metas)),
	}
	for _, s := range signers {
		t.signers[s] = true
	}

	for _, meta := range metas {
		e, ok := t.byKey[meta.PublicKey]
		if !ok {
			e = &entry{info: &swap.AccountInfo{Key: meta.PublicKey, Owner: solana.SystemProgramID}}
			if acc, found := b.accounts[meta.PublicKey]; found {
				e.info.Owner = acc.Owner
				e.info.Data = bytes.Clone(acc.Data)
				e.origOwner = acc.Owner
				e.origData = acc.Data
				e.exists = true
			} else {
				e.origOwner = solana.SystemProgramID
			}
			t.byKey[meta.PublicKey] = e
			t.order = append(t.order, e)
		}
		if meta.IsWritable {
			e.info.IsWritable = true
		}
		if meta.IsSigner && t.signers[meta.PublicKey] {
			e.info.IsSigner = true
		}
		t.infos = append(t.infos, e.info)
	}
	return t
}

func (b *Bank) commit(t *txn) error {
	for _, e := range t.order {
		if e.info.IsWritable {
			continue
		}
		if !e.info.Owner.Equals(e.origOwner) || !bytes.Equal(e.info.Data, e.origData) {
			return fmt.Errorf("%w: %s", ErrReadonlyModified, e.info.Key)
		}
	}

	for _, e := range t.order {
		if !e.info.IsWritable {
			continue
		}
		if !e.exists && len(e.info.Data) == 0 {
			continue
		}
		b.accounts[e.info.Key] = &Account{Owner: e.info.Owner, Data: bytes.Clone(e.info.Data)}
	}
	b.slot++
	return nil
}
