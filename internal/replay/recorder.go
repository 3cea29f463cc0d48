package replay

import (
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"hodor/internal/ledger"
	"hodor/internal/model"
	"hodor/internal/storage"
	"hodor/internal/swap"
)

// ErrJournal marks an operation that was applied to the ledger but could not
// be journaled. The ledger is then ahead of the journal.
var ErrJournal = errors.New("journal append failed")

// Recorder applies operations to a ledger and appends every committed one
// to a journal. A nil journal disables recording.
type Recorder struct {
	bank    *ledger.Bank
	journal *storage.Journal
	seq     uint64
	now     func() time.Time
}

// NewRecorder continues the sequence of an existing journal.
func NewRecorder(bank *ledger.Bank, journal *storage.Journal) (*Recorder, error) {
	r := &Recorder{bank: bank, journal: journal, now: time.Now}
	if journal != nil {
		last, err := journal.LastSeq()
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		r.seq = last
	}
	return r, nil
}

// Bank returns the ledger the recorder writes to.
func (r *Recorder) Bank() *ledger.Bank {
	return r.bank
}

// Execute runs ix on the ledger and journals it when it commits.
func (r *Recorder) Execute(ix solana.Instruction, signers ...solana.PublicKey) ([]swap.Event, error) {
	events, err := r.bank.Execute(ix, signers...)
	if err != nil {
		return nil, err
	}
	fillLPSupply(r.bank, events)
	entry, err := BuildInstructionEntry(r.bank.Slot(), r.now(), ix, signers, events)
	if err != nil {
		return events, fmt.Errorf("%w: %v", ErrJournal, err)
	}
	return events, r.append(entry)
}

// CreateMint creates a mint and journals it.
func (r *Recorder) CreateMint(mint, authority solana.PublicKey, decimals uint8) error {
	if err := r.bank.CreateMint(mint, authority, decimals); err != nil {
		return err
	}
	return r.append(model.JournalEntry{
		Kind:     model.KindCreateMint,
		Mint:     mint.String(),
		Owner:    authority.String(),
		Decimals: decimals,
	})
}

// CreateAssociatedTokenAccount returns owner's associated account for mint,
// creating and journaling it when it does not exist yet.
func (r *Recorder) CreateAssociatedTokenAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	key, err := ledger.AssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	_, existed := r.bank.Account(key)
	if _, err := r.bank.CreateAssociatedTokenAccount(owner, mint); err != nil {
		return solana.PublicKey{}, err
	}
	if existed {
		return key, nil
	}
	return key, r.append(model.JournalEntry{
		Kind:    model.KindCreateTokenAccount,
		Account: key.String(),
		Mint:    mint.String(),
		Owner:   owner.String(),
	})
}

// MintTo mints amount into dst and journals it.
func (r *Recorder) MintTo(mint, dst, authority solana.PublicKey, amount uint64) error {
	if err := r.bank.MintTo(mint, dst, authority, amount); err != nil {
		return err
	}
	return r.append(model.JournalEntry{
		Kind:    model.KindMintTo,
		Mint:    mint.String(),
		Account: dst.String(),
		Owner:   authority.String(),
		Amount:  amount,
	})
}

func (r *Recorder) append(entry model.JournalEntry) error {
	if r.journal == nil {
		return nil
	}
	now := r.now()
	if entry.Timestamp == 0 {
		entry.Timestamp = uint64(now.Unix())
		entry.Slot = r.bank.Slot()
		entry.RecordedAt = now.UTC().Format(time.RFC3339Nano)
	}
	SetSeq(&entry, r.seq+1)
	if err := r.journal.Append(entry); err != nil {
		return fmt.Errorf("%w: %v", ErrJournal, err)
	}
	r.seq++
	return nil
}
