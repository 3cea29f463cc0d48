package replay

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"hodor/internal/model"
	"hodor/internal/swap"
)

// BuildPoolEvent converts a program event into its JSON record.
func BuildPoolEvent(seq, slot, timestamp uint64, ev swap.Event) model.PoolEvent {
	record := model.PoolEvent{
		Seq:        seq,
		Slot:       slot,
		Timestamp:  timestamp,
		Op:         ev.Op.String(),
		Pool:       ev.Pool.String(),
		Owner:      ev.Owner.String(),
		AmountIn:   ev.AmountIn,
		AmountOut:  ev.AmountOut,
		AmountA:    ev.AmountA,
		AmountB:    ev.AmountB,
		LPAmount:   ev.LPAmount,
		DAOFee:     ev.DAOFee,
		LPFee:      ev.LPFee,
		CreatorFee: ev.CreatorFee,
		BalanceA:   ev.BalanceA,
		BalanceB:   ev.BalanceB,
		LPSupply:   ev.LPSupply,
	}
	if ev.Op == swap.OpSwap {
		record.InSide = ev.InSide.String()
	}
	return record
}

// BuildInstructionEntry records an executed instruction and its events.
// The caller assigns Seq before appending it to the journal.
func BuildInstructionEntry(slot uint64, now time.Time, ix solana.Instruction, signers []solana.PublicKey, events []swap.Event) (model.JournalEntry, error) {
	data, err := ix.Data()
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("instruction data: %w", err)
	}

	entry := model.JournalEntry{
		Kind:       model.KindInstruction,
		Slot:       slot,
		Timestamp:  uint64(now.Unix()),
		ProgramID:  ix.ProgramID().String(),
		Data:       base58.Encode(data),
		RecordedAt: now.UTC().Format(time.RFC3339Nano),
	}
	for _, meta := range ix.Accounts() {
		entry.Accounts = append(entry.Accounts, model.AccountMeta{
			Pubkey:   meta.PublicKey.String(),
			Signer:   meta.IsSigner,
			Writable: meta.IsWritable,
		})
	}
	for _, s := range signers {
		entry.Signers = append(entry.Signers, s.String())
	}
	for _, ev := range events {
		entry.Events = append(entry.Events, BuildPoolEvent(0, slot, entry.Timestamp, ev))
	}
	return entry, nil
}

// SetSeq assigns the journal sequence to the entry and its events.
func SetSeq(entry *model.JournalEntry, seq uint64) {
	entry.Seq = seq
	for i := range entry.Events {
		entry.Events[i].Seq = seq
	}
}

// decodeInstruction rebuilds the instruction and signer set of a journal
// entry.
func decodeInstruction(entry model.JournalEntry) (solana.Instruction, []solana.PublicKey, error) {
	programID, err := solana.PublicKeyFromBase58(entry.ProgramID)
	if err != nil {
		return nil, nil, fmt.Errorf("program id: %w", err)
	}
	data, err := base58.Decode(entry.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("data: %w", err)
	}

	metas := make(solana.AccountMetaSlice, 0, len(entry.Accounts))
	for i, acc := range entry.Accounts {
		key, err := solana.PublicKeyFromBase58(acc.Pubkey)
		if err != nil {
			return nil, nil, fmt.Errorf("account %d: %w", i, err)
		}
		metas = append(metas, solana.NewAccountMeta(key, acc.Writable, acc.Signer))
	}

	signers, err := parseKeys(entry.Signers)
	if err != nil {
		return nil, nil, fmt.Errorf("signers: %w", err)
	}
	return solana.NewInstruction(programID, metas, data), signers, nil
}
