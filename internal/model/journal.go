package model

import "encoding/json"

// Journal entry kinds. Only KindInstruction runs a program; the others are
// host-level token operations needed to rebuild the ledger on replay.
const (
	KindInstruction        = "instruction"
	KindCreateMint         = "create_mint"
	KindCreateTokenAccount = "create_token_account"
	KindMintTo             = "mint_to"
)

// AccountMeta is one entry of an instruction account list.
type AccountMeta struct {
	Pubkey   string `json:"pubkey"`
	Signer   bool   `json:"signer"`
	Writable bool   `json:"writable"`
}

// JournalEntry is one committed ledger operation. Data holds the base58
// instruction bytes.
type JournalEntry struct {
	Seq        uint64        `json:"seq"`
	Kind       string        `json:"kind"`
	Slot       uint64        `json:"slot"`
	Timestamp  uint64        `json:"timestamp"`
	ProgramID  string        `json:"program_id,omitempty"`
	Accounts   []AccountMeta `json:"accounts,omitempty"`
	Data       string        `json:"data,omitempty"`
	Signers    []string      `json:"signers,omitempty"`
	Mint       string        `json:"mint,omitempty"`
	Owner      string        `json:"owner,omitempty"`
	Account    string        `json:"account,omitempty"`
	Amount     uint64        `json:"amount,omitempty"`
	Decimals   uint8         `json:"decimals,omitempty"`
	Events     []PoolEvent   `json:"events,omitempty"`
	RecordedAt string        `json:"recorded_at"`
}

// MarshalJSON ensures JournalEntry is encoded with stable field names.
func (e JournalEntry) MarshalJSON() ([]byte, error) {
	type Alias JournalEntry
	return json.Marshal(Alias(e))
}

// UnmarshalJSON decodes a JournalEntry from JSON.
func (e *JournalEntry) UnmarshalJSON(data []byte) error {
	type Alias JournalEntry
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = JournalEntry(a)
	return nil
}
