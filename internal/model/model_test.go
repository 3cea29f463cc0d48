package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestJournalEntryJSONRoundTrip(t *testing.T) {
	original := JournalEntry{
		Seq:       7,
		Kind:      KindInstruction,
		Slot:      3,
		Timestamp: 1700000000,
		ProgramID: "11111111111111111111111111111111",
		Accounts: []AccountMeta{
			{Pubkey: "Owner1111111111111111111111111111111111111", Signer: true},
			{Pubkey: "Pool11111111111111111111111111111111111111", Writable: true},
		},
		Data:    "2VfUX",
		Signers: []string{"Owner1111111111111111111111111111111111111"},
		Events: []PoolEvent{{
			Seq:      7,
			Op:       "swap",
			Pool:     "Pool11111111111111111111111111111111111111",
			InSide:   "A",
			AmountIn: 100_000,
			BalanceA: 1_098_000,
			BalanceB: 911_658,
		}},
		RecordedAt: "2024-01-01T00:00:00Z",
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded JournalEntry
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}

func TestPoolEventKeepsBalances(t *testing.T) {
	data, err := json.Marshal(PoolEvent{Op: "withdraw", Pool: "p"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{"balance_a", "balance_b", "lp_supply"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("%s should always be present", key)
		}
	}
	if _, ok := decoded["amount_in"]; ok {
		t.Fatalf("amount_in should be omitted when zero")
	}
}

func TestPoolEventLargeAmounts(t *testing.T) {
	original := PoolEvent{AmountIn: ^uint64(0), LPSupply: 1<<63 + 1}
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded PoolEvent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded != original {
		t.Fatalf("large amounts lost precision: %+v", decoded)
	}
}
