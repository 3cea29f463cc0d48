package replay

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"hodor/internal/model"
)

func parseKeys(values []string) ([]solana.PublicKey, error) {
	out := make([]solana.PublicKey, 0, len(values))
	for _, raw := range values {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		key, err := solana.PublicKeyFromBase58(value)
		if err != nil {
			return nil, fmt.Errorf("invalid key: %s", value)
		}
		out = append(out, key)
	}
	return out, nil
}

func parseKey(field, value string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(strings.TrimSpace(value))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%s: invalid key %q", field, value)
	}
	return key, nil
}

// validateJournal checks that sequence numbers start above zero and are
// strictly increasing.
func validateJournal(entries []model.JournalEntry) error {
	var prev uint64
	for i, entry := range entries {
		if entry.Seq == 0 {
			return fmt.Errorf("entry %d: seq must be > 0", i)
		}
		if entry.Seq <= prev {
			return fmt.Errorf("entry %d: seq %d after %d", i, entry.Seq, prev)
		}
		switch entry.Kind {
		case model.KindInstruction, model.KindCreateMint, model.KindCreateTokenAccount, model.KindMintTo:
		default:
			return fmt.Errorf("entry %d: unknown kind %q", i, entry.Kind)
		}
		prev = entry.Seq
	}
	return nil
}
