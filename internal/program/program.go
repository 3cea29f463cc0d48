// Package program is the entry point of the on-ledger program. It routes each
// instruction to a module by its leading tag.
package program

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"hodor/internal/swap"
)

// Program multiplexes instruction modules.
type Program struct {
	swap *swap.Processor
}

func New(cfg swap.Config, logger *zap.Logger) *Program {
	return &Program{swap: swap.NewProcessor(cfg, logger)}
}

// Process implements ledger.Program.
func (p *Program) Process(rt swap.Runtime, programID solana.PublicKey, accounts []*swap.AccountInfo, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty instruction", swap.ErrInvalidInstructionData)
	}

	switch data[0] {
	case swap.ModuleTag:
		return p.swap.Process(rt, programID, accounts, data)
	default:
		return fmt.Errorf("%w: unknown module %d", swap.ErrInvalidInstructionData, data[0])
	}
}

// SwapConfig returns the parameters of the swap module.
func (p *Program) SwapConfig() swap.Config {
	return p.swap.Config()
}
