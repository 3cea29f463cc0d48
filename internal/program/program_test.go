package program

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"

	"hodor/internal/swap"
)

func TestProcessRejectsUnknownModule(t *testing.T) {
	p := New(swap.DefaultConfig(), nil)
	programID := solana.NewWallet().PublicKey()

	cases := map[string][]byte{
		"empty":          nil,
		"unknown module": {2, 0},
		"zero module":    {0},
		"unknown op":     {swap.ModuleTag, 9},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			err := p.Process(nil, programID, nil, data)
			assert.ErrorIs(t, err, swap.ErrInvalidInstructionData)
		})
	}
}

func TestProcessRoutesToSwap(t *testing.T) {
	p := New(swap.DefaultConfig(), nil)
	data, err := swap.EncodeInstruction(swap.Swap{InAmount: 1})
	assert.NoError(t, err)

	err = p.Process(nil, solana.NewWallet().PublicKey(), nil, data)
	assert.ErrorIs(t, err, swap.ErrNotEnoughAccountKeys)
}

func TestSwapConfig(t *testing.T) {
	cfg := swap.DefaultConfig()
	cfg.DAOFeeRate = 42
	assert.Equal(t, cfg, New(cfg, nil).SwapConfig())
}
