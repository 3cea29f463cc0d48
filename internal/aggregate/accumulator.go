package aggregate

import (
	"fmt"
	"math/big"

	"hodor/internal/model"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	PoolAddress   string
	WindowStart   uint64
	WindowEnd     uint64
	SwapCount     uint64
	DepositCount  uint64
	WithdrawCount uint64
	Volume        [2]*big.Int
	LPFee         [2]*big.Int
	DAOFee        [2]*big.Int
	CreatorFee    [2]*big.Int
	BalanceA      uint64
	BalanceB      uint64
	LPSupply      uint64
	HasLPSupply   bool
	FirstSeq      uint64
	LastSeq       uint64

	lpSupplySeq uint64
}

func NewAccumulator(record model.PoolEvent, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		PoolAddress: record.Pool,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Volume:      [2]*big.Int{big.NewInt(0), big.NewInt(0)},
		LPFee:       [2]*big.Int{big.NewInt(0), big.NewInt(0)},
		DAOFee:      [2]*big.Int{big.NewInt(0), big.NewInt(0)},
		CreatorFee:  [2]*big.Int{big.NewInt(0), big.NewInt(0)},
		FirstSeq:    record.Seq,
		LastSeq:     record.Seq,
	}
}

// AddEvent folds one event into the window. Balances and LP supply track
// the latest event by sequence. A swap never changes the LP supply, so a
// swap event only sets it when it carries one.
func (a *Accumulator) AddEvent(record model.PoolEvent) error {
	switch record.Op {
	case "swap":
		side, err := sideIndex(record.InSide)
		if err != nil {
			return err
		}
		addUint(a.Volume[side], record.AmountIn)
		addUint(a.LPFee[side], record.LPFee)
		addUint(a.DAOFee[side], record.DAOFee)
		addUint(a.CreatorFee[side], record.CreatorFee)
		a.SwapCount++
	case "deposit":
		a.DepositCount++
	case "withdraw":
		a.WithdrawCount++
	case "create_pool":
	default:
		return fmt.Errorf("unknown op %q", record.Op)
	}

	if record.Seq >= a.LastSeq {
		a.LastSeq = record.Seq
		a.BalanceA = record.BalanceA
		a.BalanceB = record.BalanceB
	}
	if carriesLPSupply(record) && (!a.HasLPSupply || record.Seq >= a.lpSupplySeq) {
		a.lpSupplySeq = record.Seq
		a.LPSupply = record.LPSupply
		a.HasLPSupply = true
	}
	if record.Seq < a.FirstSeq {
		a.FirstSeq = record.Seq
	}
	return nil
}

// carriesLPSupply reports whether the event's LPSupply is meaningful.
// Swap events written before the supply was filled in hold zero.
func carriesLPSupply(record model.PoolEvent) bool {
	return record.Op != "swap" || record.LPSupply > 0
}

func sideIndex(side string) (int, error) {
	switch side {
	case "A":
		return 0, nil
	case "B":
		return 1, nil
	}
	return 0, fmt.Errorf("invalid swap side %q", side)
}

func addUint(target *big.Int, value uint64) {
	if target == nil || value == 0 {
		return
	}
	target.Add(target, new(big.Int).SetUint64(value))
}
