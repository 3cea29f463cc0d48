package swap

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// ModuleTag is the leading byte of every swap instruction.
const ModuleTag uint8 = 1

// Op selects a swap operation. It is the second byte of the instruction.
type Op uint8

const (
	OpCreatePool Op = 0
	OpSwap       Op = 1
	OpDeposit    Op = 2
	OpWithdraw   Op = 3
)

func (o Op) String() string {
	switch o {
	case OpCreatePool:
		return "create_pool"
	case OpSwap:
		return "swap"
	case OpDeposit:
		return "deposit"
	case OpWithdraw:
		return "withdraw"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// Instruction is one of CreatePool, Swap, Deposit or Withdraw.
type Instruction interface {
	Op() Op
	encode(enc *bin.Encoder) error
}

// CreatePool creates a pool at the address derived from Seed.
//
// Accounts:
//  0. [signer] fee payer
//  1. [writable] pool record
//  2. [] mint A
//  3. [writable] vault A
//  4. [] mint B
//  5. [writable] vault B
//  6. [writable] LP mint
//  7. [] token program
//  8. [] system program
type CreatePool struct {
	Seed           [32]byte
	LPFeeRate      uint32
	CreatorFeeRate uint32
}

// Swap trades InAmount of one side for at least MinOutAmount of the other.
//
// Accounts:
//  0. [signer] owner of the input source
//  1. [writable] pool record
//  2. [writable] input source
//  3. [writable] input vault
//  4. [writable] output vault
//  5. [writable] output destination
//  6. [] token program
type Swap struct {
	InAmount     uint64
	MinOutAmount uint64
}

// Deposit adds liquidity of at most MaxA/MaxB and at least MinA/MinB.
//
// Accounts:
//  0. [signer] owner of the sources
//  1. [writable] pool record
//  2. [writable] source A
//  3. [writable] vault A
//  4. [writable] source B
//  5. [writable] vault B
//  6. [writable] LP mint
//  7. [writable] LP destination
//  8. [] token program
type Deposit struct {
	MinA uint64
	MaxA uint64
	MinB uint64
	MaxB uint64
}

// Withdraw burns LPAmount pool tokens for at least MinA/MinB.
//
// Accounts:
//  0. [signer] owner of the LP source
//  1. [writable] pool record
//  2. [writable] vault A
//  3. [writable] destination A
//  4. [writable] vault B
//  5. [writable] destination B
//  6. [writable] LP mint
//  7. [writable] LP source
//  8. [] token program
type Withdraw struct {
	LPAmount uint64
	MinA     uint64
	MinB     uint64
}

func (CreatePool) Op() Op { return OpCreatePool }
func (Swap) Op() Op       { return OpSwap }
func (Deposit) Op() Op    { return OpDeposit }
func (Withdraw) Op() Op   { return OpWithdraw }

func (ix CreatePool) encode(enc *bin.Encoder) error {
	if err := enc.WriteBytes(ix.Seed[:], false); err != nil {
		return err
	}
	if err := enc.WriteUint32(ix.LPFeeRate, binary.LittleEndian); err != nil {
		return err
	}
	return enc.WriteUint32(ix.CreatorFeeRate, binary.LittleEndian)
}

func (ix Swap) encode(enc *bin.Encoder) error {
	return writeUint64s(enc, ix.InAmount, ix.MinOutAmount)
}

func (ix Deposit) encode(enc *bin.Encoder) error {
	return writeUint64s(enc, ix.MinA, ix.MaxA, ix.MinB, ix.MaxB)
}

func (ix Withdraw) encode(enc *bin.Encoder) error {
	return writeUint64s(enc, ix.LPAmount, ix.MinA, ix.MinB)
}

func writeUint64s(enc *bin.Encoder, values ...uint64) error {
	for _, v := range values {
		if err := enc.WriteUint64(v, binary.LittleEndian); err != nil {
			return err
		}
	}
	return nil
}

// EncodeInstruction serializes ix as [module tag][op][payload].
func EncodeInstruction(ix Instruction) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)

	if err := enc.WriteUint8(ModuleTag); err != nil {
		return nil, fmt.Errorf("write module tag: %w", err)
	}
	if err := enc.WriteUint8(uint8(ix.Op())); err != nil {
		return nil, fmt.Errorf("write op: %w", err)
	}
	if err := ix.encode(enc); err != nil {
		return nil, fmt.Errorf("encode %s: %w", ix.Op(), err)
	}
	return buf.Bytes(), nil
}

// DecodeInstruction parses data produced by EncodeInstruction. Bytes past the
// payload are ignored.
func DecodeInstruction(data []byte) (Instruction, error) {
	r := payloadReader{dec: bin.NewBinDecoder(data)}

	module := r.uint8()
	op := Op(r.uint8())
	if r.err != nil {
		return nil, fmt.Errorf("%w: missing tag", ErrInvalidInstructionData)
	}
	if module != ModuleTag {
		return nil, fmt.Errorf("%w: module tag %d", ErrInvalidInstructionData, module)
	}

	var ix Instruction
	switch op {
	case OpCreatePool:
		var c CreatePool
		copy(c.Seed[:], r.bytes(32))
		c.LPFeeRate = r.uint32()
		c.CreatorFeeRate = r.uint32()
		ix = c
	case OpSwap:
		ix = Swap{InAmount: r.uint64(), MinOutAmount: r.uint64()}
	case OpDeposit:
		ix = Deposit{MinA: r.uint64(), MaxA: r.uint64(), MinB: r.uint64(), MaxB: r.uint64()}
	case OpWithdraw:
		ix = Withdraw{LPAmount: r.uint64(), MinA: r.uint64(), MinB: r.uint64()}
	default:
		return nil, fmt.Errorf("%w: unknown op %d", ErrInvalidInstructionData, uint8(op))
	}
	if r.err != nil {
		return nil, fmt.Errorf("%w: %s payload: %v", ErrInvalidInstructionData, op, r.err)
	}
	return ix, nil
}

// payloadReader keeps the first decode error so field reads can be chained.
type payloadReader struct {
	dec *bin.Decoder
	err error
}

func (r *payloadReader) uint8() uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint8()
	r.err = err
	return v
}

func (r *payloadReader) uint32() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint32(binary.LittleEndian)
	r.err = err
	return v
}

func (r *payloadReader) uint64() uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint64(binary.LittleEndian)
	r.err = err
	return v
}

func (r *payloadReader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	v, err := r.dec.ReadNBytes(n)
	r.err = err
	return v
}
