package swap

import "errors"

// Instruction failures. Every one of them aborts the instruction; nothing is
// retried and no state is written.
var (
	ErrInvalidInstructionData   = errors.New("invalid instruction data")
	ErrInvalidAccountData       = errors.New("invalid account data")
	ErrMissingRequiredSignature = errors.New("missing required signature")
	ErrIllegalOwner             = errors.New("illegal owner")
	ErrNotEnoughAccountKeys     = errors.New("not enough account keys")
)
