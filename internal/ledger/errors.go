package ledger

import "errors"

var (
	ErrAccountAlreadyInUse = errors.New("account already in use")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidTokenAccount = errors.New("invalid token account")
	ErrMintMismatch        = errors.New("mint mismatch")
	ErrOwnerMismatch       = errors.New("owner mismatch")
	ErrReadonlyModified    = errors.New("readonly account modified")
	ErrUnknownProgram      = errors.New("unknown program")
	ErrMissingSigner       = errors.New("missing signer")
	ErrInvalidSeeds        = errors.New("invalid program address seeds")
	ErrAmountOverflow      = errors.New("amount overflow")
)
