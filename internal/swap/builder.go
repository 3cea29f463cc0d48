package swap

import (
	"github.com/gagliardetto/solana-go"
)

// DepositAccounts lists the accounts of a Deposit instruction.
type DepositAccounts struct {
	Owner   solana.PublicKey
	Pool    solana.PublicKey
	SourceA solana.PublicKey
	VaultA  solana.PublicKey
	SourceB solana.PublicKey
	VaultB  solana.PublicKey
	LPMint  solana.PublicKey
	DestLP  solana.PublicKey
}

// SwapAccounts lists the accounts of a Swap instruction. InVault and OutVault
// are the pool vaults of the input and output side.
type SwapAccounts struct {
	Owner    solana.PublicKey
	Pool     solana.PublicKey
	InSource solana.PublicKey
	InVault  solana.PublicKey
	OutVault solana.PublicKey
	OutDest  solana.PublicKey
}

// WithdrawAccounts lists the accounts of a Withdraw instruction.
type WithdrawAccounts struct {
	Owner    solana.PublicKey
	Pool     solana.PublicKey
	VaultA   solana.PublicKey
	DestA    solana.PublicKey
	VaultB   solana.PublicKey
	DestB    solana.PublicKey
	LPMint   solana.PublicKey
	SourceLP solana.PublicKey
}

// NewCreatePoolInstruction builds a CreatePool instruction, deriving the pool
// record, vaults and LP mint from args.Seed.
func NewCreatePoolInstruction(programID, payer, mintA, mintB solana.PublicKey, args CreatePool) (solana.Instruction, error) {
	addrs, err := DerivePoolAddresses(programID, args.Seed)
	if err != nil {
		return nil, err
	}
	return newInstruction(programID, args, solana.AccountMetaSlice{
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(addrs.Pool).WRITE(),
		solana.Meta(mintA),
		solana.Meta(addrs.VaultA).WRITE(),
		solana.Meta(mintB),
		solana.Meta(addrs.VaultB).WRITE(),
		solana.Meta(addrs.LPMint).WRITE(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SystemProgramID),
	})
}

// NewDepositInstruction builds a Deposit instruction. The pool record is
// writable because the deposit updates its balances.
func NewDepositInstruction(programID solana.PublicKey, accts DepositAccounts, args Deposit) (solana.Instruction, error) {
	return newInstruction(programID, args, solana.AccountMetaSlice{
		solana.Meta(accts.Owner).WRITE().SIGNER(),
		solana.Meta(accts.Pool).WRITE(),
		solana.Meta(accts.SourceA).WRITE(),
		solana.Meta(accts.VaultA).WRITE(),
		solana.Meta(accts.SourceB).WRITE(),
		solana.Meta(accts.VaultB).WRITE(),
		solana.Meta(accts.LPMint).WRITE(),
		solana.Meta(accts.DestLP).WRITE(),
		solana.Meta(solana.TokenProgramID),
	})
}

// NewSwapInstruction builds a Swap instruction.
func NewSwapInstruction(programID solana.PublicKey, accts SwapAccounts, args Swap) (solana.Instruction, error) {
	return newInstruction(programID, args, solana.AccountMetaSlice{
		solana.Meta(accts.Owner).WRITE().SIGNER(),
		solana.Meta(accts.Pool).WRITE(),
		solana.Meta(accts.InSource).WRITE(),
		solana.Meta(accts.InVault).WRITE(),
		solana.Meta(accts.OutVault).WRITE(),
		solana.Meta(accts.OutDest).WRITE(),
		solana.Meta(solana.TokenProgramID),
	})
}

// NewWithdrawInstruction builds a Withdraw instruction.
func NewWithdrawInstruction(programID solana.PublicKey, accts WithdrawAccounts, args Withdraw) (solana.Instruction, error) {
	return newInstruction(programID, args, solana.AccountMetaSlice{
		solana.Meta(accts.Owner).WRITE().SIGNER(),
		solana.Meta(accts.Pool).WRITE(),
		solana.Meta(accts.VaultA).WRITE(),
		solana.Meta(accts.DestA).WRITE(),
		solana.Meta(accts.VaultB).WRITE(),
		solana.Meta(accts.DestB).WRITE(),
		solana.Meta(accts.LPMint).WRITE(),
		solana.Meta(accts.SourceLP).WRITE(),
		solana.Meta(solana.TokenProgramID),
	})
}

func newInstruction(programID solana.PublicKey, ix Instruction, accounts solana.AccountMetaSlice) (solana.Instruction, error) {
	data, err := EncodeInstruction(ix)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(programID, accounts, data), nil
}
