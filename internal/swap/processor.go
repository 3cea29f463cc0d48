package swap

import (
	"fmt"

	gethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Config holds the parameters that are not stored in the pool record.
type Config struct {
	// DAOFeeRate is the protocol fee charged on every swap, in
	// FeeRateBaseDivider units.
	DAOFeeRate        uint32
	LPDecimals        uint8
	BootstrapLPAmount uint64
}

// DefaultConfig charges a 0.1% protocol fee and mints 6-decimal LP tokens.
func DefaultConfig() Config {
	return Config{
		DAOFeeRate:        100_000,
		LPDecimals:        6,
		BootstrapLPAmount: BootstrapLPAmount,
	}
}

// Processor executes swap instructions against a Runtime.
type Processor struct {
	cfg    Config
	logger *zap.Logger
}

func NewProcessor(cfg Config, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BootstrapLPAmount == 0 {
		cfg.BootstrapLPAmount = BootstrapLPAmount
	}
	return &Processor{cfg: cfg, logger: logger.Named("swap")}
}

// Config returns the processor parameters.
func (p *Processor) Config() Config {
	return p.cfg
}

// Process decodes data and runs the instruction. On error the caller must
// discard every change made through rt and to the account data.
func (p *Processor) Process(rt Runtime, programID solana.PublicKey, accounts []*AccountInfo, data []byte) error {
	ix, err := DecodeInstruction(data)
	if err != nil {
		return err
	}

	p.logger.Debug(ix.Op().String(), zap.Int("accounts", len(accounts)))

	it := &accountIter{accounts: accounts}
	switch ix := ix.(type) {
	case CreatePool:
		return p.createPool(rt, programID, it, ix)
	case Deposit:
		return p.deposit(rt, programID, it, ix)
	case Swap:
		return p.swap(rt, programID, it, ix)
	case Withdraw:
		return p.withdraw(rt, programID, it, ix)
	default:
		return fmt.Errorf("%w: unsupported op %s", ErrInvalidInstructionData, ix.Op())
	}
}

type accountIter struct {
	accounts []*AccountInfo
	pos      int
}

func (it *accountIter) next() (*AccountInfo, error) {
	if it.pos >= len(it.accounts) {
		return nil, ErrNotEnoughAccountKeys
	}
	info := it.accounts[it.pos]
	it.pos++
	return info, nil
}

func (it *accountIter) take(dst ...**AccountInfo) error {
	for _, d := range dst {
		info, err := it.next()
		if err != nil {
			return err
		}
		*d = info
	}
	return nil
}

func (p *Processor) createPool(rt Runtime, programID solana.PublicKey, it *accountIter, ix CreatePool) error {
	var payerInfo, poolInfo, mintAInfo, vaultAInfo, mintBInfo, vaultBInfo, lpMintInfo, tokenProgram, systemProgram *AccountInfo
	if err := it.take(&payerInfo, &poolInfo, &mintAInfo, &vaultAInfo, &mintBInfo, &vaultBInfo, &lpMintInfo, &tokenProgram, &systemProgram); err != nil {
		return err
	}

	payer, err := SignerAuthority(payerInfo)
	if err != nil {
		return err
	}
	if err := checkTokenProgram(tokenProgram); err != nil {
		return err
	}
	if !systemProgram.Key.Equals(solana.SystemProgramID) {
		return fmt.Errorf("%w: system program %s", ErrInvalidAccountData, systemProgram.Key)
	}
	if mintAInfo.Key.Equals(mintBInfo.Key) {
		return fmt.Errorf("%w: pool mints must differ", ErrInvalidAccountData)
	}

	addrs, err := DerivePoolAddresses(programID, ix.Seed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	for _, want := range []struct {
		name string
		info *AccountInfo
		key  solana.PublicKey
	}{
		{"pool", poolInfo, addrs.Pool},
		{"vault a", vaultAInfo, addrs.VaultA},
		{"vault b", vaultBInfo, addrs.VaultB},
		{"lp mint", lpMintInfo, addrs.LPMint},
	} {
		if !want.info.Key.Equals(want.key) {
			return fmt.Errorf("%w: %s is %s, derived %s", ErrInvalidAccountData, want.name, want.info.Key, want.key)
		}
	}

	if err := rt.CreateTokenAccount(payer, vaultAInfo, mintAInfo, addrs.Pool); err != nil {
		return fmt.Errorf("create vault a: %w", err)
	}
	if err := rt.CreateTokenAccount(payer, vaultBInfo, mintBInfo, addrs.Pool); err != nil {
		return fmt.Errorf("create vault b: %w", err)
	}
	if err := rt.CreateMint(payer, lpMintInfo, addrs.Pool, p.cfg.LPDecimals); err != nil {
		return fmt.Errorf("create lp mint: %w", err)
	}

	pool := &Pool{
		Seed:          ix.Seed,
		TokenAccountA: addrs.VaultA,
		TokenAccountB: addrs.VaultB,
		LPMint:        addrs.LPMint,
		LPFeeRate:     ix.LPFeeRate,
	}
	if ix.CreatorFeeRate > 0 {
		pool.CreatorFee = &CreatorFee{Rate: ix.CreatorFeeRate, WithdrawAuthority: payer.Key()}
	}

	if err := rt.CreateAccount(payer, poolInfo, pool.Size(), programID); err != nil {
		return fmt.Errorf("create pool record: %w", err)
	}
	if err := pool.Encode(poolInfo.Data); err != nil {
		return err
	}

	p.logger.Info("pool created",
		zap.Stringer("pool", addrs.Pool),
		zap.Stringer("mint_a", mintAInfo.Key),
		zap.Stringer("mint_b", mintBInfo.Key),
		zap.Uint32("lp_fee_rate", ix.LPFeeRate),
		zap.Uint32("creator_fee_rate", ix.CreatorFeeRate),
	)
	rt.Emit(Event{Op: OpCreatePool, Pool: addrs.Pool, Owner: payer.Key()})
	return nil
}

func (p *Processor) deposit(rt Runtime, programID solana.PublicKey, it *accountIter, ix Deposit) error {
	var ownerInfo, poolInfo, sourceA, vaultA, sourceB, vaultB, lpMint, destLP, tokenProgram *AccountInfo
	if err := it.take(&ownerInfo, &poolInfo, &sourceA, &vaultA, &sourceB, &vaultB, &lpMint, &destLP, &tokenProgram); err != nil {
		return err
	}

	owner, err := SignerAuthority(ownerInfo)
	if err != nil {
		return err
	}
	pool, authority, err := loadPool(programID, poolInfo)
	if err != nil {
		return err
	}
	if err := pool.checkAccounts(vaultA, vaultB, lpMint); err != nil {
		return err
	}
	if err := checkTokenProgram(tokenProgram); err != nil {
		return err
	}

	supply, err := rt.MintSupply(lpMint)
	if err != nil {
		return err
	}
	if supply == 0 && (ix.MaxA == 0 || ix.MaxB == 0) {
		return fmt.Errorf("%w: first deposit needs both sides", ErrInvalidInstructionData)
	}
	amounts, ok := calculateDepositAmounts(pool.BalanceA, pool.BalanceB, supply, ix.MaxA, ix.MaxB, p.cfg.BootstrapLPAmount)
	if !ok {
		return fmt.Errorf("%w: deposit amounts", ErrInvalidInstructionData)
	}
	if amounts.A < ix.MinA || amounts.B < ix.MinB {
		p.logger.Warn("deposit below minimum",
			zap.Stringer("pool", poolInfo.Key),
			zap.Uint64("amount_a", amounts.A),
			zap.Uint64("min_a", ix.MinA),
			zap.Uint64("amount_b", amounts.B),
			zap.Uint64("min_b", ix.MinB),
		)
		return fmt.Errorf("%w: deposit slippage", ErrInvalidInstructionData)
	}

	if err := rt.Transfer(sourceA, vaultA, owner, amounts.A); err != nil {
		return fmt.Errorf("transfer a: %w", err)
	}
	if err := rt.Transfer(sourceB, vaultB, owner, amounts.B); err != nil {
		return fmt.Errorf("transfer b: %w", err)
	}
	if err := rt.MintTo(lpMint, destLP, authority, amounts.LPMinted); err != nil {
		return fmt.Errorf("mint lp: %w", err)
	}

	if pool.BalanceA, err = addBalance(pool.BalanceA, amounts.A); err != nil {
		return err
	}
	if pool.BalanceB, err = addBalance(pool.BalanceB, amounts.B); err != nil {
		return err
	}
	if err := pool.Encode(poolInfo.Data); err != nil {
		return err
	}

	rt.Emit(Event{
		Op:       OpDeposit,
		Pool:     poolInfo.Key,
		Owner:    owner.Key(),
		AmountA:  amounts.A,
		AmountB:  amounts.B,
		LPAmount: amounts.LPMinted,
		BalanceA: pool.BalanceA,
		BalanceB: pool.BalanceB,
		LPSupply: supply + amounts.LPMinted,
	})
	return nil
}

func (p *Processor) swap(rt Runtime, programID solana.PublicKey, it *accountIter, ix Swap) error {
	var ownerInfo, poolInfo, inSource, inVault, outVault, outDest, tokenProgram *AccountInfo
	if err := it.take(&ownerInfo, &poolInfo, &inSource, &inVault, &outVault, &outDest, &tokenProgram); err != nil {
		return err
	}

	owner, err := SignerAuthority(ownerInfo)
	if err != nil {
		return err
	}
	pool, authority, err := loadPool(programID, poolInfo)
	if err != nil {
		return err
	}
	if err := checkTokenProgram(tokenProgram); err != nil {
		return err
	}

	var in Side
	switch {
	case inVault.Key.Equals(pool.TokenAccountA) && outVault.Key.Equals(pool.TokenAccountB):
		in = SideA
	case inVault.Key.Equals(pool.TokenAccountB) && outVault.Key.Equals(pool.TokenAccountA):
		in = SideB
	default:
		return fmt.Errorf("%w: swap accounts do not match pool vaults", ErrInvalidAccountData)
	}

	if pool.BalanceA == 0 || pool.BalanceB == 0 {
		return fmt.Errorf("%w: pool has no liquidity", ErrInvalidInstructionData)
	}
	amounts, ok := QuoteSwap(pool, in, ix.InAmount, p.cfg.DAOFeeRate)
	if !ok {
		return fmt.Errorf("%w: swap amounts", ErrInvalidInstructionData)
	}
	if amounts.Out < ix.MinOutAmount {
		p.logger.Warn("swap below minimum",
			zap.Stringer("pool", poolInfo.Key),
			zap.Uint64("amount_out", amounts.Out),
			zap.Uint64("min_out", ix.MinOutAmount),
		)
		return fmt.Errorf("%w: swap slippage", ErrInvalidInstructionData)
	}

	if err := rt.Transfer(inSource, inVault, owner, ix.InAmount); err != nil {
		return fmt.Errorf("transfer in: %w", err)
	}
	if err := rt.Transfer(outVault, outDest, authority, amounts.Out); err != nil {
		return fmt.Errorf("transfer out: %w", err)
	}

	// The lp fee stays in the pool; dao and creator fees leave the ledger.
	retained, err := subBalance(ix.InAmount, amounts.DAOFee)
	if err != nil {
		return err
	}
	if retained, err = subBalance(retained, amounts.CreatorFee); err != nil {
		return err
	}
	inBalance, outBalance := &pool.BalanceA, &pool.BalanceB
	if in == SideB {
		inBalance, outBalance = outBalance, inBalance
	}
	if *inBalance, err = addBalance(*inBalance, retained); err != nil {
		return err
	}
	if *outBalance, err = subBalance(*outBalance, amounts.Out); err != nil {
		return err
	}
	if cf := pool.CreatorFee; cf != nil {
		creatorBalance := &cf.BalanceA
		if in == SideB {
			creatorBalance = &cf.BalanceB
		}
		if *creatorBalance, err = addBalance(*creatorBalance, amounts.CreatorFee); err != nil {
			return err
		}
	}
	if err := pool.Encode(poolInfo.Data); err != nil {
		return err
	}

	rt.Emit(Event{
		Op:         OpSwap,
		Pool:       poolInfo.Key,
		Owner:      owner.Key(),
		InSide:     in,
		AmountIn:   ix.InAmount,
		AmountOut:  amounts.Out,
		DAOFee:     amounts.DAOFee,
		LPFee:      amounts.LPFee,
		CreatorFee: amounts.CreatorFee,
		BalanceA:   pool.BalanceA,
		BalanceB:   pool.BalanceB,
	})
	return nil
}

func (p *Processor) withdraw(rt Runtime, programID solana.PublicKey, it *accountIter, ix Withdraw) error {
	var ownerInfo, poolInfo, vaultA, destA, vaultB, destB, lpMint, sourceLP, tokenProgram *AccountInfo
	if err := it.take(&ownerInfo, &poolInfo, &vaultA, &destA, &vaultB, &destB, &lpMint, &sourceLP, &tokenProgram); err != nil {
		return err
	}

	owner, err := SignerAuthority(ownerInfo)
	if err != nil {
		return err
	}
	pool, authority, err := loadPool(programID, poolInfo)
	if err != nil {
		return err
	}
	if err := pool.checkAccounts(vaultA, vaultB, lpMint); err != nil {
		return err
	}
	if err := checkTokenProgram(tokenProgram); err != nil {
		return err
	}

	supply, err := rt.MintSupply(lpMint)
	if err != nil {
		return err
	}
	if ix.LPAmount > supply {
		return fmt.Errorf("%w: withdraw %d exceeds lp supply %d", ErrInvalidInstructionData, ix.LPAmount, supply)
	}
	amounts, ok := CalculateWithdrawAmounts(pool.BalanceA, pool.BalanceB, supply, ix.LPAmount)
	if !ok {
		return fmt.Errorf("%w: withdraw amounts", ErrInvalidInstructionData)
	}
	if amounts.A < ix.MinA || amounts.B < ix.MinB {
		p.logger.Warn("withdraw below minimum",
			zap.Stringer("pool", poolInfo.Key),
			zap.Uint64("amount_a", amounts.A),
			zap.Uint64("min_a", ix.MinA),
			zap.Uint64("amount_b", amounts.B),
			zap.Uint64("min_b", ix.MinB),
		)
		return fmt.Errorf("%w: withdraw slippage", ErrInvalidInstructionData)
	}

	if err := rt.Burn(sourceLP, lpMint, owner, ix.LPAmount); err != nil {
		return fmt.Errorf("burn lp: %w", err)
	}
	if err := rt.Transfer(vaultA, destA, authority, amounts.A); err != nil {
		return fmt.Errorf("transfer a: %w", err)
	}
	if err := rt.Transfer(vaultB, destB, authority, amounts.B); err != nil {
		return fmt.Errorf("transfer b: %w", err)
	}

	if pool.BalanceA, err = subBalance(pool.BalanceA, amounts.A); err != nil {
		return err
	}
	if pool.BalanceB, err = subBalance(pool.BalanceB, amounts.B); err != nil {
		return err
	}
	if err := pool.Encode(poolInfo.Data); err != nil {
		return err
	}

	rt.Emit(Event{
		Op:       OpWithdraw,
		Pool:     poolInfo.Key,
		Owner:    owner.Key(),
		AmountA:  amounts.A,
		AmountB:  amounts.B,
		LPAmount: ix.LPAmount,
		BalanceA: pool.BalanceA,
		BalanceB: pool.BalanceB,
		LPSupply: supply - ix.LPAmount,
	})
	return nil
}

// loadPool checks that info is a pool record of this program stored at the
// address derived from its seed, and returns the pool's signing authority.
func loadPool(programID solana.PublicKey, info *AccountInfo) (*Pool, *PoolAuthority, error) {
	if !info.Owner.Equals(programID) {
		return nil, nil, fmt.Errorf("%w: pool %s owned by %s", ErrIllegalOwner, info.Key, info.Owner)
	}
	pool, err := DecodePool(info.Data)
	if err != nil {
		return nil, nil, err
	}
	authority, err := DerivePoolAuthority(programID, pool.Seed)
	if err != nil || !authority.Key().Equals(info.Key) {
		return nil, nil, fmt.Errorf("%w: pool %s not at its seed address", ErrIllegalOwner, info.Key)
	}
	return pool, authority, nil
}

func (p *Pool) checkAccounts(vaultA, vaultB, lpMint *AccountInfo) error {
	if !vaultA.Key.Equals(p.TokenAccountA) {
		return fmt.Errorf("%w: vault a %s", ErrInvalidAccountData, vaultA.Key)
	}
	if !vaultB.Key.Equals(p.TokenAccountB) {
		return fmt.Errorf("%w: vault b %s", ErrInvalidAccountData, vaultB.Key)
	}
	if !lpMint.Key.Equals(p.LPMint) {
		return fmt.Errorf("%w: lp mint %s", ErrInvalidAccountData, lpMint.Key)
	}
	return nil
}

func checkTokenProgram(info *AccountInfo) error {
	if !info.Key.Equals(solana.TokenProgramID) {
		return fmt.Errorf("%w: token program %s", ErrInvalidAccountData, info.Key)
	}
	return nil
}

func addBalance(x, y uint64) (uint64, error) {
	sum, overflow := gethmath.SafeAdd(x, y)
	if overflow {
		return 0, fmt.Errorf("%w: balance overflow %d + %d", ErrInvalidInstructionData, x, y)
	}
	return sum, nil
}

func subBalance(x, y uint64) (uint64, error) {
	diff, overflow := gethmath.SafeSub(x, y)
	if overflow {
		return 0, fmt.Errorf("%w: balance underflow %d - %d", ErrInvalidInstructionData, x, y)
	}
	return diff, nil
}
