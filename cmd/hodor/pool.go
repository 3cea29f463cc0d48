package main

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hodor/internal/ledger"
	"hodor/internal/model"
	"hodor/internal/swap"
	"hodor/internal/units"
)

func newPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Create and trade against swap pools",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "create MINT-A MINT-B LP-FEE-PERCENT [CREATOR-FEE-PERCENT]",
			Short: "Create a pool for two mints",
			Args:  cobra.RangeArgs(3, 4),
			RunE:  runPoolCreate,
		},
		&cobra.Command{
			Use:   "deposit POOL AMOUNT-A AMOUNT-B",
			Short: "Deposit at most AMOUNT-A and AMOUNT-B for LP tokens",
			Args:  cobra.ExactArgs(3),
			RunE:  runPoolDeposit,
		},
		&cobra.Command{
			Use:   "swap POOL INPUT AMOUNT",
			Short: "Swap AMOUNT of INPUT (a pool mint or a token account) for the other side",
			Args:  cobra.ExactArgs(3),
			RunE:  runPoolSwap,
		},
		&cobra.Command{
			Use:   "withdraw POOL [LP-AMOUNT]",
			Short: "Burn LP tokens for the underlying balances, all of them by default",
			Args:  cobra.RangeArgs(1, 2),
			RunE:  runPoolWithdraw,
		},
		&cobra.Command{
			Use:   "info POOL",
			Short: "Print the state of a pool as JSON",
			Args:  cobra.ExactArgs(1),
			RunE:  runPoolInfo,
		},
	)
	return cmd
}

func runPoolCreate(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	payer, err := s.signer()
	if err != nil {
		return err
	}
	mintA, err := solana.PublicKeyFromBase58(args[0])
	if err != nil {
		return fmt.Errorf("invalid mint a: %w", err)
	}
	mintB, err := solana.PublicKeyFromBase58(args[1])
	if err != nil {
		return fmt.Errorf("invalid mint b: %w", err)
	}
	lpFeeRate, err := parseRate(args[2])
	if err != nil {
		return fmt.Errorf("lp fee: %w", err)
	}
	var creatorFeeRate uint32
	if len(args) > 3 {
		if creatorFeeRate, err = parseRate(args[3]); err != nil {
			return fmt.Errorf("creator fee: %w", err)
		}
	}

	seed, _, err := swap.FindPoolSeed(s.programID, rand.Reader)
	if err != nil {
		return err
	}
	ix, err := swap.NewCreatePoolInstruction(s.programID, payer, mintA, mintB, swap.CreatePool{
		Seed:           seed,
		LPFeeRate:      lpFeeRate,
		CreatorFeeRate: creatorFeeRate,
	})
	if err != nil {
		return err
	}
	if _, err := s.execute(ix, payer); err != nil {
		return fmt.Errorf("create pool: %w", err)
	}

	addrs, err := swap.DerivePoolAddresses(s.programID, seed)
	if err != nil {
		return err
	}
	return printJSON(cmd, model.Pool{
		Address:        addrs.Pool.String(),
		Seed:           base58.Encode(seed[:]),
		MintA:          mintA.String(),
		MintB:          mintB.String(),
		VaultA:         addrs.VaultA.String(),
		VaultB:         addrs.VaultB.String(),
		LPMint:         addrs.LPMint.String(),
		LPFeeRate:      lpFeeRate,
		CreatorFeeRate: creatorFeeRate,
	})
}

func runPoolDeposit(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	owner, err := s.signer()
	if err != nil {
		return err
	}
	st, err := s.loadPool(args[0])
	if err != nil {
		return err
	}
	maxA, err := units.ParseAmount(args[1], st.decA)
	if err != nil {
		return fmt.Errorf("amount a: %w", err)
	}
	maxB, err := units.ParseAmount(args[2], st.decB)
	if err != nil {
		return fmt.Errorf("amount b: %w", err)
	}

	expected := swap.DepositAmounts{A: maxA, B: maxB}
	if st.lpMint.Supply > 0 {
		var ok bool
		expected, ok = swap.CalculateDepositAmounts(st.pool.BalanceA, st.pool.BalanceB, st.lpMint.Supply, maxA, maxB)
		if !ok {
			return errors.New("deposit amounts overflow")
		}
	}

	sourceA, err := ledger.AssociatedTokenAddress(owner, st.mintA)
	if err != nil {
		return err
	}
	sourceB, err := ledger.AssociatedTokenAddress(owner, st.mintB)
	if err != nil {
		return err
	}
	destLP, err := s.rec.CreateAssociatedTokenAccount(owner, st.pool.LPMint)
	if err != nil {
		return s.journalFailure(fmt.Errorf("lp account: %w", err))
	}

	ix, err := swap.NewDepositInstruction(s.programID, swap.DepositAccounts{
		Owner:   owner,
		Pool:    st.address,
		SourceA: sourceA,
		VaultA:  st.pool.TokenAccountA,
		SourceB: sourceB,
		VaultB:  st.pool.TokenAccountB,
		LPMint:  st.pool.LPMint,
		DestLP:  destLP,
	}, swap.Deposit{
		MinA: units.MinAmount(expected.A, s.cfg.SlippageBps),
		MaxA: maxA,
		MinB: units.MinAmount(expected.B, s.cfg.SlippageBps),
		MaxB: maxB,
	})
	if err != nil {
		return err
	}
	events, err := s.execute(ix, owner)
	if err != nil {
		return fmt.Errorf("deposit: %w", err)
	}

	for _, ev := range events {
		if ev.Op != swap.OpDeposit {
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deposited %s A and %s B for %s LP\n",
			units.FormatUint(ev.AmountA, st.decA),
			units.FormatUint(ev.AmountB, st.decB),
			units.FormatUint(ev.LPAmount, st.lpMint.Decimals))
	}
	return nil
}

func runPoolSwap(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	owner, err := s.signer()
	if err != nil {
		return err
	}
	st, err := s.loadPool(args[0])
	if err != nil {
		return err
	}
	input, err := solana.PublicKeyFromBase58(args[1])
	if err != nil {
		return fmt.Errorf("invalid input %q: %w", args[1], err)
	}

	inSide, source, err := s.swapSource(st, owner, input)
	if err != nil {
		return err
	}
	outSide := inSide.Other()

	amountIn, err := units.ParseAmount(args[2], st.decimals(inSide))
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	quote, ok := swap.QuoteSwap(st.pool, inSide, amountIn, s.cfg.DAOFeeRate)
	if !ok {
		return errors.New("swap cannot be priced against the current pool balances")
	}
	minOut := units.MinAmount(quote.Out, s.cfg.SlippageBps)

	dest, err := s.rec.CreateAssociatedTokenAccount(owner, st.mint(outSide))
	if err != nil {
		return s.journalFailure(fmt.Errorf("output account: %w", err))
	}

	ix, err := swap.NewSwapInstruction(s.programID, swap.SwapAccounts{
		Owner:    owner,
		Pool:     st.address,
		InSource: source,
		InVault:  st.vault(inSide),
		OutVault: st.vault(outSide),
		OutDest:  dest,
	}, swap.Swap{InAmount: amountIn, MinOutAmount: minOut})
	if err != nil {
		return err
	}
	s.logger.Debug("swap quote",
		zap.Stringer("pool", st.address),
		zap.Stringer("in_side", inSide),
		zap.Uint64("amount_in", amountIn),
		zap.Uint64("expected_out", quote.Out),
		zap.Uint64("min_out", minOut),
	)

	events, err := s.execute(ix, owner)
	if err != nil {
		return fmt.Errorf("swap: %w", err)
	}

	for _, ev := range events {
		if ev.Op != swap.OpSwap {
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "swapped %s %s for %s %s\n",
			units.FormatUint(ev.AmountIn, st.decimals(inSide)), inSide,
			units.FormatUint(ev.AmountOut, st.decimals(outSide)), outSide)
	}
	return nil
}

// swapSource resolves the swap input, either a token account or a pool mint
// whose associated account of owner is used.
func (s *session) swapSource(st *poolState, owner, input solana.PublicKey) (swap.Side, solana.PublicKey, error) {
	if side, ok := st.side(input); ok {
		source, err := ledger.AssociatedTokenAddress(owner, input)
		return side, source, err
	}
	acc, err := s.bank.TokenAccount(input)
	if err != nil {
		return 0, solana.PublicKey{}, fmt.Errorf("input %s is neither a pool mint nor a token account: %w", input, err)
	}
	side, ok := st.side(acc.Mint)
	if !ok {
		return 0, solana.PublicKey{}, fmt.Errorf("%w: input %s holds mint %s", ledger.ErrMintMismatch, input, acc.Mint)
	}
	return side, input, nil
}

func runPoolWithdraw(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	owner, err := s.signer()
	if err != nil {
		return err
	}
	st, err := s.loadPool(args[0])
	if err != nil {
		return err
	}

	sourceLP, err := ledger.AssociatedTokenAddress(owner, st.pool.LPMint)
	if err != nil {
		return err
	}
	lpAccount, err := s.bank.TokenAccount(sourceLP)
	if err != nil {
		return fmt.Errorf("lp account: %w", err)
	}
	lpAmount := lpAccount.Amount
	if len(args) > 1 {
		if lpAmount, err = units.ParseAmount(args[1], st.lpMint.Decimals); err != nil {
			return fmt.Errorf("lp amount: %w", err)
		}
	}
	if lpAmount == 0 {
		return errors.New("nothing to withdraw")
	}

	expected, ok := swap.CalculateWithdrawAmounts(st.pool.BalanceA, st.pool.BalanceB, st.lpMint.Supply, lpAmount)
	if !ok {
		return fmt.Errorf("cannot redeem %d LP against supply %d", lpAmount, st.lpMint.Supply)
	}

	destA, err := s.rec.CreateAssociatedTokenAccount(owner, st.mintA)
	if err != nil {
		return s.journalFailure(fmt.Errorf("account a: %w", err))
	}
	destB, err := s.rec.CreateAssociatedTokenAccount(owner, st.mintB)
	if err != nil {
		return s.journalFailure(fmt.Errorf("account b: %w", err))
	}

	ix, err := swap.NewWithdrawInstruction(s.programID, swap.WithdrawAccounts{
		Owner:    owner,
		Pool:     st.address,
		VaultA:   st.pool.TokenAccountA,
		DestA:    destA,
		VaultB:   st.pool.TokenAccountB,
		DestB:    destB,
		LPMint:   st.pool.LPMint,
		SourceLP: sourceLP,
	}, swap.Withdraw{
		LPAmount: lpAmount,
		MinA:     units.MinAmount(expected.A, s.cfg.SlippageBps),
		MinB:     units.MinAmount(expected.B, s.cfg.SlippageBps),
	})
	if err != nil {
		return err
	}
	events, err := s.execute(ix, owner)
	if err != nil {
		return fmt.Errorf("withdraw: %w", err)
	}

	for _, ev := range events {
		if ev.Op != swap.OpWithdraw {
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "withdrew %s A and %s B for %s LP\n",
			units.FormatUint(ev.AmountA, st.decA),
			units.FormatUint(ev.AmountB, st.decB),
			units.FormatUint(ev.LPAmount, st.lpMint.Decimals))
	}
	return nil
}

func runPoolInfo(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	st, err := s.loadPool(args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, poolView(st, s.cfg.DAOFeeRate))
}

func poolView(st *poolState, daoFeeRate uint32) model.PoolView {
	p := st.pool
	view := model.PoolView{
		Address:      st.address.String(),
		Seed:         base58.Encode(p.Seed[:]),
		MintA:        st.mintA.String(),
		MintB:        st.mintB.String(),
		VaultA:       p.TokenAccountA.String(),
		VaultB:       p.TokenAccountB.String(),
		LPMint:       p.LPMint.String(),
		BalanceA:     p.BalanceA,
		BalanceB:     p.BalanceB,
		BalanceAUI:   units.FormatUint(p.BalanceA, st.decA),
		BalanceBUI:   units.FormatUint(p.BalanceB, st.decB),
		VaultAmountA: st.vaultA.Amount,
		VaultAmountB: st.vaultB.Amount,
		LPSupply:     st.lpMint.Supply,
		LPFeeRate:    p.LPFeeRate,
		DAOFeeRate:   daoFeeRate,
	}
	if price, ok := units.SpotPrice(p.BalanceA, st.decA, p.BalanceB, st.decB); ok {
		view.SpotPrice = price.String()
	}
	if p.CreatorFee != nil {
		view.CreatorFee = &model.CreatorFeeView{
			Rate:              p.CreatorFee.Rate,
			BalanceA:          p.CreatorFee.BalanceA,
			BalanceB:          p.CreatorFee.BalanceB,
			WithdrawAuthority: p.CreatorFee.WithdrawAuthority.String(),
		}
	}
	return view
}

// parseRate reads a fee given in percent, e.g. "0.3", into 1e-8 rate units.
func parseRate(text string) (uint32, error) {
	rate, err := units.ParseAmount(text, 6)
	if err != nil {
		return 0, err
	}
	if rate > swap.FeeRateBaseDivider {
		return 0, fmt.Errorf("rate %s%% exceeds 100%%", text)
	}
	return uint32(rate), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
