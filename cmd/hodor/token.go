package main

import (
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"hodor/internal/ledger"
	"hodor/internal/units"
)

const defaultMintDecimals = 9

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage mints and token accounts on the local ledger",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "create-mint [DECIMALS]",
			Short: "Create a mint with the signer as mint authority",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runTokenCreateMint,
		},
		&cobra.Command{
			Use:   "mint MINT AMOUNT [OWNER]",
			Short: "Mint AMOUNT into the associated account of OWNER, the signer by default",
			Args:  cobra.RangeArgs(2, 3),
			RunE:  runTokenMint,
		},
		&cobra.Command{
			Use:   "balance MINT [OWNER]",
			Short: "Print the associated account balance of OWNER, the signer by default",
			Args:  cobra.RangeArgs(1, 2),
			RunE:  runTokenBalance,
		},
	)
	return cmd
}

func runTokenCreateMint(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	authority, err := s.signer()
	if err != nil {
		return err
	}
	decimals := uint64(defaultMintDecimals)
	if len(args) > 0 {
		if decimals, err = strconv.ParseUint(args[0], 10, 8); err != nil {
			return fmt.Errorf("invalid decimals %q: %w", args[0], err)
		}
	}

	mint := solana.NewWallet().PublicKey()
	if err := s.rec.CreateMint(mint, authority, uint8(decimals)); err != nil {
		return s.journalFailure(err)
	}
	if err := s.save(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), mint)
	return nil
}

func runTokenMint(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	authority, err := s.signer()
	if err != nil {
		return err
	}
	mintKey, err := solana.PublicKeyFromBase58(args[0])
	if err != nil {
		return fmt.Errorf("invalid mint: %w", err)
	}
	mint, err := s.bank.Mint(mintKey)
	if err != nil {
		return err
	}
	amount, err := units.ParseAmount(args[1], mint.Decimals)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	owner := authority
	if len(args) > 2 {
		if owner, err = solana.PublicKeyFromBase58(args[2]); err != nil {
			return fmt.Errorf("invalid owner: %w", err)
		}
	}

	dst, err := s.rec.CreateAssociatedTokenAccount(owner, mintKey)
	if err != nil {
		return s.journalFailure(err)
	}
	if err := s.save(); err != nil {
		return err
	}
	if err := s.rec.MintTo(mintKey, dst, authority, amount); err != nil {
		return s.journalFailure(err)
	}
	if err := s.save(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "minted %s to %s\n", units.FormatUint(amount, mint.Decimals), dst)
	return nil
}

func runTokenBalance(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	mintKey, err := solana.PublicKeyFromBase58(args[0])
	if err != nil {
		return fmt.Errorf("invalid mint: %w", err)
	}
	var owner solana.PublicKey
	if len(args) > 1 {
		owner, err = solana.PublicKeyFromBase58(args[1])
	} else {
		owner, err = s.signer()
	}
	if err != nil {
		return err
	}

	mint, err := s.bank.Mint(mintKey)
	if err != nil {
		return err
	}
	key, err := ledger.AssociatedTokenAddress(owner, mintKey)
	if err != nil {
		return err
	}
	acc, err := s.bank.TokenAccount(key)
	if err != nil {
		return fmt.Errorf("account %s: %w", key, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), units.FormatUint(acc.Amount, mint.Decimals))
	return nil
}
