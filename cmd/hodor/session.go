package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hodor/internal/config"
	"hodor/internal/ledger"
	"hodor/internal/program"
	"hodor/internal/replay"
	"hodor/internal/storage"
	"hodor/internal/swap"
)

// session is a ledger loaded from its snapshot with the swap program
// registered and a journaling recorder on top.
type session struct {
	cfg       config.Config
	logger    *zap.Logger
	programID solana.PublicKey
	bank      *ledger.Bank
	rec       *replay.Recorder
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	programID, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid program id: %w", err)
	}

	bank := ledger.NewBank(logger)
	if err := bank.Load(cfg.Ledger); err != nil {
		return nil, err
	}
	bank.Register(programID, program.New(cfg.Swap(), logger))

	var journal *storage.Journal
	if cfg.Journal != "" {
		journal = storage.NewJournal(cfg.Journal)
	}
	rec, err := replay.NewRecorder(bank, journal)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:       cfg,
		logger:    logger,
		programID: programID,
		bank:      bank,
		rec:       rec,
	}, nil
}

// save writes the ledger snapshot back.
func (s *session) save() error {
	if err := s.bank.Save(s.cfg.Ledger); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// execute saves setup the recorder already journaled, then runs ix. The
// snapshot is only written again when ix commits and is journaled, so it
// never runs ahead of the journal.
func (s *session) execute(ix solana.Instruction, signers ...solana.PublicKey) ([]swap.Event, error) {
	if err := s.save(); err != nil {
		return nil, err
	}
	events, err := s.rec.Execute(ix, signers...)
	if err != nil {
		return nil, s.journalFailure(err)
	}
	return events, s.save()
}

// journalFailure logs an operation that committed on the in-memory ledger
// but missed the journal. The snapshot is left at its previous state.
func (s *session) journalFailure(err error) error {
	if errors.Is(err, replay.ErrJournal) {
		s.logger.Error("operation not journaled, ledger snapshot not updated", zap.Error(err))
	}
	return err
}

func (s *session) close() {
	_ = s.logger.Sync()
}

func (s *session) signer() (solana.PublicKey, error) {
	return parseSigner(s.cfg.Signer)
}

// parseSigner accepts a solana-keygen keypair file or a base58 public key.
// The ledger only checks signer identities, so a bare public key is enough.
func parseSigner(value string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, errors.New("signer is required (--signer)")
	}
	if _, err := os.Stat(value); err == nil {
		key, err := solana.PrivateKeyFromSolanaKeygenFile(value)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("read keypair %s: %w", value, err)
		}
		return key.PublicKey(), nil
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid signer %q: not a keypair file or public key", value)
	}
	return key, nil
}

// poolState is a pool record together with the token accounts around it.
type poolState struct {
	address solana.PublicKey
	pool    *swap.Pool
	mintA   solana.PublicKey
	mintB   solana.PublicKey
	vaultA  ledger.TokenAccount
	vaultB  ledger.TokenAccount
	decA    uint8
	decB    uint8
	lpMint  ledger.Mint
}

func (s *session) loadPool(address string) (*poolState, error) {
	key, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid pool address %q: %w", address, err)
	}
	acc, ok := s.bank.Account(key)
	if !ok {
		return nil, fmt.Errorf("%w: pool %s", ledger.ErrAccountNotFound, key)
	}
	if !acc.Owner.Equals(s.programID) {
		return nil, fmt.Errorf("account %s is not owned by program %s", key, s.programID)
	}
	pool, err := swap.DecodePool(acc.Data)
	if err != nil {
		return nil, fmt.Errorf("decode pool %s: %w", key, err)
	}

	st := &poolState{address: key, pool: pool}
	if st.vaultA, err = s.bank.TokenAccount(pool.TokenAccountA); err != nil {
		return nil, fmt.Errorf("vault a: %w", err)
	}
	if st.vaultB, err = s.bank.TokenAccount(pool.TokenAccountB); err != nil {
		return nil, fmt.Errorf("vault b: %w", err)
	}
	st.mintA, st.mintB = st.vaultA.Mint, st.vaultB.Mint

	mintA, err := s.bank.Mint(st.mintA)
	if err != nil {
		return nil, fmt.Errorf("mint a: %w", err)
	}
	mintB, err := s.bank.Mint(st.mintB)
	if err != nil {
		return nil, fmt.Errorf("mint b: %w", err)
	}
	st.decA, st.decB = mintA.Decimals, mintB.Decimals

	if st.lpMint, err = s.bank.Mint(pool.LPMint); err != nil {
		return nil, fmt.Errorf("lp mint: %w", err)
	}
	return st, nil
}

// side maps a mint to the pool side it belongs to.
func (p *poolState) side(mint solana.PublicKey) (swap.Side, bool) {
	switch {
	case mint.Equals(p.mintA):
		return swap.SideA, true
	case mint.Equals(p.mintB):
		return swap.SideB, true
	}
	return 0, false
}

func (p *poolState) mint(side swap.Side) solana.PublicKey {
	if side == swap.SideB {
		return p.mintB
	}
	return p.mintA
}

func (p *poolState) decimals(side swap.Side) uint8 {
	if side == swap.SideB {
		return p.decB
	}
	return p.decA
}

func (p *poolState) vault(side swap.Side) solana.PublicKey {
	if side == swap.SideB {
		return p.pool.TokenAccountB
	}
	return p.pool.TokenAccountA
}
