package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hodor/internal/swap"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "./data/ledger.json", cfg.Ledger)
	assert.Equal(t, DefaultProgramID, cfg.ProgramID)
	assert.Equal(t, uint32(100), cfg.SlippageBps)
	assert.Equal(t, swap.DefaultConfig(), cfg.Swap())
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "hodor.yaml")
	require.NoError(t, os.WriteFile(file, []byte("dao-fee-rate: 5\nslippage-bps: 50\nsigner: from-file\n"), 0o644))

	t.Setenv("HODOR_SLIPPAGE_BPS", "25")
	t.Setenv("HODOR_LP_DECIMALS", "9")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("signer", "", "")
	require.NoError(t, flags.Parse([]string{"--signer", "from-flag"}))

	cfg, err := Load(file, flags)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), cfg.DAOFeeRate)
	assert.Equal(t, uint32(25), cfg.SlippageBps)
	assert.Equal(t, uint8(9), cfg.LPDecimals)
	assert.Equal(t, "from-flag", cfg.Signer)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("HODOR_DAO_FEE_RATE", "100000001")
	_, err := Load("", nil)
	assert.Error(t, err)
}

func TestLoadReplay(t *testing.T) {
	t.Setenv("HODOR_JOURNAL", "/tmp/j.jsonl")
	t.Setenv("HODOR_RETRY_BACKOFF", "2s")

	cfg, err := LoadReplay("", nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/j.jsonl", cfg.In)
	assert.Equal(t, 2*time.Second, cfg.RetryBackoff)
	assert.Equal(t, uint64(500), cfg.BatchSize)
	assert.True(t, cfg.CheckpointEnabled)
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("1700000000")
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000), ts)

	ts, err = ParseTimestamp("2023-11-14T22:13:20Z")
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000), ts)

	ts, err = ParseTimestamp(" ")
	require.NoError(t, err)
	assert.Zero(t, ts)

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}
