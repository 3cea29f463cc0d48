package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"hodor/internal/swap"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. HODOR_LEDGER.
	EnvPrefix = "HODOR"
	// DefaultProgramID is the address the local ledger registers the program at.
	DefaultProgramID = "BoCYeFr6zQY11eA7g9HPw6cqCWTvFzx6abPus3nV5nP"
)

// Config holds the settings shared by the ledger commands.
type Config struct {
	Ledger      string
	Journal     string
	ProgramID   string
	DAOFeeRate  uint32
	LPDecimals  uint8
	BootstrapLP uint64
	SlippageBps uint32
	Signer      string
	LogLevel    string
}

// Swap returns the swap module parameters.
func (c Config) Swap() swap.Config {
	return swap.Config{
		DAOFeeRate:        c.DAOFeeRate,
		LPDecimals:        c.LPDecimals,
		BootstrapLPAmount: c.BootstrapLP,
	}
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}
	return common(v)
}

func setCommonDefaults(v *viper.Viper) {
	def := swap.DefaultConfig()
	v.SetDefault("ledger", "./data/ledger.json")
	v.SetDefault("journal", "./data/journal.jsonl")
	v.SetDefault("program-id", DefaultProgramID)
	v.SetDefault("dao-fee-rate", def.DAOFeeRate)
	v.SetDefault("lp-decimals", def.LPDecimals)
	v.SetDefault("bootstrap-lp", def.BootstrapLPAmount)
	v.SetDefault("slippage-bps", 100)
	v.SetDefault("log-level", "info")
}

func common(v *viper.Viper) (Config, error) {
	cfg := Config{
		Ledger:      v.GetString("ledger"),
		Journal:     v.GetString("journal"),
		ProgramID:   v.GetString("program-id"),
		DAOFeeRate:  v.GetUint32("dao-fee-rate"),
		LPDecimals:  uint8(v.GetUint("lp-decimals")),
		BootstrapLP: v.GetUint64("bootstrap-lp"),
		SlippageBps: v.GetUint32("slippage-bps"),
		Signer:      v.GetString("signer"),
		LogLevel:    v.GetString("log-level"),
	}
	if v.GetUint("lp-decimals") > 255 {
		return Config{}, fmt.Errorf("lp-decimals must fit in a byte")
	}
	if cfg.DAOFeeRate > swap.FeeRateBaseDivider {
		return Config{}, fmt.Errorf("dao-fee-rate must be <= %d", swap.FeeRateBaseDivider)
	}
	if cfg.SlippageBps > 10_000 {
		return Config{}, fmt.Errorf("slippage-bps must be <= 10000")
	}
	if cfg.BootstrapLP == 0 {
		return Config{}, fmt.Errorf("bootstrap-lp must be > 0")
	}
	return cfg, nil
}

// newViper builds a viper instance with precedence flags > env > config
// file > defaults.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults ...func(*viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	setCommonDefaults(v)
	for _, fn := range defaults {
		fn(v)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

// ReplayConfig holds configuration for the replay command.
type ReplayConfig struct {
	Config
	In                string
	Out               string
	Errors            string
	LedgerOut         string
	Checkpoint        string
	CheckpointEnabled bool
	BatchSize         uint64
	MaxRetries        int
	RetryBackoff      time.Duration
	PGDSN             string
}

// LoadReplay merges config file, environment variables, and flags into ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("out", "./data/events.jsonl")
		v.SetDefault("errors", "./data/replay_errors.jsonl")
		v.SetDefault("checkpoint", "./data/replay_checkpoint.json")
		v.SetDefault("checkpoint-enabled", true)
		v.SetDefault("batch-size", uint64(500))
		v.SetDefault("max-retries", 5)
		v.SetDefault("retry-backoff", 500*time.Millisecond)
	})
	if err != nil {
		return ReplayConfig{}, err
	}
	base, err := common(v)
	if err != nil {
		return ReplayConfig{}, err
	}

	in := v.GetString("in")
	if in == "" {
		in = base.Journal
	}
	return ReplayConfig{
		Config:            base,
		In:                in,
		Out:               v.GetString("out"),
		Errors:            v.GetString("errors"),
		LedgerOut:         v.GetString("ledger-out"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		BatchSize:         v.GetUint64("batch-size"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		PGDSN:             v.GetString("pg-dsn"),
	}, nil
}
