// Package config reads node settings. Environment variables override the
// config file, which overrides the defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	KeyLedgerBackend        = "ledger.backend"
	KeyLedgerPath           = "ledger.path"
	KeyLedgerReplayChunk    = "ledger.replayChunk"
	KeyStateInitialCapacity = "state.initialCapacity"
	KeyNodeQueueSize        = "node.queueSize"
	KeyGenesis              = "genesis"
)

const (
	BackendFile    = "file"
	BackendBadger  = "badger"
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"
)

var envBindings = map[string]string{
	KeyLedgerBackend:        "LEDGER_BACKEND",
	KeyLedgerPath:           "LEDGER_PATH",
	KeyLedgerReplayChunk:    "LEDGER_REPLAY_CHUNK",
	KeyStateInitialCapacity: "LEDGER_INITIAL_CAPACITY",
	KeyNodeQueueSize:        "LEDGER_QUEUE_SIZE",
	KeyGenesis:              "LEDGER_GENESIS",
}

type Config struct {
	// Backend selects the ledger store: file, badger, leveldb or memory.
	Backend string
	// Path is the ledger file, or the database directory for badger and
	// leveldb.
	Path            string
	ReplayChunk     uint64
	InitialCapacity int
	QueueSize       int
	// Genesis is an optional accounts file seeded before replay.
	Genesis string
}

// NewViper returns a viper instance with defaults and environment binding
// set up.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyLedgerBackend, BackendFile)
	v.SetDefault(KeyLedgerPath, "./ledger.dat")
	v.SetDefault(KeyLedgerReplayChunk, 1024)
	v.SetDefault(KeyStateInitialCapacity, 1024)
	v.SetDefault(KeyNodeQueueSize, 64)
	v.SetDefault(KeyGenesis, "")
	for key, env := range envBindings {
		// BindEnv only fails without arguments
		_ = v.BindEnv(key, env)
	}
	return v
}

// Load reads the config file at path, if any, and returns the resulting
// settings.
func Load(path string) (*Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper extracts and validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Backend:         strings.ToLower(v.GetString(KeyLedgerBackend)),
		Path:            v.GetString(KeyLedgerPath),
		ReplayChunk:     uint64(v.GetInt64(KeyLedgerReplayChunk)),
		InitialCapacity: v.GetInt(KeyStateInitialCapacity),
		QueueSize:       v.GetInt(KeyNodeQueueSize),
		Genesis:         v.GetString(KeyGenesis),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendBadger, BackendLevelDB:
		if c.Path == "" {
			return fmt.Errorf("%s: empty path for %s backend", KeyLedgerPath, c.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%s: unknown backend %q", KeyLedgerBackend, c.Backend)
	}
	if c.InitialCapacity < 1 {
		return fmt.Errorf("%s: must be positive, got %d", KeyStateInitialCapacity, c.InitialCapacity)
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("%s: must not be negative, got %d", KeyNodeQueueSize, c.QueueSize)
	}
	return nil
}
