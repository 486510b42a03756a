package store

import (
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Config holds the configuration for the embedded database.
type Config struct {
	// DataDir is where the database lives. Ignored when InMemory is set.
	DataDir string

	// InMemory keeps everything in RAM (tests, demo mode).
	InMemory bool

	// BlockCacheSize and IndexCacheSize are badger cache sizes in bytes.
	BlockCacheSize int64
	IndexCacheSize int64

	// Compression enables ZSTD at the table level. Values are already s2
	// compressed, so this mostly helps keys.
	Compression bool

	SyncWrites bool
	ReadOnly   bool

	// Profile is "default" or "low-mem".
	Profile string
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.DataDir == "" && !c.InMemory {
		return fmt.Errorf("DataDir must be specified when InMemory is false")
	}
	if c.InMemory && c.ReadOnly {
		return fmt.Errorf("ReadOnly requires an on-disk DataDir")
	}
	if c.BlockCacheSize <= 0 {
		return fmt.Errorf("BlockCacheSize must be positive, got %d", c.BlockCacheSize)
	}
	if c.IndexCacheSize <= 0 {
		return fmt.Errorf("IndexCacheSize must be positive, got %d", c.IndexCacheSize)
	}
	return nil
}

// DefaultConfig returns a configuration sized for a single small service.
// An empty dataDir selects in-memory mode.
func DefaultConfig(dataDir string) *Config {
	return &Config{
		DataDir:        dataDir,
		InMemory:       dataDir == "",
		BlockCacheSize: 64 << 20,
		IndexCacheSize: 16 << 20,
		Compression:    true,
		SyncWrites:     true,
		Profile:        "default",
	}
}

func buildBadgerOptions(cfg *Config) badger.Options {
	if cfg.InMemory {
		opts := badger.DefaultOptions("")
		opts.InMemory = true
		opts.Logger = nil
		return opts
	}

	opts := badger.DefaultOptions(filepath.Join(cfg.DataDir, "badger"))
	opts.Logger = nil
	opts.ReadOnly = cfg.ReadOnly
	opts.SyncWrites = cfg.SyncWrites

	if cfg.Compression {
		opts.Compression = options.ZSTD
	} else {
		opts.Compression = options.None
	}

	switch cfg.Profile {
	case "low-mem":
		opts.ValueLogFileSize = 32 << 20
		opts.NumCompactors = 2
		opts.MemTableSize = 16 << 20
	default:
		opts.ValueLogFileSize = 128 << 20
	}

	opts.BlockCacheSize = cfg.BlockCacheSize
	opts.IndexCacheSize = cfg.IndexCacheSize
	return opts
}

// openBadger validates cfg and opens the database.
func openBadger(cfg *Config) (*badger.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}
	db, err := badger.Open(buildBadgerOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return db, nil
}
