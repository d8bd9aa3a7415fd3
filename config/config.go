package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"chaingen/logger"
)

// Config struct holds all configuration for the generator tool.
// Tags are used by viper to map ENV variables and config file keys.
type Config struct {
	// Output configuration
	DataDir string `mapstructure:"datadir"`
	Output  string `mapstructure:"output"` // "-" writes to stdout
	Format  string `mapstructure:"format"` // "hex" or "json"
	Store   bool   `mapstructure:"store"`  // also persist payloads into a LevelDB chain store

	// Chain configuration
	Count       uint64 `mapstructure:"count"`
	StartNumber uint64 `mapstructure:"startnumber"`
	Difficulty  uint64 `mapstructure:"difficulty"`

	// Fork configuration
	ForkAt     uint64 `mapstructure:"forkat"`
	ForkBlocks uint64 `mapstructure:"forkblocks"`
	ForkNumber uint64 `mapstructure:"forknumber"`

	// Decoration configuration
	Bloom      string `mapstructure:"bloom"` // hex string, at most 256 bytes
	TxPerBlock int    `mapstructure:"txperblock"`
	TxAccounts int    `mapstructure:"txaccounts"`
	TxSeed     string `mapstructure:"txseed"`

	// Logging configuration
	LogLevel  string `mapstructure:"log_level"` // e.g., "debug", "info", "warn", "error"
	Verbosity int    `mapstructure:"verbosity"` // Alternative to LogLevel, 0-5

	// Metrics configuration
	EnableMetrics bool `mapstructure:"enable_metrics"`
}

// defaultConfig holds the unexported default configuration values.
var defaultConfig = Config{
	DataDir:       "./chaingen_data",
	Output:        "-",
	Format:        "hex",
	Store:         false,
	Count:         10,
	StartNumber:   0,
	Difficulty:    1000,
	ForkAt:        0,
	ForkBlocks:    0,
	ForkNumber:    1,
	Bloom:         "",
	TxPerBlock:    0,
	TxAccounts:    3,
	TxSeed:        "chaingen-test-seed",
	LogLevel:      "info",
	Verbosity:     3,
	EnableMetrics: true,
}

// DefaultConfig is an exported version of defaultConfig, allowing other
// packages to access the default values, for example, when setting up CLI
// flags.
var DefaultConfig = defaultConfig

// LoadConfig loads configuration from file, environment variables, and flags.
func LoadConfig() (*Config, error) {
	// Start with a copy of the exported DefaultConfig. Viper then overrides
	// these values based on file, ENV, and flags.
	currentConfig := DefaultConfig

	if err := viper.Unmarshal(&currentConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config from Viper: %v", err)
	}

	logger.Debugf("Effective config: DataDir='%s', Output='%s', Format='%s', Store=%t, "+
		"Count=%d, StartNumber=%d, Difficulty=%d, ForkAt=%d, ForkBlocks=%d, ForkNumber=%d, "+
		"TxPerBlock=%d, LogLevel='%s'",
		currentConfig.DataDir, currentConfig.Output, currentConfig.Format, currentConfig.Store,
		currentConfig.Count, currentConfig.StartNumber, currentConfig.Difficulty,
		currentConfig.ForkAt, currentConfig.ForkBlocks, currentConfig.ForkNumber,
		currentConfig.TxPerBlock, currentConfig.LogLevel)

	if err := validateAndCreateDirs(&currentConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %v", err)
	}

	return &currentConfig, nil
}

func validateAndCreateDirs(config *Config) error {
	config.Format = strings.ToLower(strings.TrimSpace(config.Format))
	switch config.Format {
	case "hex", "json":
	case "":
		config.Format = DefaultConfig.Format
	default:
		return fmt.Errorf("unknown output format '%s' (expected hex or json)", config.Format)
	}

	if config.Count == 0 {
		logger.Warningf("Count is 0, using default: %d", DefaultConfig.Count)
		config.Count = DefaultConfig.Count
	}
	if config.Difficulty == 0 {
		logger.Warningf("Difficulty is 0, using default: %d", DefaultConfig.Difficulty)
		config.Difficulty = DefaultConfig.Difficulty
	}

	if config.ForkBlocks > 0 {
		if config.ForkAt > config.Count {
			return fmt.Errorf("forkat %d is beyond chain length %d", config.ForkAt, config.Count)
		}
		if config.ForkNumber == 0 {
			logger.Warningf("ForkNumber is 0, using default: %d", DefaultConfig.ForkNumber)
			config.ForkNumber = DefaultConfig.ForkNumber
		}
		if config.ForkNumber >= config.Difficulty {
			return fmt.Errorf("forknumber %d must be below difficulty %d to keep fork blocks lighter", config.ForkNumber, config.Difficulty)
		}
	}

	config.Bloom = strings.TrimPrefix(strings.TrimSpace(config.Bloom), "0x")
	if config.Bloom != "" {
		raw, err := hex.DecodeString(config.Bloom)
		if err != nil {
			return fmt.Errorf("bloom is not valid hex: %v", err)
		}
		if len(raw) > 256 {
			return fmt.Errorf("bloom is %d bytes, maximum is 256", len(raw))
		}
	}

	if config.TxPerBlock < 0 {
		config.TxPerBlock = 0
	}
	if config.TxPerBlock > 0 {
		if config.TxAccounts <= 0 {
			logger.Warningf("TxAccounts is invalid (%d), using default: %d", config.TxAccounts, DefaultConfig.TxAccounts)
			config.TxAccounts = DefaultConfig.TxAccounts
		}
		if strings.TrimSpace(config.TxSeed) == "" {
			logger.Warningf("TxSeed is empty, using default seed")
			config.TxSeed = DefaultConfig.TxSeed
		}
	}

	config.DataDir = strings.TrimSpace(config.DataDir)
	if config.Store {
		if config.DataDir == "" {
			return fmt.Errorf("datadir cannot be empty when store is enabled")
		}
		if err := os.MkdirAll(config.DataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory '%s': %v", config.DataDir, err)
		}
	}

	return nil
}

func (c *Config) GetLogLevel() logger.LogLevel {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "trace":
		return logger.DEBUG
	case "info":
		return logger.INFO
	case "warn", "warning":
		return logger.WARNING
	case "error":
		return logger.ERROR
	case "fatal":
		return logger.FATAL
	default:
		logger.Warningf("Unknown log_level '%s', falling back to verbosity %d", c.LogLevel, c.Verbosity)
		switch c.Verbosity {
		case 0, 1:
			return logger.ERROR
		case 2:
			return logger.WARNING
		case 3:
			return logger.INFO
		case 4, 5:
			return logger.DEBUG
		default:
			return logger.INFO
		}
	}
}

// BloomBytes mengembalikan bloom hasil decode, atau nil kalau tidak diset.
// Validitas hex sudah diperiksa oleh LoadConfig.
func (c *Config) BloomBytes() []byte {
	cleaned := strings.TrimPrefix(strings.TrimSpace(c.Bloom), "0x")
	if cleaned == "" {
		return nil
	}
	raw, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil
	}
	return raw
}

func (c *Config) GetDataSubDir(subdir string) string {
	return filepath.Join(c.DataDir, subdir)
}
