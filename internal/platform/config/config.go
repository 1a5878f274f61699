package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	LogLevel     string
	IsProduction bool

	// BlockUnassignInClosedPeriods makes Unassign fail when either linked
	// transaction is dated inside a CLOSED reporting period.
	BlockUnassignInClosedPeriods bool

	// IntegrityBatchSize is the number of ledger rows fetched per page
	// during an integrity verification sweep.
	IntegrityBatchSize int
}

// LoadConfig loads configuration from environment variables and a .env file
// if one is present. Real environment variables take precedence.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("BLOCK_UNASSIGN_IN_CLOSED_PERIODS", true)
	viper.SetDefault("INTEGRITY_BATCH_SIZE", 500)

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:                  viper.GetString("PGSQL_URL"),
		LogLevel:                     strings.ToLower(viper.GetString("LOG_LEVEL")),
		IsProduction:                 viper.GetBool("IS_PRODUCTION"),
		BlockUnassignInClosedPeriods: viper.GetBool("BLOCK_UNASSIGN_IN_CLOSED_PERIODS"),
		IntegrityBatchSize:           viper.GetInt("INTEGRITY_BATCH_SIZE"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.IntegrityBatchSize <= 0 {
		cfg.IntegrityBatchSize = 500
	}

	return cfg, nil
}
