package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	API   APIConfig   `yaml:"api" mapstructure:"api"`
	Store StoreConfig `yaml:"store" mapstructure:"store"`
	Sync  SyncConfig  `yaml:"sync" mapstructure:"sync"`
	Log   LogConfig   `yaml:"log" mapstructure:"log"`
}

// APIConfig configures the upstream creature API client.
type APIConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst       int     `yaml:"burst" mapstructure:"burst"`
}

// StoreConfig configures the destination SQLite database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// SyncConfig configures one pipeline run.
type SyncConfig struct {
	Pokemon     []string `yaml:"pokemon" mapstructure:"pokemon"`
	Concurrency int      `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// defaultPokemon is the job list used when none is configured.
var defaultPokemon = []string{
	"bulbasaur", "ivysaur", "venusaur", "charmander", "charmeleon", "charizard",
	"squirtle", "wartortle", "blastoise", "pikachu", "raichu", "sandshrew",
	"sandslash", "nidoran-f", "nidorina", "nidoqueen", "nidoran-m", "nidorino",
	"nidoking", "jigglypuff",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DEXSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("api.base_url", "https://pokeapi.co/api/v2")
	v.SetDefault("api.timeout_secs", 30)
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("api.burst", 10)
	v.SetDefault("store.path", "dexsync.db")
	v.SetDefault("sync.pokemon", defaultPokemon)
	v.SetDefault("sync.concurrency", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
