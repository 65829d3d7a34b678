package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/ledgerly/internal/common"
	"github.com/Veraticus/ledgerly/internal/model"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, so database.path
// is read from LEDGERLY_DATABASE_PATH.
const EnvPrefix = "LEDGERLY"

// Default values used when neither a config file nor the environment
// provides one.
const (
	DefaultDatabasePath = "~/.local/share/ledgerly/ledgerly.db"
	DefaultCurrency     = "USD"
	DefaultPrecision    = 2
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
)

// Settings is the decoded application configuration.
type Settings struct {
	Database DatabaseSettings `mapstructure:"database"`
	Logging  LoggingSettings  `mapstructure:"logging"`
	Ledger   LedgerSettings   `mapstructure:"ledger"`
}

// DatabaseSettings locates the SQLite file.
type DatabaseSettings struct {
	Path string `mapstructure:"path"`
}

// LedgerSettings are the defaults applied to new accounts.
type LedgerSettings struct {
	Currency  string `mapstructure:"currency"`
	Precision int    `mapstructure:"precision"`
}

// LoggingSettings configure the global slog handler.
type LoggingSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every known key on v. Keys must be known to viper
// for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("ledger.currency", DefaultCurrency)
	v.SetDefault("ledger.precision", DefaultPrecision)
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}

// Init prepares v to read configuration. A .env file in the working
// directory is loaded into the environment first; existing variables win.
// cfgFile overrides the search for $HOME/.config/ledgerly/config.yaml.
// A missing config file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(ExpandPath(cfgFile))
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".config", "ledgerly"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	s.Database.Path = ExpandPath(s.Database.Path)
	s.Ledger.Currency = strings.ToUpper(strings.TrimSpace(s.Ledger.Currency))

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate reports the first setting that cannot be used.
func (s *Settings) Validate() error {
	if s.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", common.ErrInvalidConfig)
	}
	if s.Ledger.Currency == "" {
		return fmt.Errorf("%w: ledger.currency is empty", common.ErrInvalidConfig)
	}
	if s.Ledger.Precision < 0 || s.Ledger.Precision > 8 {
		return fmt.Errorf("%w: ledger.precision %d out of range", common.ErrInvalidConfig, s.Ledger.Precision)
	}
	if _, err := common.ParseLevel(s.Logging.Level); err != nil {
		return err
	}
	return nil
}

// NewAccount returns an account carrying the configured currency defaults.
func (s *Settings) NewAccount(name string, accountType model.AccountType) model.Account {
	return model.Account{
		Name:              name,
		Type:              accountType,
		Unit:              s.Ledger.Currency,
		Precision:         s.Ledger.Precision,
		IncludeInNetWorth: true,
	}
}
