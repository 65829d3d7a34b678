package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/ledgerly/internal/common"
	"github.com/Veraticus/ledgerly/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	v := viper.New()
	require.NoError(t, Init(v, ""))

	s, err := Load(v)
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".local/share/ledgerly/ledgerly.db"), s.Database.Path)
	assert.Equal(t, "USD", s.Ledger.Currency)
	assert.Equal(t, 2, s.Ledger.Precision)
	assert.Equal(t, "info", s.Logging.Level)
	assert.Equal(t, "console", s.Logging.Format)
}

func TestLoad_ConfigFileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/books.db
ledger:
  currency: eur
  precision: 3
logging:
  level: debug
  format: json
`)
	t.Setenv("LEDGERLY_LEDGER_PRECISION", "0")

	v := viper.New()
	require.NoError(t, Init(v, path))

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/books.db", s.Database.Path)
	assert.Equal(t, "EUR", s.Ledger.Currency)
	assert.Equal(t, 0, s.Ledger.Precision, "environment overrides the file")
	assert.Equal(t, "debug", s.Logging.Level)
	assert.Equal(t, "json", s.Logging.Format)
}

func TestInit_MalformedConfig(t *testing.T) {
	path := writeConfig(t, "database: [unterminated")

	err := Init(viper.New(), path)
	assert.ErrorContains(t, err, "failed to read config")
}

func TestSettings_Validate(t *testing.T) {
	valid := func() Settings {
		return Settings{
			Database: DatabaseSettings{Path: "/tmp/x.db"},
			Ledger:   LedgerSettings{Currency: "USD", Precision: 2},
			Logging:  LoggingSettings{Level: "info"},
		}
	}

	tests := []struct {
		mutate func(*Settings)
		name   string
	}{
		{name: "empty path", mutate: func(s *Settings) { s.Database.Path = "" }},
		{name: "empty currency", mutate: func(s *Settings) { s.Ledger.Currency = "" }},
		{name: "negative precision", mutate: func(s *Settings) { s.Ledger.Precision = -1 }},
		{name: "huge precision", mutate: func(s *Settings) { s.Ledger.Precision = 9 }},
		{name: "unknown log level", mutate: func(s *Settings) { s.Logging.Level = "loud" }},
	}

	s := valid()
	require.NoError(t, s.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), common.ErrInvalidConfig)
		})
	}
}

func TestSettings_NewAccount(t *testing.T) {
	s := Settings{Ledger: LedgerSettings{Currency: "JPY", Precision: 0}}

	account := s.NewAccount("Wallet", model.AccountTypeCash)
	assert.Equal(t, "Wallet", account.Name)
	assert.Equal(t, "JPY", account.Unit)
	assert.Equal(t, 0, account.Precision)
	assert.True(t, account.IncludeInNetWorth)
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("LEDGERLY_TEST_DIR", "/data")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "books.db"), ExpandPath("~/books.db"))
	assert.Equal(t, "/data/books.db", ExpandPath("$LEDGERLY_TEST_DIR/books.db"))
	assert.Equal(t, "/abs/books.db", ExpandPath("/abs/books.db"))
}
