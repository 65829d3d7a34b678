package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/ledgerly/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupCLI points the configuration at a fresh database under a temporary
// home directory and returns the database path.
func setupCLI(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	dbPath := filepath.Join(home, "data", "ledgerly.db")
	t.Setenv("HOME", home)
	t.Setenv("LEDGERLY_DATABASE_PATH", dbPath)
	t.Setenv("LEDGERLY_LOGGING_LEVEL", "error")
	return dbPath
}

// runCLI executes one command line and returns everything it printed.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	viper.Reset()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, "", args...)
	require.NoError(t, err, out)
	return out
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()

	want := []string{"accounts", "categories", "checkpoint", "import", "migrate", "report", "reset", "tx", "version"}
	var got []string
	for _, c := range root.Commands() {
		got = append(got, c.Name())
	}
	assert.Subset(t, got, want)

	for _, path := range [][]string{
		{"accounts", "list"}, {"accounts", "add"}, {"accounts", "rename"}, {"accounts", "delete"}, {"accounts", "verify"},
		{"categories", "list"}, {"categories", "add"}, {"categories", "delete"},
		{"tx", "add"}, {"tx", "edit"}, {"tx", "delete"}, {"tx", "list"},
		{"import", "ofx"},
		{"checkpoint", "create"}, {"checkpoint", "list"}, {"checkpoint", "restore"}, {"checkpoint", "delete"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestVersion(t *testing.T) {
	setupCLI(t)
	assert.Contains(t, mustRun(t, "version"), "ledgerly dev")
}

func TestMigrate(t *testing.T) {
	dbPath := setupCLI(t)

	out := mustRun(t, "migrate", "--status")
	assert.Contains(t, out, "Current version: 0")
	assert.Contains(t, out, "pending")

	out = mustRun(t, "migrate")
	assert.Contains(t, out, "version 4")

	out = mustRun(t, "migrate", "--status")
	assert.Contains(t, out, "Current version: 4")
	assert.NotContains(t, out, "pending")

	_, err := os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestDatabaseFlagOverridesConfig(t *testing.T) {
	setupCLI(t)
	other := filepath.Join(t.TempDir(), "other.db")

	mustRun(t, "--db", other, "migrate")

	_, err := os.Stat(other)
	assert.NoError(t, err)
}

func TestInvalidLogLevel(t *testing.T) {
	setupCLI(t)
	t.Setenv("LEDGERLY_LOGGING_LEVEL", "chatty")

	_, err := runCLI(t, "", "version")
	assert.ErrorContains(t, err, "log level")
}

func TestMutationError(t *testing.T) {
	err := mutationError("record transaction", common.ErrInvalidAmount)
	assert.EqualError(t, err, "failed to record transaction: invalid amount")
	assert.ErrorIs(t, err, common.ErrInvalidAmount)

	err = mutationError("delete transaction", common.ErrImmutableRecord)
	assert.ErrorIs(t, err, common.ErrImmutableRecord)

	err = mutationError("record transaction", common.ErrStoreBusy)
	var userErr *common.UserError
	require.True(t, errors.As(err, &userErr))
	assert.Equal(t, "operation failed, please retry", userErr.UserMessage)
	assert.ErrorIs(t, err, common.ErrStoreBusy)
}
