package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("SALES_DATABASE_URL", "postgres://localhost/sales")
	t.Setenv("SALES_LEDGER_DEFAULT_ACCOUNT_ID", "u-admin")
	t.Setenv("SALES_HTTP_PORT", "9090")
	t.Setenv("SALES_OUTBOX_POLL_INTERVAL", "2s")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/sales", cfg.Database.URL)
	assert.Equal(t, "u-admin", cfg.Ledger.DefaultAccountID)
	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, 2*time.Second, cfg.Outbox.PollInterval)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.True(t, cfg.App.IsDevelopment())
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[database]
url = "postgres://file/sales"

[ledger]
default_account_id = "u-file"
receipt_range_size = 10

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "postgres://file/sales", cfg.Database.URL)
	assert.Equal(t, "u-file", cfg.Ledger.DefaultAccountID)
	assert.Equal(t, int64(10), cfg.Ledger.ReceiptRangeSize)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_RequiresDefaultAccount(t *testing.T) {
	t.Setenv("SALES_DATABASE_URL", "postgres://localhost/sales")

	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DefaultAccountID")
}

func TestValidate_RejectsBadValues(t *testing.T) {
	t.Setenv("SALES_DATABASE_URL", "postgres://localhost/sales")
	t.Setenv("SALES_LEDGER_DEFAULT_ACCOUNT_ID", "u-admin")
	t.Setenv("SALES_LOG_LEVEL", "verbose")
	t.Setenv("SALES_DATABASE_MIN_CONNS", "50")

	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Level")
	assert.Contains(t, err.Error(), "MinConns")
}

func TestLoad_LedgerTimezone(t *testing.T) {
	t.Setenv("SALES_DATABASE_URL", "postgres://localhost/sales")
	t.Setenv("SALES_LEDGER_DEFAULT_ACCOUNT_ID", "u-admin")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	loc, err := cfg.Ledger.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	t.Setenv("SALES_LEDGER_TIMEZONE", "Mars/Olympus_Mons")
	_, err = Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Timezone")
}
