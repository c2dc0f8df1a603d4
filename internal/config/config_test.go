package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err, "an explicit but missing config file is an error")

	cfg, err = Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Connection.Host)
	assert.Equal(t, 1433, cfg.Connection.Port)
	assert.Equal(t, "sa", cfg.Connection.User)
	assert.Equal(t, "master", cfg.Connection.Database)
	assert.True(t, cfg.Connection.TrustCert)
	assert.False(t, cfg.Connection.Encrypt)
	assert.Equal(t, 1000, cfg.History.MaxEntries)
	assert.Equal(t, 250, cfg.UI.TickMS)
	assert.Equal(t, 80, cfg.UI.LoadingTickMS)
	assert.False(t, cfg.Verbose)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sqlterm.yaml")
	content := `connection:
  host: db.example.com
  port: 1533
  database: Northwind
history:
  max_entries: 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "db.example.com", cfg.Connection.Host)
	assert.Equal(t, 1533, cfg.Connection.Port)
	assert.Equal(t, "Northwind", cfg.Connection.Database)
	assert.Equal(t, 50, cfg.History.MaxEntries)
	// Untouched keys keep their defaults.
	assert.Equal(t, "sa", cfg.Connection.User)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sqlterm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("connection:\n  host: from-file\n"), 0o644))

	t.Setenv("SQLTERM_CONNECTION__HOST", "from-env")
	t.Setenv("SQLTERM_CONNECTION__TRUST_CERT", "false")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Connection.Host)
	assert.False(t, cfg.Connection.TrustCert)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("SQLTERM_CONNECTION__HOST", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("connection.host", "", "")
	flags.Bool("verbose", false, "")
	require.NoError(t, flags.Parse([]string{"--connection.host=from-flag", "--verbose"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.Connection.Host)
	assert.True(t, cfg.Verbose)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sqlterm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("connection: [unclosed"), 0o644))

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config file")
}

func TestDSN(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	dsn := cfg.Connection.DSN()
	assert.Contains(t, dsn, "sqlserver://sa:")
	assert.Contains(t, dsn, "localhost:1433")
	assert.Contains(t, dsn, "database=master")
	assert.Contains(t, dsn, "TrustServerCertificate=true")
	assert.Contains(t, dsn, "encrypt=disable")
}
