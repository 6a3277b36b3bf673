package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "DB_DRIVER=sqlite\nSQLITE_PATH=" + filepath.Join(dir, "test.db") + "\nSESSION_TTL=30m\nPROVIDER_GATEWAY_RETRIES=5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// godotenv never overrides variables that are already set
	for _, k := range []string{"DB_DRIVER", "SQLITE_PATH", "SESSION_TTL", "PROVIDER_GATEWAY_RETRIES", "APP_ENV"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	t.Cleanup(func() {
		for _, k := range []string{"DB_DRIVER", "SQLITE_PATH", "SESSION_TTL", "PROVIDER_GATEWAY_RETRIES"} {
			_ = os.Unsetenv(k)
		}
	})

	require.NoError(t, Load(path))
	c := Get()
	assert.Equal(t, DBDriverSQLite, c.DBDriver)
	assert.Equal(t, 30*time.Minute, c.SessionTTL)
	assert.Equal(t, 5, c.ProviderGatewayRetries)
	assert.Equal(t, "dev", c.AppEnv)
	assert.True(t, c.IsDev())
	assert.Equal(t, 24*time.Hour, c.IdempotencyTTL)
}

func TestLoad_MissingFile(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, (&Config{DBDriver: "mysql"}).Validate())
	assert.Error(t, (&Config{DBDriver: DBDriverPostgres}).Validate())
	assert.NoError(t, (&Config{DBDriver: DBDriverPostgres, PostgresWriteHost: "db"}).Validate())
	assert.NoError(t, (&Config{DBDriver: DBDriverSQLite, SQLitePath: "x.db"}).Validate())
}

func TestPostgresReadConfig_FallsBackToWrite(t *testing.T) {
	c := &Config{
		PostgresWriteHost:     "primary",
		PostgresWritePort:     "5432",
		PostgresWriteUser:     "wakala",
		PostgresWriteDatabase: "wakala",
		DBTrace:               true,
	}
	read := c.PostgresReadConfig()
	assert.Equal(t, "primary", read.Host)
	assert.True(t, read.Trace)

	c.PostgresReadHost = "replica"
	c.PostgresReadPort = "5433"
	read = c.PostgresReadConfig()
	assert.Equal(t, "replica", read.Host)
	assert.Equal(t, "5433", read.Port)
	assert.Equal(t, "primary", c.PostgresWriteConfig().Host)
}

func TestEnvPathFromArgs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_ENV=test\n"), 0o600))

	assert.Equal(t, path, EnvPathFromArgs([]string{"api", "--env=" + path}, ""))
	assert.Equal(t, path, EnvPathFromArgs([]string{"api"}, path))
	assert.Empty(t, EnvPathFromArgs([]string{"api", "--env=" + filepath.Join(dir, "missing.env")}, ""))
	assert.Empty(t, EnvPathFromArgs([]string{"api"}, ""))
}
