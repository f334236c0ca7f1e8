package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, public, private string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "public.yaml"), []byte(public), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "private.yaml"), []byte(private), 0o600))
	return dir
}

func TestMustLoad_Defaults(t *testing.T) {
	dir := writeConfig(t,
		"server: https://chat.example.com\n",
		"user_id: u1\nauth_token: secret\n",
	)

	cfg := MustLoad(dir)

	assert.Equal(t, "https://chat.example.com", cfg.Public.Server)
	assert.Equal(t, 50, cfg.Public.ThreadsPageSize)
	assert.Equal(t, 15*time.Second, cfg.Public.RequestTimeout)
	assert.True(t, cfg.Public.UseMarkdown)
	assert.Equal(t, DriverSQLite, cfg.Public.Storage.Driver)
	assert.Equal(t, "u1", cfg.Private.UserID)
}

func TestMustLoad_Overrides(t *testing.T) {
	dir := writeConfig(t,
		"server: https://chat.example.com\nthreads_page_size: 20\nrequest_timeout: 3s\nuse_markdown: false\nlog:\n  level: debug\n  format: json\n",
		"user_id: u1\nauth_token: secret\n",
	)

	cfg := MustLoad(dir)

	assert.Equal(t, 20, cfg.Public.ThreadsPageSize)
	assert.Equal(t, 3*time.Second, cfg.Public.RequestTimeout)
	assert.False(t, cfg.Public.UseMarkdown)
	assert.Equal(t, "json", cfg.Public.Log.Format)
}

func TestMustLoad_EnvFile(t *testing.T) {
	dir := writeConfig(t,
		"server: https://chat.example.com\n",
		"user_id: u1\nauth_token: from-yaml\n",
	)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ROOMKIT_AUTH_TOKEN=from-env\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("ROOMKIT_AUTH_TOKEN") })

	cfg := MustLoad(dir)

	assert.Equal(t, "from-env", cfg.Private.AuthToken)
}

func TestMustLoad_RequiredFields(t *testing.T) {
	// auth_token is intentionally missing
	dir := writeConfig(t,
		"server: https://chat.example.com\n",
		"user_id: u1\n",
	)

	assert.Panics(t, func() { _ = MustLoad(dir) })
}

func TestMustLoad_MissingFile(t *testing.T) {
	assert.Panics(t, func() { _ = MustLoad(t.TempDir()) })
}

func TestValidate_PostgresNeedsHost(t *testing.T) {
	cfg := &Config{Public: Default(), Private: Private{UserID: "u", AuthToken: "t"}}
	cfg.Public.Server = "https://chat.example.com"
	cfg.Public.Storage.Driver = DriverPostgres

	require.Error(t, cfg.Validate())

	cfg.Private.Pg.Host = "localhost"
	require.NoError(t, cfg.Validate())
}
