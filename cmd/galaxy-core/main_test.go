package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("GALAXY_INT", "42")
	t.Setenv("GALAXY_BAD_INT", "x")
	t.Setenv("GALAXY_BOOL", "true")
	t.Setenv("GALAXY_DURATION", "90s")
	t.Setenv("GALAXY_LIST", "https://a.example, ,https://b.example")

	assert.Equal(t, "fallback", getEnv("GALAXY_UNSET", "fallback"))
	assert.Equal(t, 42, getEnvInt("GALAXY_INT", 1))
	assert.Equal(t, 1, getEnvInt("GALAXY_BAD_INT", 1))
	assert.True(t, getEnvBool("GALAXY_BOOL", false))
	assert.Equal(t, 90*time.Second, getEnvDuration("GALAXY_DURATION", time.Second))
	assert.Equal(t, time.Second, getEnvDuration("GALAXY_UNSET", time.Second))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, getEnvList("GALAXY_LIST", nil))
}

func TestSelectBackend(t *testing.T) {
	t.Setenv("ARCHIVE_BACKEND", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("DATABASE_URL", "")
	assert.Equal(t, "memory", selectBackend())

	t.Setenv("DATABASE_URL", "postgres://localhost/galaxy")
	assert.Equal(t, "postgres", selectBackend())

	t.Setenv("REDIS_URL", "redis://localhost:6379")
	assert.Equal(t, "redis", selectBackend())

	t.Setenv("ARCHIVE_BACKEND", "memory")
	assert.Equal(t, "memory", selectBackend())
}

func TestNewRuntimeConfig(t *testing.T) {
	t.Setenv("VAULT_MERGE_KEY", "content")
	t.Setenv("VAULT_TRACKING", "true")

	config, err := newRuntimeConfig("memory")
	require.NoError(t, err)
	assert.Equal(t, domain.MergeKeyContent, config.MergeKey)
	assert.True(t, config.TrackingEnabled())

	t.Setenv("VAULT_MERGE_KEY", "id")
	_, err = newRuntimeConfig("memory")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOpenArchive_UnknownBackend(t *testing.T) {
	t.Setenv("ARCHIVE_BACKEND", "cassandra")
	_, err := openArchive(t.Context(), newLogger())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewSealer(t *testing.T) {
	t.Setenv("ARCHIVE_SEALING_KEY", "")
	sealer, err := newSealer()
	require.NoError(t, err)
	assert.Nil(t, sealer)

	t.Setenv("ARCHIVE_SEALING_KEY", strings.Repeat("ab", 32))
	sealer, err = newSealer()
	require.NoError(t, err)
	assert.NotNil(t, sealer)

	t.Setenv("ARCHIVE_SEALING_KEY", "not-hex")
	_, err = newSealer()
	assert.Error(t, err)
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVaultImportCommand(t *testing.T) {
	t.Setenv("ARCHIVE_BACKEND", "memory")
	t.Setenv("VAULT_MERGE_KEY", "")

	file := filepath.Join(t.TempDir(), "vault.json")
	payload := `[{"id":"1","title":"Monsoon","content":"Wet season","timestamp":"2026-10-01T08:00:00Z"},
	{"title":"Delta","content":"Alluvial plain","timestamp":"2026-10-02T09:30:00Z"}]`
	require.NoError(t, os.WriteFile(file, []byte(payload), 0o644))

	out, err := runCLI(t, "vault", "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 entries (2 added, 0 updated), vault now holds 2")
}

func TestVaultImportCommand_InvalidPayload(t *testing.T) {
	t.Setenv("ARCHIVE_BACKEND", "memory")

	file := filepath.Join(t.TempDir(), "vault.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"not":"an array"}`), 0o644))

	_, err := runCLI(t, "vault", "import", file)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestVaultExportCommand(t *testing.T) {
	t.Setenv("ARCHIVE_BACKEND", "memory")
	dir := t.TempDir()

	out, err := runCLI(t, "vault", "export", dir)
	require.NoError(t, err)

	name := domain.ExportFileName(time.Now())
	assert.Contains(t, out, "Exported 0 entries")
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}
