package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "typescript", cfg.Language)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, filepath.Join(".codebridge", "journal.db"), cfg.Journal.Path)
	assert.Equal(t, 3, cfg.Diff.Context)
	assert.True(t, cfg.Response.Strip)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/codebridge.yaml")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ValidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "codebridge.yaml")
	content := `
notation: rs
language: javascript
logging:
  level: debug
  json: true
journal:
  enabled: false
diff:
  context: 5
rules:
  - notation: structural-class
    language: javascript
    paths: ["legacy/**/*.ts"]
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "rs", cfg.Notation)
	assert.Equal(t, "javascript", cfg.Language)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.False(t, cfg.Journal.Enabled)
	assert.Equal(t, 5, cfg.Diff.Context)
	assert.True(t, cfg.Response.Strip, "unset keys keep their defaults")

	r, ok := cfg.Matcher().Match("legacy/a/b.ts")
	require.True(t, ok)
	assert.Equal(t, "javascript", r.Language)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "notation: [unterminated"},
		{"unknown notation", "notation: cobol"},
		{"non-class language", "language: rust"},
		{"negative context", "diff:\n  context: -1"},
		{"rule without paths", "rules:\n  - notation: style-rule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "codebridge.yaml")
			require.NoError(t, os.WriteFile(configPath, []byte(tt.content), 0644))

			_, err := Load(configPath)
			assert.Error(t, err)
		})
	}
}

func TestLoadFromDir(t *testing.T) {
	t.Run("root file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "codebridge.yaml"), []byte("diff:\n  context: 8\n"), 0644))

		cfg, err := LoadFromDir(dir)
		require.NoError(t, err)
		assert.Equal(t, 8, cfg.Diff.Context)
	})

	t.Run("hidden directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".codebridge"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".codebridge", "config.yaml"), []byte("logging:\n  level: warn\n"), 0644))

		cfg, err := LoadFromDir(dir)
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.Logging.Level)
	})

	t.Run("defaults", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := LoadFromDir(dir)
		require.NoError(t, err)
		assert.Equal(t, JournalPath(dir), cfg.Journal.Path)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codebridge.yaml")
	cfg := DefaultConfig()
	cfg.Notation = "css"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "css", loaded.Notation)
}

func TestEnsureDir(t *testing.T) {
	path := JournalPath(t.TempDir())
	require.NoError(t, EnsureDir(path))

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
