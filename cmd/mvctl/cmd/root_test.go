package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate clears every shared setting so loadConfig's os.Setenv calls are undone.
func isolate(t *testing.T) {
	t.Helper()

	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, key := range sharedKeys {
		t.Setenv(strings.ToUpper(strings.ReplaceAll(key, "-", "_")), "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	root := Root()
	cmd, _, err := root.Find([]string{"migrate", "status"})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags(nil))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "sqlite", cfg.DBDriver)
}

func TestLoadConfigPrecedence(t *testing.T) {
	isolate(t)

	require.NoError(t, os.WriteFile(filepath.Join(".", "mvctl.yaml"), []byte("db-connection: from-file.db\nmeili-url: http://file:7700\n"), 0o644))
	t.Setenv("MEILI_URL", "http://env:7700")

	root := Root()
	cmd, _, err := root.Find([]string{"migrate", "status"})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags([]string{"--db-driver", "pgx"}))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "pgx", cfg.DBDriver, "flag")
	assert.Equal(t, "http://env:7700", cfg.MeiliURL, "env beats file")
	assert.Equal(t, "from-file.db", cfg.DBConnection, "file beats default")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "unbounded", truncate("unbounded", 0))
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Author", "Quote"}, [][]string{{"Seneca", "Luck is what happens when preparation meets opportunity."}}, 20)
	assert.Contains(t, out, "Author")
	assert.Contains(t, out, "Seneca")
	assert.NotContains(t, out, "opportunity")
}
