package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/CreativeUnicorns/extprefs"
	"github.com/CreativeUnicorns/extprefs/storage"
)

// run executes the command line and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGet(t *testing.T) {
	out, err := run(t, "get", extprefs.KeyPatternsBackups, extprefs.KeyDataDirectory, extprefs.KeyEnabled)
	require.NoError(t, err)
	assert.Equal(t, "extensions.autoproxy2.patternsbackups = 5\n"+
		"extensions.autoproxy2.data_directory = \"autoproxy2\"\n"+
		"extensions.autoproxy2.enabled = true\n", out)

	_, err = run(t, "get", "extensions.autoproxy2.nonexistent")
	assert.ErrorIs(t, err, extprefs.ErrNotFound)

	_, err = run(t, "get")
	assert.Error(t, err)
}

func TestGet_Profile(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "overrides.db")
	store, err := storage.NewSQLiteStorage(dsn)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), &extprefs.Override{
		Profile: "alice", Key: extprefs.KeyPatternsBackups, Value: extprefs.IntValue(9),
	}))
	require.NoError(t, store.Close())

	t.Setenv("EXTPREFS_STORAGE_DRIVER", "sqlite")
	t.Setenv("EXTPREFS_STORAGE_DSN", dsn)
	t.Setenv("EXTPREFS_CACHE_DRIVER", "none")

	out, err := run(t, "get", "--profile", "alice", extprefs.KeyPatternsBackups, extprefs.KeySaveStats)
	require.NoError(t, err)
	assert.Equal(t, "extensions.autoproxy2.patternsbackups = 9 (overridden)\n"+
		"extensions.autoproxy2.savestats = true\n", out)
}

func TestList(t *testing.T) {
	out, err := run(t, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 32)
	assert.Contains(t, lines[0], extprefs.KeyCurrentVersion)
	assert.Contains(t, lines[0], "string")
	assert.Contains(t, lines[0], `"0.0"`)

	out, err = run(t, "list", "--prefix", extprefs.Namespace+"subscriptions_")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimRight(out, "\n"), "\n"), 6)

	out, err = run(t, "list", "--prefix", "browser.")
	require.NoError(t, err)
	assert.Equal(t, "no preferences declared\n", out)
}

func TestDump(t *testing.T) {
	t.Run("js", func(t *testing.T) {
		out, err := run(t, "dump")
		require.NoError(t, err)
		reg, err := extprefs.Load(strings.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, extprefs.Defaults().Entries(), reg.Entries())
	})

	t.Run("json", func(t *testing.T) {
		out, err := run(t, "dump", "--format", "json")
		require.NoError(t, err)
		var values map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &values))
		assert.Len(t, values, 32)
		assert.Equal(t, float64(5), values[extprefs.KeyPatternsBackups])
		assert.Equal(t, "[]", values[extprefs.KeyRecentReports])
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := run(t, "dump", "-f", "yaml", "--prefix", extprefs.Namespace+"patterns")
		require.NoError(t, err)
		var values map[string]interface{}
		require.NoError(t, yaml.Unmarshal([]byte(out), &values))
		assert.Equal(t, map[string]interface{}{
			extprefs.KeyPatternsBackups:        5,
			extprefs.KeyPatternsBackupInterval: 24,
		}, values)
	})

	t.Run("toml", func(t *testing.T) {
		out, err := run(t, "dump", "-f", "toml")
		require.NoError(t, err)
		var values map[string]interface{}
		require.NoError(t, toml.Unmarshal([]byte(out), &values))
		assert.Len(t, values, 32)
		assert.Equal(t, int64(24), values[extprefs.KeyPatternsBackupInterval])
		assert.Equal(t, false, values[extprefs.KeySyncEngine])
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := run(t, "dump", "-f", "xml")
		assert.ErrorContains(t, err, `unknown format "xml"`)
	})
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.js")
	bad := filepath.Join(dir, "bad.js")
	require.NoError(t, os.WriteFile(good, extprefs.DefaultDeclarations(), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte("pref(\"a\", 1);\npref(\"a\", 2);\n"), 0o600))

	out, err := run(t, "check", good)
	require.NoError(t, err)
	assert.Contains(t, out, "32 preferences")

	out, err = run(t, "check", good, bad)
	assert.EqualError(t, err, "1 of 2 files failed")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "lines 1 and 2")
}

func TestExpand(t *testing.T) {
	out, err := run(t, "expand", extprefs.KeyDocumentationLink)
	require.NoError(t, err)
	assert.Equal(t, "LINK\nLANG\n", out)

	out, err = run(t, "expand", extprefs.KeyDocumentationLink, "LINK=faq", "LANG=en-US")
	require.NoError(t, err)
	assert.Equal(t, "https://adblockplus.org/redirect?link=faq&lang=en-US\n", out)

	out, err = run(t, "expand", "--url", extprefs.KeyReportSubmitURL, "GUID=a b", "LANG=en")
	require.NoError(t, err)
	assert.Equal(t, "https://reports.adblockplus.org/submitReport?version=1&guid=a%20b&lang=en\n", out)

	_, err = run(t, "expand", extprefs.KeyDocumentationLink, "LINK")
	assert.ErrorIs(t, err, extprefs.ErrInvalidInput)

	_, err = run(t, "expand", extprefs.KeyPatternsBackups)
	assert.ErrorIs(t, err, extprefs.ErrTypeMismatch)
}

func TestDefaultsFileSetting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.js")
	require.NoError(t, os.WriteFile(path, []byte("pref(\"app.theme\", \"dark\");\n"), 0o600))
	t.Setenv("EXTPREFS_DEFAULTS_FILE", path)

	out, err := run(t, "get", "app.theme")
	require.NoError(t, err)
	assert.Equal(t, "app.theme = \"dark\"\n", out)

	_, err = run(t, "get", extprefs.KeyEnabled)
	assert.ErrorIs(t, err, extprefs.ErrNotFound)
}

func TestInvalidConfig(t *testing.T) {
	t.Setenv("EXTPREFS_STORAGE_DRIVER", "mysql")
	_, err := run(t, "list")
	assert.ErrorContains(t, err, "storage.driver")
}
