package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paren/interpreter-go/pkg/interpreter"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	writeFile(t, path, `
prompt: "> "
color: false
parse_cache_size: 16
max_depth: 500
journal: state/journal.db
preload:
  - prelude.paren
  - /abs/lib.paren
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "> ", cfg.Prompt)
	assert.Equal(t, "....> ", cfg.ContinuationPrompt, "omitted fields keep their defaults")
	assert.False(t, cfg.Color)
	assert.Equal(t, 16, cfg.ParseCacheSize)
	assert.Equal(t, 500, cfg.MaxDepth)
	assert.Equal(t, filepath.Join(dir, "state", "journal.db"), cfg.Journal)
	assert.Equal(t, []string{filepath.Join(dir, "prelude.paren"), "/abs/lib.paren"}, cfg.Preload)
}

func TestLoadConfigSinglePreload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	writeFile(t, path, "preload: only.paren\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, interpreter.DefaultMaxDepth, cfg.MaxDepth)
	assert.Equal(t, []string{filepath.Join(dir, "only.paren")}, cfg.Preload)
}

func TestLoadConfigErrors(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"unknown field": "promt: oops\n",
		"bad type":      "parse_cache_size: many\n",
		"bad preload":   "preload: {a: b}\n",
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigFileName)
			writeFile(t, path, contents)
			_, err := LoadConfig(path)
			require.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	_, err = LoadConfig("")
	require.Error(t, err)
}

func TestLoadConfigReportsAllValidationIssues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	writeFile(t, path, "prompt: \"\"\nparse_cache_size: -1\nmax_depth: 0\npreload: [\"\"]\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{"prompt must be non-empty", "parse_cache_size must be >= 0", "max_depth must be >= 1", "preload[0]"} {
		assert.True(t, strings.Contains(msg, want), "missing %q in %s", want, msg)
	}
}

func TestFindConfigWalksUp(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ConfigFileName)
	writeFile(t, path, "color: true\n")
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindConfig(nested)
	require.NoError(t, err)
	assert.Equal(t, path, found)
}

func TestResolveConfig(t *testing.T) {
	t.Setenv(ConfigEnvVar, "")
	empty := t.TempDir()
	cfg, err := ResolveConfig("", empty)
	require.NoError(t, err)
	if cfg.Path != "" {
		// a paren.yml above the temp dir would be picked up; only check defaults otherwise
		t.Skipf("found unrelated config at %s", cfg.Path)
	}
	assert.Equal(t, DefaultConfig().Prompt, cfg.Prompt)

	explicit := filepath.Join(t.TempDir(), "custom.yml")
	writeFile(t, explicit, "prompt: \"x> \"\n")
	cfg, err = ResolveConfig(explicit, empty)
	require.NoError(t, err)
	assert.Equal(t, "x> ", cfg.Prompt)

	fromEnv := filepath.Join(t.TempDir(), "env.yml")
	writeFile(t, fromEnv, "prompt: \"env> \"\n")
	t.Setenv(ConfigEnvVar, fromEnv)
	cfg, err = ResolveConfig("", empty)
	require.NoError(t, err)
	assert.Equal(t, "env> ", cfg.Prompt)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".paren_history"), expandHome("~/.paren_history"))
	assert.Equal(t, "relative/path", expandHome("relative/path"))
}
