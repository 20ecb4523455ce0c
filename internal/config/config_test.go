package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join(cfg.Home, "phasetrack.db"), cfg.Storage.DBPath)
	assert.Equal(t, 20, cfg.History.Limit)
	assert.False(t, cfg.Logging.UseCases)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_HomeWithoutFile(t *testing.T) {
	home := t.TempDir()
	cfg, err := load(envMap(map[string]string{EnvHome: home}))
	require.NoError(t, err)
	assert.Equal(t, home, cfg.Home)
	assert.Equal(t, filepath.Join(home, "phasetrack.db"), cfg.Storage.DBPath)
}

func TestLoad_TOMLFile(t *testing.T) {
	home := t.TempDir()
	writeFile(t, filepath.Join(home, FileName), `
[storage]
db_path = "/data/studies.db"

[logging]
use_cases = true

[history]
limit = 5
`)

	cfg, err := load(envMap(map[string]string{EnvHome: home}))
	require.NoError(t, err)
	assert.Equal(t, "/data/studies.db", cfg.Storage.DBPath)
	assert.True(t, cfg.Logging.UseCases)
	assert.Equal(t, 5, cfg.History.Limit)
	assert.Equal(t, 20, cfg.Display.BarWidth, "unset keys keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	writeFile(t, filepath.Join(home, FileName), "[history]\nlimit = 5\n")

	cfg, err := load(envMap(map[string]string{
		EnvHome:         home,
		EnvDB:           "/tmp/override.db",
		EnvLogUseCases:  "true",
		EnvHistoryLimit: "50",
	}))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.Storage.DBPath)
	assert.True(t, cfg.Logging.UseCases)
	assert.Equal(t, 50, cfg.History.Limit)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]struct {
		file string
		env  map[string]string
	}{
		"bad toml":       {file: "[history\nlimit = "},
		"bad bool":       {env: map[string]string{EnvLogUseCases: "maybe"}},
		"bad limit":      {env: map[string]string{EnvHistoryLimit: "ten"}},
		"negative limit": {env: map[string]string{EnvHistoryLimit: "-1"}},
		"bar width":      {file: "[display]\nbar_width = 200\n"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			home := t.TempDir()
			if tc.file != "" {
				writeFile(t, filepath.Join(home, FileName), tc.file)
			}
			env := map[string]string{EnvHome: home}
			for k, v := range tc.env {
				env[k] = v
			}
			_, err := load(envMap(env))
			assert.Error(t, err)
		})
	}
}

func TestLoad_DotEnvFiles(t *testing.T) {
	home := t.TempDir()
	dir := t.TempDir()
	first := filepath.Join(dir, ".env")
	second := filepath.Join(dir, ".env.local")
	writeFile(t, first, EnvHome+"="+home+"\n"+EnvHistoryLimit+"=7\n")
	writeFile(t, second, EnvHistoryLimit+"=99\n"+EnvDB+"=/from/dotenv.db\n")

	t.Setenv(EnvHome, "")
	t.Setenv(EnvHistoryLimit, "")
	t.Setenv(EnvLogUseCases, "")
	t.Setenv(EnvDB, "/from/process.db")

	cfg, err := Load(first, filepath.Join(dir, "missing.env"), second)
	require.NoError(t, err)
	assert.Equal(t, home, cfg.Home)
	assert.Equal(t, 7, cfg.History.Limit, "earlier file wins")
	assert.Equal(t, "/from/process.db", cfg.Storage.DBPath, "process env wins over .env")
}

func TestSaveAndReload(t *testing.T) {
	home := t.TempDir()
	cfg := DefaultConfig()
	cfg.Home = home
	cfg.Storage.DBPath = filepath.Join(home, "custom.db")
	cfg.History.Limit = 3
	require.NoError(t, Save(cfg))

	got, err := load(envMap(map[string]string{EnvHome: home}))
	require.NoError(t, err)
	assert.Equal(t, cfg.Storage.DBPath, got.Storage.DBPath)
	assert.Equal(t, 3, got.History.Limit)
}

func TestEncode_OmitsHome(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, DefaultConfig()))
	out := buf.String()
	assert.Contains(t, out, "[storage]")
	assert.Contains(t, out, "db_path")
	assert.NotContains(t, out, "Home")
}
