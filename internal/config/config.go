// Package config resolves runtime settings from built-in defaults, an
// optional TOML file in the data directory, .env files and the process
// environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	EnvHome         = "PHASETRACK_HOME"
	EnvDB           = "PHASETRACK_DB"
	EnvLogUseCases  = "PHASETRACK_LOG_USE_CASES"
	EnvHistoryLimit = "PHASETRACK_HISTORY_LIMIT"

	// FileName is the config file looked up inside Home.
	FileName = "config.toml"
)

type Config struct {
	// Home is the data directory. It is resolved before the TOML file is
	// read and is never taken from it.
	Home    string        `toml:"-"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
	History HistoryConfig `toml:"history"`
	Display DisplayConfig `toml:"display"`
}

type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

type LoggingConfig struct {
	// UseCases writes one slog record per service call to stderr.
	UseCases bool `toml:"use_cases"`
}

type HistoryConfig struct {
	Limit int `toml:"limit"`
}

type DisplayConfig struct {
	BarWidth int `toml:"bar_width"`
}

func DefaultConfig() Config {
	home := defaultHome()
	return Config{
		Home:    home,
		Storage: StorageConfig{DBPath: filepath.Join(home, "phasetrack.db")},
		History: HistoryConfig{Limit: 20},
		Display: DisplayConfig{BarWidth: 20},
	}
}

// Load resolves the configuration for the current process. envFiles are
// read with godotenv; missing files are skipped and non-empty process
// environment variables win over their values.
func Load(envFiles ...string) (Config, error) {
	dotenv, err := readEnvFiles(envFiles)
	if err != nil {
		return Config{}, err
	}
	getenv := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
	return load(getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()

	if home := getenv(EnvHome); home != "" {
		cfg.Home = home
		cfg.Storage.DBPath = filepath.Join(home, "phasetrack.db")
	}

	path := filepath.Join(cfg.Home, FileName)
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if v := getenv(EnvDB); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := getenv(EnvLogUseCases); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvLogUseCases, err)
		}
		cfg.Logging.UseCases = b
	}
	if v := getenv(EnvHistoryLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvHistoryLimit, err)
		}
		cfg.History.Limit = n
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Storage.DBPath == "" {
		return errors.New("storage.db_path must not be empty")
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("history.limit must be >= 0, got %d", c.History.Limit)
	}
	if c.Display.BarWidth < 5 || c.Display.BarWidth > 80 {
		return fmt.Errorf("display.bar_width must be between 5 and 80, got %d", c.Display.BarWidth)
	}
	return nil
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Save writes cfg to Home/config.toml, creating the directory if needed.
func Save(cfg Config) error {
	path := filepath.Join(cfg.Home, FileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()
	return Encode(f, cfg)
}

func readEnvFiles(files []string) (map[string]string, error) {
	merged := map[string]string{}
	for _, name := range files {
		if _, err := os.Stat(name); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		vals, err := godotenv.Read(name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		// Earlier files win, matching godotenv.Load.
		for k, v := range vals {
			if _, ok := merged[k]; !ok {
				merged[k] = v
			}
		}
	}
	return merged, nil
}

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".phasetrack"
	}
	return filepath.Join(home, ".phasetrack")
}
