package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"blocknote/pkg/notedoc"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "notes.db"
	EnvConfigPath         = "BLOCKNOTE_CONFIG"

	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

type EditorConfig struct {
	FontSize     int    `toml:"font_size"`
	Alignment    string `toml:"alignment"`
	IndentText   string `toml:"indent_text"`
	HistoryLimit int    `toml:"history_limit"`
}

type StoreConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type ExportConfig struct {
	Compression bool `toml:"compression"`
	Encryption  bool `toml:"encryption"`
}

type Config struct {
	Editor EditorConfig `toml:"editor"`
	Store  StoreConfig  `toml:"store"`
	Log    LogConfig    `toml:"log"`
	Export ExportConfig `toml:"export"`
}

// ResolvePath returns $BLOCKNOTE_CONFIG or <user config dir>/blocknote/config.toml.
func ResolvePath() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, "blocknote", DefaultConfigFileName)
}

// LoadOrCreate reads the config at path, writing defaults when it does not
// exist yet. Relative store paths resolve against the config directory.
func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolve(path), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg.resolve(path), nil
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverBolt:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if !notedoc.Alignment(c.Editor.Alignment).Valid() {
		return fmt.Errorf("invalid alignment %q", c.Editor.Alignment)
	}
	if c.Editor.FontSize <= 0 {
		return fmt.Errorf("font size must be positive, got %d", c.Editor.FontSize)
	}
	return nil
}

func (c Config) resolve(path string) Config {
	if c.Store.Path == "" {
		c.Store.Path = DefaultDBName
	}
	if !filepath.IsAbs(c.Store.Path) {
		c.Store.Path = filepath.Join(filepath.Dir(path), c.Store.Path)
	}
	if c.Editor.IndentText == "" {
		c.Editor.IndentText = notedoc.IndentText
	}
	if c.Editor.HistoryLimit <= 0 {
		c.Editor.HistoryLimit = Default().Editor.HistoryLimit
	}
	return c
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func Default() Config {
	return Config{
		Editor: EditorConfig{
			FontSize:     notedoc.DefaultFontSize,
			Alignment:    string(notedoc.AlignLeft),
			IndentText:   notedoc.IndentText,
			HistoryLimit: 200,
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   DefaultDBName,
		},
		Log: LogConfig{
			Level: "info",
		},
		Export: ExportConfig{
			Compression: true,
		},
	}
}
