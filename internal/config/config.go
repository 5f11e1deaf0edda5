// Package config provides configuration loading and structs for tablekit.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Reader    ReaderConfig    `yaml:"reader"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Export    ExportConfig    `yaml:"export"`
	Watch     WatchConfig     `yaml:"watch"`
	Server    ServerConfig    `yaml:"server"`
}

// ReaderConfig holds detection candidates and read flags.
type ReaderConfig struct {
	Encodings             []string `yaml:"encodings"`
	Delimiters            []string `yaml:"delimiters"`
	CaptureBadLines       bool     `yaml:"capture_bad_lines"`
	SkipLeadingEmptyRows  *bool    `yaml:"skip_leading_empty_rows"`
	SkipTrailingEmptyRows *bool    `yaml:"skip_trailing_empty_rows"`
	DetectHeader          bool     `yaml:"detect_header"`
	SkipRows              int      `yaml:"skip_rows"`
}

// NormalizeConfig holds column and value normalization settings.
type NormalizeConfig struct {
	Columns          *bool  `yaml:"columns"`
	Values           bool   `yaml:"values"`
	Case             string `yaml:"case"`
	EmptyColumnName  string `yaml:"empty_column_name"`
	Trim             *bool  `yaml:"trim"`
	DropEmptyRows    bool   `yaml:"drop_empty_rows"`
	DropEmptyColumns bool   `yaml:"drop_empty_columns"`
}

// ExportConfig holds output settings.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir"`
	Method    string `yaml:"method"`
	MaxRows   int    `yaml:"max_rows"`
	SheetName string `yaml:"sheet_name"`
	IfExists  string `yaml:"if_exists"`
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
	// Method is the export method for converted files; empty means Export.Method.
	Method string `yaml:"method"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// MaxUploadMB bounds the size of an uploaded file.
	MaxUploadMB int `yaml:"max_upload_mb"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// BoolOr returns *b, or def when b is nil.
func BoolOr(b *bool, def bool) bool {
	if b != nil {
		return *b
	}
	return def
}

// Default returns a config with every default applied.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Export.OutputDir = expandPath(cfg.Export.OutputDir, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
