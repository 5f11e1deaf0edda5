package config

import (
	"github.com/hyperjump/tablekit/internal/export"
	"github.com/hyperjump/tablekit/internal/normalize"
	"github.com/hyperjump/tablekit/internal/reader"
	"github.com/hyperjump/tablekit/internal/textenc"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if len(cfg.Reader.Encodings) == 0 {
		cfg.Reader.Encodings = append([]string(nil), textenc.DefaultEncodings...)
	}
	if len(cfg.Reader.Delimiters) == 0 {
		cfg.Reader.Delimiters = append([]string(nil), reader.DefaultDelimiters...)
	}
	if cfg.Reader.SkipLeadingEmptyRows == nil {
		t := true
		cfg.Reader.SkipLeadingEmptyRows = &t
	}
	if cfg.Reader.SkipTrailingEmptyRows == nil {
		t := true
		cfg.Reader.SkipTrailingEmptyRows = &t
	}
	if cfg.Normalize.Columns == nil {
		t := true
		cfg.Normalize.Columns = &t
	}
	if cfg.Normalize.Case == "" {
		cfg.Normalize.Case = string(normalize.CaseLower)
	}
	if cfg.Normalize.EmptyColumnName == "" {
		cfg.Normalize.EmptyColumnName = normalize.DefaultPlaceholder
	}
	if cfg.Normalize.Trim == nil {
		t := true
		cfg.Normalize.Trim = &t
	}
	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = "./output"
	}
	if cfg.Export.Method == "" {
		cfg.Export.Method = export.MethodCSV
	}
	if cfg.Export.MaxRows == 0 {
		cfg.Export.MaxRows = export.DefaultMaxRows
	}
	if cfg.Export.IfExists == "" {
		cfg.Export.IfExists = export.IfExistsFail
	}
	if cfg.Watch.Method == "" {
		cfg.Watch.Method = cfg.Export.Method
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 32
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
