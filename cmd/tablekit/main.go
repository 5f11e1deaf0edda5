// Package main is the tablekit CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tablekit/internal/cli"
	"github.com/hyperjump/tablekit/internal/config"
	"github.com/hyperjump/tablekit/internal/export"
	"github.com/hyperjump/tablekit/internal/reader"
	"github.com/hyperjump/tablekit/internal/server"
	"github.com/hyperjump/tablekit/internal/suggest"
	"github.com/hyperjump/tablekit/internal/textenc"
	"github.com/hyperjump/tablekit/internal/watcher"
	"github.com/hyperjump/tablekit/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/tablekit/config.yaml"

var commands = []string{"read", "convert", "batch", "sheets", "tables", "watch", "serve", "formats", "version", "help"}

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory takes precedence, and a missing default file yields the built-in
// defaults. Returns the config and the path actually loaded ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "read":
		runRead()
	case "convert":
		runConvert()
	case "batch":
		runBatch()
	case "sheets":
		runSheets()
	case "tables":
		runTables()
	case "watch":
		runWatch()
	case "serve":
		runServe()
	case "formats":
		runFormats()
	case "version", "--version", "-v":
		fmt.Printf("tablekit version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s%s\n", command, suggest.Hint(command, commands))
		printUsage()
		os.Exit(1)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// argsReorder moves flags (and their values) that appear after the positional
// arguments to the front, since flag.Parse stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 1 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// readFlags are the flags shared by every command that reads tables.
type readFlags struct {
	config          *string
	debug           *bool
	output          *string
	rows            *int
	encodings       *string
	delimiters      *string
	captureBadLines *bool
	skipRows        *int
	detectHeader    *bool
	columns         *bool
	values          *bool
	caseMode        *string
	sheet           *string
	sheetIndex      *int
	table           *int
	orient          *string
	lines           *bool
}

func registerReadFlags(fs *flag.FlagSet) *readFlags {
	return &readFlags{
		config:          fs.String("config", defaultConfigPath, "config file path"),
		debug:           fs.Bool("debug", false, "enable debug logging (encoding and delimiter trace)"),
		output:          fs.String("output", "text", "output format: text or json"),
		rows:            fs.Int("rows", cli.DefaultPreviewRows, "number of preview rows"),
		encodings:       fs.String("encodings", "", "comma-separated candidate encodings, tried in order"),
		delimiters:      fs.String("delimiters", "", "candidate delimiters: comma, semicolon, tab, pipe, space or literal characters"),
		captureBadLines: fs.Bool("capture-bad-lines", false, "report malformed lines instead of only logging them"),
		skipRows:        fs.Int("skip-rows", 0, "physical lines to skip before the header"),
		detectHeader:    fs.Bool("detect-header", false, "find the header among the first rows"),
		columns:         fs.Bool("normalize-columns", true, "normalize column names"),
		values:          fs.Bool("normalize-values", false, "add <column>_norm companion columns"),
		caseMode:        fs.String("case", "", "case mode for normalization: lower, upper or none"),
		sheet:           fs.String("sheet", "", "workbook sheet name"),
		sheetIndex:      fs.Int("sheet-index", 0, "workbook sheet index"),
		table:           fs.Int("table", 0, "HTML table index"),
		orient:          fs.String("orient", "", "JSON layout: records, columns, index, values or split"),
		lines:           fs.Bool("lines", false, "read JSON Lines"),
	}
}

// applyFlags copies the explicitly set flags onto cfg, so unset flags keep config values.
func applyFlags(fs *flag.FlagSet, rf *readFlags, cfg *config.Config) error {
	var err error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "debug":
			cfg.Debug = cfg.Debug || *rf.debug
		case "encodings":
			encs := splitList(*rf.encodings)
			for _, e := range encs {
				if !textenc.Known(e) {
					err = fmt.Errorf("unknown encoding %q", e)
				}
			}
			cfg.Reader.Encodings = encs
		case "delimiters":
			cfg.Reader.Delimiters = parseDelimiters(*rf.delimiters)
		case "capture-bad-lines":
			cfg.Reader.CaptureBadLines = *rf.captureBadLines
		case "skip-rows":
			cfg.Reader.SkipRows = *rf.skipRows
		case "detect-header":
			cfg.Reader.DetectHeader = *rf.detectHeader
		case "normalize-columns":
			cfg.Normalize.Columns = rf.columns
		case "normalize-values":
			cfg.Normalize.Values = *rf.values
		case "case":
			cfg.Normalize.Case = *rf.caseMode
		}
	})
	return err
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDelimiters(s string) []string {
	if s == "," {
		return []string{","}
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "":
			if part != "" {
				out = append(out, part)
			}
		case "comma":
			out = append(out, ",")
		case "semicolon":
			out = append(out, ";")
		case "tab", `\t`:
			out = append(out, "\t")
		case "pipe":
			out = append(out, "|")
		case "space":
			out = append(out, " ")
		default:
			out = append(out, strings.TrimSpace(part))
		}
	}
	return out
}

// session is what every reading command needs after flags and config are resolved.
type session struct {
	cfg     *config.Config
	logger  *zap.Logger
	factory *reader.Factory
	opts    reader.ReadOptions
	format  cli.OutputFormat
}

func newSession(fs *flag.FlagSet, rf *readFlags) (*session, error) {
	cfg, resolved, err := loadConfig(*rf.config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyFlags(fs, rf, cfg); err != nil {
		return nil, err
	}
	format, err := cli.ParseOutputFormat(*rf.output)
	if err != nil {
		return nil, err
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", cfg.Debug))

	opts, err := cli.ReadOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts.Sheet = *rf.sheet
	opts.SheetIndex = *rf.sheetIndex
	opts.TableIndex = *rf.table
	opts.Orient = *rf.orient
	opts.Lines = *rf.lines

	return &session{
		cfg:     cfg,
		logger:  logger,
		factory: reader.NewFactory(cli.ReaderOptions(cfg, logger)...),
		opts:    opts,
		format:  format,
	}, nil
}

func runRead() {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	rf := registerReadFlags(fs)
	_ = fs.Parse(argsReorder(os.Args[2:]))
	if fs.NArg() < 1 {
		fail("Usage: tablekit read [flags] <file>")
	}
	s, err := newSession(fs, rf)
	if err != nil {
		fail("%v", err)
	}
	defer s.logger.Sync()

	res, err := s.factory.Read(fs.Arg(0), s.opts)
	if err != nil {
		fail("Read failed: %v", err)
	}
	if err := cli.WriteResult(os.Stdout, res, s.format, *rf.rows); err != nil {
		fail("Output failed: %v", err)
	}
}

// convertFile reads path and exports it under exp with method, naming the output
// after the file stem unless name is set.
func convertFile(s *session, exp *export.Exporter, path, method, name string) ([]string, error) {
	res, err := s.factory.Read(path, s.opts)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = cli.OutputName(textenc.Stem(path), method)
	}
	return exp.Export(res.Table, method, cli.ExportOptions(s.cfg, name))
}

func runConvert() {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	rf := registerReadFlags(fs)
	method := fs.String("method", "", "export method (default from config: export.method)")
	outDir := fs.String("out", "", "output directory (default from config: export.output_dir)")
	name := fs.String("name", "", "output file name (default: <input stem>.<ext>)")
	_ = fs.Parse(argsReorder(os.Args[2:]))
	if fs.NArg() < 1 {
		fail("Usage: tablekit convert [flags] <file>")
	}
	s, err := newSession(fs, rf)
	if err != nil {
		fail("%v", err)
	}
	defer s.logger.Sync()

	m := firstNonEmpty(*method, s.cfg.Export.Method)
	exp, err := export.New(firstNonEmpty(*outDir, s.cfg.Export.OutputDir), export.WithLogger(s.logger))
	if err != nil {
		fail("%v", err)
	}
	paths, err := convertFile(s, exp, fs.Arg(0), m, *name)
	if err != nil {
		fail("Convert failed: %v", err)
	}
	for _, p := range paths {
		fmt.Printf("Wrote %s\n", p)
	}
}

func runBatch() {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	rf := registerReadFlags(fs)
	method := fs.String("export", "", "also export every table with this method")
	outDir := fs.String("out", "", "output directory for -export (default from config)")
	_ = fs.Parse(argsReorder(os.Args[2:]))
	if fs.NArg() < 1 {
		fail("Usage: tablekit batch [flags] <directory>")
	}
	s, err := newSession(fs, rf)
	if err != nil {
		fail("%v", err)
	}
	defer s.logger.Sync()

	batch, err := s.factory.ReadDir(fs.Arg(0), s.opts)
	if err != nil {
		fail("Batch failed: %v", err)
	}
	if err := cli.WriteBatch(os.Stdout, batch, s.format, *rf.rows); err != nil {
		fail("Output failed: %v", err)
	}
	if *method == "" {
		return
	}
	exp, err := export.New(firstNonEmpty(*outDir, s.cfg.Export.OutputDir), export.WithLogger(s.logger))
	if err != nil {
		fail("%v", err)
	}
	keys := make([]string, 0, batch.Len())
	for k := range batch.Results {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	failed := false
	for _, k := range keys {
		paths, err := exp.Export(batch.Results[k].Table, *method, cli.ExportOptions(s.cfg, cli.OutputName(k, *method)))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Export %s failed: %v\n", k, err)
			failed = true
			continue
		}
		for _, p := range paths {
			fmt.Fprintf(os.Stderr, "Wrote %s\n", p)
		}
	}
	if failed {
		os.Exit(1)
	}
}

func runSheets() {
	fs := flag.NewFlagSet("sheets", flag.ExitOnError)
	rf := registerReadFlags(fs)
	_ = fs.Parse(argsReorder(os.Args[2:]))
	if fs.NArg() < 1 {
		fail("Usage: tablekit sheets [flags] <workbook>")
	}
	s, err := newSession(fs, rf)
	if err != nil {
		fail("%v", err)
	}
	defer s.logger.Sync()

	names, err := reader.NewExcelReader(reader.WithLogger(s.logger)).SheetNames(fs.Arg(0))
	if err != nil {
		fail("Sheets failed: %v", err)
	}
	for i, n := range names {
		fmt.Printf("%d\t%s\n", i, n)
	}
}

func runTables() {
	fs := flag.NewFlagSet("tables", flag.ExitOnError)
	rf := registerReadFlags(fs)
	_ = fs.Parse(argsReorder(os.Args[2:]))
	if fs.NArg() < 1 {
		fail("Usage: tablekit tables [flags] <html-file>")
	}
	s, err := newSession(fs, rf)
	if err != nil {
		fail("%v", err)
	}
	defer s.logger.Sync()

	results, err := reader.NewHTMLReader(reader.WithLogger(s.logger)).ReadAll(fs.Arg(0), s.opts)
	if err != nil {
		fail("Tables failed: %v", err)
	}
	for i, res := range results {
		rows, cols := res.Table.Shape()
		fmt.Printf("%d\t%d rows x %d columns\t%s\n", i, rows, cols, cli.Truncate(strings.Join(res.Table.Columns, ", "), 60))
	}
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	rf := registerReadFlags(fs)
	method := fs.String("method", "", "export method (default from config: watch.method)")
	outDir := fs.String("out", "", "output directory (default from config: export.output_dir)")
	syncExisting := fs.Bool("sync", true, "convert files already present when watching starts")
	_ = fs.Parse(argsReorder(os.Args[2:]))
	s, err := newSession(fs, rf)
	if err != nil {
		fail("%v", err)
	}
	defer s.logger.Sync()

	dirs := fs.Args()
	if len(dirs) == 0 {
		dirs = s.cfg.Watch.Directories
	}
	if len(dirs) == 0 {
		fail("Usage: tablekit watch [flags] <directory>... (or set watch.directories in the config)")
	}
	exts := s.cfg.Watch.Extensions
	if len(exts) == 0 {
		exts = s.factory.SupportedExtensions()
	}
	m := firstNonEmpty(*method, s.cfg.Watch.Method)
	out := firstNonEmpty(*outDir, s.cfg.Export.OutputDir)
	exp, err := export.New(out, export.WithLogger(s.logger))
	if err != nil {
		fail("%v", err)
	}

	w := watcher.New(dirs, func(path string) {
		paths, err := convertFile(s, exp, path, m, "")
		if err != nil {
			s.logger.Warn("convert failed", zap.String("path", path), zap.Error(err))
			return
		}
		fmt.Printf("Converted %s -> %s\n", path, strings.Join(paths, ", "))
	},
		watcher.WithLogger(s.logger),
		watcher.WithExtensions(exts...),
		watcher.WithRecursive(s.cfg.Watch.RecursiveOrDefault()),
		watcher.WithExclude(out),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := w.Start(ctx); err != nil {
		fail("Failed to start watcher: %v", err)
	}
	if *syncExisting {
		w.SyncExistingFiles()
	}
	fmt.Printf("Watching %s (method %s, output %s)\n", strings.Join(w.Directories(), ", "), m, exp.OutputDir())
	<-ctx.Done()
	fmt.Println("Shutting down...")
	w.Stop()
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	rf := registerReadFlags(fs)
	host := fs.String("host", "", "listen host (default from config: server.host)")
	port := fs.Int("port", 0, "listen port (default from config: server.port)")
	_ = fs.Parse(argsReorder(os.Args[2:]))
	s, err := newSession(fs, rf)
	if err != nil {
		fail("%v", err)
	}
	defer s.logger.Sync()

	if *host != "" {
		s.cfg.Server.Host = *host
	}
	if *port != 0 {
		s.cfg.Server.Port = *port
	}
	srv := server.NewServer(s.factory, s.opts, s.cfg, s.logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Fatal("Server failed", zap.Error(err))
		}
	}()
	fmt.Printf("Listening on http://%s\n", srv.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	s.logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		s.logger.Warn("server shutdown failed", zap.Error(err))
	}
}

func runFormats() {
	fmt.Println("Readers:")
	for _, ext := range reader.NewFactory().SupportedExtensions() {
		fmt.Printf("  %s\n", ext)
	}
	fmt.Println("  (any of the above with .gz, .zst or .xz)")
	fmt.Println("\nExport methods:")
	for _, m := range export.Methods() {
		fmt.Printf("  %s\n", m)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func printUsage() {
	fmt.Println(`tablekit - Read messy tabular files into clean tables

Usage:
  tablekit read [flags] <file>          Detect encoding and delimiter, print a preview
  tablekit convert [flags] <file>       Read a file and export it
  tablekit batch [flags] <directory>    Read every supported file in a directory
  tablekit sheets [flags] <workbook>    List workbook sheets
  tablekit tables [flags] <html-file>   List the tables of an HTML page
  tablekit watch [flags] [directory]    Convert files dropped into watched directories
  tablekit serve [flags]                Start the HTTP API (read and convert uploads)
  tablekit formats                      List readable extensions and export methods
  tablekit version                      Show version
  tablekit help                         Show this help

Read Flags (all reading commands):
  --config string             Config file path (default: /usr/local/etc/tablekit/config.yaml)
  --debug                     Enable debug logging (encoding and delimiter trace)
  --output string             Output format: text or json (default: text)
  --rows int                  Preview rows (default: 10)
  --encodings string          Candidate encodings, e.g. utf-8,cp1252
  --delimiters string         Candidate delimiters, e.g. semicolon,tab
  --capture-bad-lines         Report malformed lines
  --skip-rows int             Lines to skip before the header
  --detect-header             Find the header among the first rows
  --normalize-columns         Normalize column names (default: true)
  --normalize-values          Add <column>_norm companion columns
  --case string               lower, upper or none
  --sheet string              Workbook sheet name
  --sheet-index int           Workbook sheet index
  --table int                 HTML table index
  --orient string             JSON layout: records, columns, index, values, split
  --lines                     Read JSON Lines

Convert Flags:
  --method string    csv, excel, excel_parts, excel_sheets, json, jsonl, sqlite, parquet
  --out string       Output directory
  --name string      Output file name

Batch Flags:
  --export string    Export every table with this method
  --out string       Output directory

Watch Flags:
  --method string    Export method for converted files
  --out string       Output directory (never watched)
  --sync             Convert files already present (default: true)

Serve Flags:
  --host string      Listen host (default: localhost)
  --port int         Listen port (default: 8080)

Examples:
  tablekit read legacy.csv
  tablekit read --capture-bad-lines --output json export.txt
  tablekit convert --method parquet --out ./clean data.csv.gz
  tablekit batch --export sqlite ./inbox
  tablekit read --sheet Totals report.xlsx
  tablekit watch --method excel ./inbox
  tablekit serve --port 9000`)
}
