// Package main is the calcombine CLI entry point.
package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ziltek/calcombine/internal/aggregate"
	"github.com/ziltek/calcombine/internal/cli"
	"github.com/ziltek/calcombine/internal/config"
	"github.com/ziltek/calcombine/internal/extract"
	"github.com/ziltek/calcombine/internal/fileid"
	"github.com/ziltek/calcombine/internal/ingest"
	"github.com/ziltek/calcombine/internal/models"
	"github.com/ziltek/calcombine/internal/output"
	"github.com/ziltek/calcombine/internal/report"
	"github.com/ziltek/calcombine/internal/server"
	"github.com/ziltek/calcombine/internal/storage"
	"github.com/ziltek/calcombine/internal/watcher"
	"github.com/ziltek/calcombine/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

const defaultConfigPath = "calcombine.yaml"

// loadConfig loads config from path. When path is the default and no such file exists in
// the current directory, the built-in defaults are used with paths resolved against the
// current directory, so running calcombine next to the two master workbooks just works.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		candidate := filepath.Join(cwd, defaultConfigPath)
		if _, statErr := os.Stat(candidate); statErr != nil {
			cfg, err := config.Defaults(cwd)
			if err != nil {
				return nil, "", err
			}
			return cfg, "", cfg.Validate()
		}
		path = candidate
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
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
	args := os.Args[2:]
	var err error
	switch command {
	case "combine":
		err = runCombine(args, os.Stdout)
	case "import":
		err = runImport(args, os.Stdout)
	case "load":
		err = runLoad(args, os.Stdout)
	case "export":
		err = runExport(args, os.Stdout)
	case "report":
		err = runReport(args, os.Stdout)
	case "init":
		err = runInit(args, os.Stdout)
	case "server":
		err = runServer(args)
	case "version", "--version", "-v":
		fmt.Printf("calcombine version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// commonFlags are shared by every subcommand that reads the config.
type commonFlags struct {
	configPath *string
	debug      *bool
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		debug:      fs.Bool("debug", false, "enable debug logging"),
	}
}

func (c commonFlags) load() (*config.Config, *zap.Logger, error) {
	cfg, resolved, err := loadConfig(*c.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || *c.debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	return cfg, logger, nil
}

func parseFormat(s string) (cli.OutputFormat, error) {
	switch s {
	case "text", "":
		return cli.OutputText, nil
	case "json":
		return cli.OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

// sourcesFor returns the configured sources, or every workbook under dir when dir is set.
func sourcesFor(cfg *config.Config, dir string) ([]models.SourceFile, error) {
	if dir == "" {
		return cfg.Sources, nil
	}
	return aggregate.Discover(dir)
}

func runCombine(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("combine", flag.ExitOnError)
	common := addCommonFlags(fs)
	dir := fs.String("dir", "", "combine every .xlsx/.xlsm in this directory (not its subdirectories) instead of the configured sources")
	out := fs.String("output", "", "output CSV path (default from config)")
	force := fs.Bool("force", false, "rebuild even when the output is newer than every source")
	format := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(args)

	outFormat, err := parseFormat(*format)
	if err != nil {
		return err
	}
	cfg, logger, err := common.load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	sources, err := sourcesFor(cfg, *dir)
	if err != nil {
		return err
	}
	outputPath := cfg.Output.Path
	if *out != "" {
		if outputPath, err = filepath.Abs(*out); err != nil {
			return err
		}
	}
	cat, err := cfg.LabelCatalog()
	if err != nil {
		return err
	}
	ext := extract.NewExtractor(cat, extract.WithLogger(logger))
	agg := aggregate.NewAggregator(ext,
		aggregate.WithLogger(logger),
		aggregate.WithProgress(func(n int, file, sheet string) {
			logger.Debug("sheet processed", zap.Int("processed", n), zap.String("file", file), zap.String("sheet", sheet))
		}))
	combiner := aggregate.NewCombiner(agg, sources, outputPath, logger)

	res, err := combiner.Combine(context.Background(), *force)
	if err != nil {
		return err
	}
	return cli.WriteCombineSummary(stdout, cli.NewCombineSummary(res, len(sources), outputPath), outFormat)
}

func runImport(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	common := addCommonFlags(fs)
	typ := fs.String("type", "", "source type tag (default: leading token of the file name)")
	dryRun := fs.Bool("dry-run", false, "extract and print the records without storing them")
	format := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: calcombine import [flags] <workbook>")
	}
	outFormat, err := parseFormat(*format)
	if err != nil {
		return err
	}
	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", aggregate.ErrInputNotFound, path)
	}
	if err != nil {
		return err
	}
	cfg, logger, err := common.load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	res, err := components.Ingestor.Ingest(context.Background(), ingest.Upload{
		Filename: filepath.Base(path),
		Type:     *typ,
		Contents: base64.StdEncoding.EncodeToString(data),
	}, !*dryRun)
	if err != nil {
		return err
	}
	return cli.WriteIngestResult(stdout, res, outFormat)
}

// runLoad replaces the record store with the rows of the current output CSV.
func runLoad(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	common := addCommonFlags(fs)
	_ = fs.Parse(args)

	cfg, logger, err := common.load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	table, err := output.ReadFile(cfg.Output.Path)
	if err != nil {
		return err
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	fileid.AssignRecordIDs(table)
	if err := components.Store.ReplaceAll(context.Background(), table); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Loaded %d records from %s\n", len(table), cfg.Output.Path)
	return nil
}

func runExport(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	common := addCommonFlags(fs)
	out := fs.String("o", "", "write to this file instead of stdout")
	_ = fs.Parse(args)

	cfg, logger, err := common.load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	records, err := components.Store.List(context.Background())
	if err != nil {
		return err
	}
	if *out == "" {
		return output.WriteCSV(stdout, records)
	}
	if err := output.WriteFileAtomic(*out, records); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Exported %d records to %s\n", len(records), *out)
	return nil
}

func runReport(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	common := addCommonFlags(fs)
	fromArtifact := fs.Bool("artifact", false, "report on the output CSV instead of the record store")
	format := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(args)

	outFormat, err := parseFormat(*format)
	if err != nil {
		return err
	}
	cfg, logger, err := common.load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var records []models.Record
	if *fromArtifact {
		if records, err = output.ReadFile(cfg.Output.Path); err != nil {
			return err
		}
	} else {
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			return err
		}
		defer components.Close()
		if records, err = components.Store.List(context.Background()); err != nil {
			return err
		}
	}
	summaries, err := report.Measurements(records)
	if err != nil {
		return err
	}
	return cli.WriteReport(stdout, cli.Report{
		TestsPerYear: report.TestsPerYear(records),
		Measurements: summaries,
		Trends:       report.Trends(records),
	}, outFormat)
}

// runInit writes the default configuration to the config path.
func runInit(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path to create")
	overwrite := fs.Bool("force", false, "overwrite an existing config file")
	_ = fs.Parse(args)

	path, err := filepath.Abs(*configPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !*overwrite {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	}
	cfg, err := config.Defaults(filepath.Dir(path))
	if err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return nil
}

func runServer(args []string) error {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	common := addCommonFlags(fs)
	watch := fs.Bool("watch", false, "re-combine when a source workbook changes (overrides config)")
	_ = fs.Parse(args)

	cfg, logger, err := common.load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	srv := server.NewServer(components.Store, components.Combiner, components.Ingestor, &cfg.Server, logger)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if cfg.Watch.Enabled || *watch {
		combine := func(ctx context.Context) {
			if _, err := components.Combiner.Combine(ctx, false); err != nil {
				logger.Warn("combine after change failed", zap.Error(err))
			}
		}
		paths := make([]string, len(cfg.Sources))
		for i, s := range cfg.Sources {
			paths[i] = s.Path
		}
		w := watcher.NewWatcher(paths, combine, watcher.WithLogger(logger), watcher.WithDebounce(cfg.Watch.Debounce))
		if err := w.Start(gctx); err != nil {
			stop()
			_ = g.Wait()
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		defer w.Stop()
		// Catch up on edits made while the server was down.
		g.Go(func() error {
			combine(gctx)
			return nil
		})
	}
	return g.Wait()
}

// Components holds initialized services.
type Components struct {
	Store    *storage.SQLStore
	Combiner *aggregate.Combiner
	Ingestor *ingest.Ingestor
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	cat, err := cfg.LabelCatalog()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	ext := extract.NewExtractor(cat, extract.WithLogger(logger))
	agg := aggregate.NewAggregator(ext, aggregate.WithLogger(logger))
	return &Components{
		Store:    store,
		Combiner: aggregate.NewCombiner(agg, cfg.Sources, cfg.Output.Path, logger),
		Ingestor: ingest.NewIngestor(ext, store, logger),
	}, nil
}

func printUsage() {
	fmt.Println(`calcombine - Combine calibration workbooks into one table

Usage:
  calcombine combine [flags]           Combine the source workbooks into the output CSV
  calcombine import [flags] <file>     Extract a workbook and append its rows to the store
  calcombine load [flags]              Replace the store with the rows of the output CSV
  calcombine export [flags]            Write the store as CSV
  calcombine report [flags]            Print tests per year and measurement summaries
  calcombine init [flags]              Write a default config file
  calcombine server [flags]            Start the HTTP server
  calcombine version                   Show version
  calcombine help                      Show this help

Common Flags:
  --config string    Config file path (default: ./calcombine.yaml, built-in defaults when missing)
  --debug            Enable debug logging

Combine Flags:
  --dir string       Combine every workbook in this directory instead of the configured sources
  --output string    Output CSV path
  --force            Rebuild even when the output is up to date
  --format string    Output format: text or json (default: text)

Import Flags:
  --type string      Source type tag (default: leading token of the file name)
  --dry-run          Print the records without storing them

Export Flags:
  -o string          Write to a file instead of stdout

Report Flags:
  --artifact         Report on the output CSV instead of the store

Server Flags:
  --watch            Re-combine when a source workbook changes

Examples:
  calcombine combine
  calcombine combine --dir ./workbooks --output ./combine.csv
  calcombine import "mk2 Technical test Master copy.xlsx"
  calcombine report --format json
  calcombine server --watch`)
}
