package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/tkara/unref/pkg/collector"
	"github.com/tkara/unref/pkg/config"
	"github.com/tkara/unref/pkg/progress"
	"github.com/tkara/unref/pkg/protocol"
	"github.com/tkara/unref/pkg/scan"
	"github.com/tkara/unref/pkg/scanner"
	"github.com/tkara/unref/pkg/watch"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:    "unref",
		Usage:   "Find declarations nothing references",
		Version: version,
		Description: `Unref scans JavaScript and TypeScript codebases for variables,
functions, classes, and import bindings that are never referenced,
using a tsserver-style language-service backend as the reference
oracle.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"UNREF_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the report to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Print run details to stderr",
			},
		},
		Commands: []*cli.Command{
			scanCmd(),
			watchCmd(),
		},
		DefaultCommand: "scan",
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Aliases:   []string{"s"},
		Usage:     "Scan once and report unused declarations",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Language-service backend command",
			},
			&cli.IntFlag{
				Name:  "max-decls",
				Usage: "Maximum declarations evaluated per file",
			},
			&cli.BoolFlag{
				Name:  "include-exported",
				Usage: "Also evaluate exported declarations",
			},
		},
		Action: runScanCmd,
	}
}

func runScanCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	paths := getPaths(c)
	files, err := discoverFiles(cfg, paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	workDir, _ := os.Getwd()
	logRun(c, cfg, len(files))
	return runOnce(c.Context, cfg, files, workDir)
}

// logRun prints run details to stderr when --verbose is set.
func logRun(c *cli.Context, cfg *config.Config, fileCount int) {
	if !c.Bool("verbose") {
		return
	}
	fmt.Fprintf(os.Stderr, "unref: backend %s, %d files, timeout %ds\n",
		cfg.Backend.Command, fileCount, cfg.Backend.RequestTimeout)
}

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Aliases:   []string{"w"},
		Usage:     "Rescan whenever watched files change",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Quiet period before a rescan fires",
			},
		},
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	root := "."
	if c.Args().Len() > 0 {
		root = c.Args().First()
	}

	debounce := time.Duration(cfg.Watch.Debounce) * time.Millisecond
	if c.IsSet("debounce") {
		debounce = c.Duration("debounce")
	}

	watcher, err := watch.NewWatcher(root, cfg, debounce)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Stop()

	watchErr := make(chan error, 1)
	go func() { watchErr <- watcher.Start(c.Context) }()

	workDir, _ := os.Getwd()
	rescan := func() error {
		files, err := discoverFiles(cfg, []string{root})
		if err != nil {
			return err
		}
		if len(files) == 0 {
			color.Yellow("No source files found")
			return nil
		}
		logRun(c, cfg, len(files))
		return runOnce(c.Context, cfg, files, workDir)
	}

	if err := rescan(); err != nil {
		return err
	}

	for {
		select {
		case <-c.Context.Done():
			return nil
		case err := <-watchErr:
			if err != nil && c.Context.Err() == nil {
				return err
			}
			return nil
		case <-watcher.Rescans():
			if err := rescan(); err != nil {
				color.Red("Rescan failed: %v", err)
			}
		}
	}
}

// loadConfig resolves the effective configuration: file (explicit or
// discovered), then flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
	}

	if c.IsSet("output") {
		cfg.Output.File = c.String("output")
	}
	if c.Bool("no-color") {
		cfg.Output.Color = false
	}
	if c.IsSet("backend") {
		cfg.Backend.Command = c.String("backend")
	}
	if c.IsSet("max-decls") {
		cfg.Scan.MaxDeclsPerFile = c.Int("max-decls")
	}
	if c.IsSet("include-exported") {
		cfg.Scan.IncludeExported = c.Bool("include-exported")
	}
	return cfg, nil
}

func discoverFiles(cfg *config.Config, paths []string) ([]string, error) {
	sc := scanner.NewScanner(cfg)

	var files []string
	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", path, err)
		}
		found, err := sc.ScanDir(absPath)
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory %s: %w", path, err)
		}
		files = append(files, found...)
	}
	return files, nil
}

// runOnce drives a single full scan: fresh backend process, fresh
// reporter, one pass over the file list.
func runOnce(ctx context.Context, cfg *config.Config, files []string, workDir string) error {
	out := os.Stdout
	target := "stdout"
	colorize := cfg.Output.Color
	if cfg.Output.File != "" {
		f, err := os.Create(cfg.Output.File)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
		target = cfg.Output.File
		colorize = false
	}

	client := protocol.NewClient(cfg.Backend.Command, cfg.Backend.Args,
		protocol.WithTimeout(time.Duration(cfg.Backend.RequestTimeout)*time.Second))
	if err := client.Start(ctx); err != nil {
		return err
	}
	defer client.Shutdown()

	coll := collector.New()
	defer coll.Close()

	tracker := progress.NewTracker("Scanning...", len(files))
	orch := scan.New(client, coll, scan.NewReporter(out, colorize), scan.Options{
		MaxDeclsPerFile: cfg.Scan.MaxDeclsPerFile,
		IncludeExported: cfg.Scan.IncludeExported,
		ProgressEvery:   cfg.Scan.ProgressEvery,
		GeneratedDirs:   cfg.Scan.GeneratedDirs,
		WorkDir:         workDir,
		Target:          target,
		Tick:            tracker.Tick,
	})

	if err := orch.Run(ctx, files); err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("scan failed: %w", err)
	}
	tracker.FinishSuccess()
	return nil
}
