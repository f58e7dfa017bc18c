package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	dupfind "github.com/mattkeenan/dupfind/pkg"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func init() {
	// -v is taken by --verbose
	cli.VersionFlag = &cli.BoolFlag{Name: "version", Usage: "print the version"}
}

func main() {
	ctx, stop := setupSignalHandler(context.Background(), os.Stderr)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	dupfind.SetLogOutput(stderr)

	app := newApp(stdout, stderr)
	if err := app.RunContext(ctx, args); err != nil {
		fmt.Fprintf(stderr, "dupfind: %v\n", err)
		return 1
	}
	return 0
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "dupfind",
		Usage:     "find files with identical content",
		UsageText: "dupfind [options] [DIR]",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration file",
				Value:   dupfind.DefaultConfigPath(),
			},
			&cli.StringSliceFlag{
				Name:  "set",
				Usage: "override a config value, as key:value (e.g. hash_workers:4)",
			},
			&cli.StringFlag{Name: "hash", Usage: "hash algorithm: md5, sha1, sha256, sha512"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Usage: "concurrent hash workers"},
			&cli.StringFlag{Name: "buffer", Usage: "read chunk size, e.g. 4KiB or 1MiB"},
			&cli.StringFlag{Name: "symlinks", Usage: "symlink mode: none, files, contained, all"},
			&cli.StringSliceFlag{Name: "ignore", Aliases: []string{"i"}, Usage: "regular expression of root-relative paths to skip"},
			&cli.StringFlag{Name: "ignore-file", Usage: "file of ignore patterns, one per line"},
			&cli.StringFlag{Name: "min-size", Usage: "ignore files smaller than this, e.g. 1KiB"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "output format: human, json, fdupes"},
			&cli.IntFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "verbose level 0-3"},
			&cli.StringFlag{Name: "debug", Usage: "comma-separated debug flags (walk, hash)"},
			&cli.StringFlag{Name: "trash", Usage: "move every copy but one of each group into `DIR` (\"system\" for the desktop trash)"},
			&cli.StringFlag{Name: "keep", Usage: "with --trash, the copy to keep: first, last, shortest, longest"},
			&cli.BoolFlag{Name: "dry-run", Usage: "with --trash, report what would be moved"},
		},
		Action: func(c *cli.Context) error {
			return scanAction(c, stdout, stderr)
		},
		Commands: []*cli.Command{
			{
				Name:      "trash",
				Usage:     "move the given files to the trash",
				ArgsUsage: "PATH...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "to", Usage: "trash `DIR` (default from config, \"system\" for the desktop trash)"},
					&cli.BoolFlag{Name: "dry-run", Usage: "report what would be moved"},
				},
				Action: func(c *cli.Context) error {
					return trashAction(c, stderr)
				},
			},
			{
				Name:  "config",
				Usage: "manage the configuration file",
				Subcommands: []*cli.Command{
					{
						Name:  "init",
						Usage: "write a configuration file with the default values",
						Action: func(c *cli.Context) error {
							cfg, err := dupfind.InitConfig(c.String("config"))
							if err != nil {
								return err
							}
							fmt.Fprintf(stdout, "Wrote %s\n", cfg.Path())
							return nil
						},
					},
					{
						Name:  "show",
						Usage: "print the effective configuration",
						Action: func(c *cli.Context) error {
							cfg, err := loadConfig(c)
							if err != nil {
								return err
							}
							_, err = cfg.WriteTo(stdout)
							return err
						},
					},
				},
			},
		},
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// loadConfig reads the config file and layers --set and the dedicated flags on top.
func loadConfig(c *cli.Context) (*dupfind.Config, error) {
	cfg, err := dupfind.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	overrides := c.StringSlice("set")
	for flag, key := range map[string]string{
		"hash":     "default",
		"buffer":   "hash_buffer",
		"symlinks": "mode",
		"min-size": "min_size",
		"format":   "format",
		"debug":    "debug",
		"keep":     "keep",
	} {
		if c.IsSet(flag) {
			overrides = append(overrides, key+":"+c.String(flag))
		}
	}
	if c.IsSet("workers") {
		overrides = append(overrides, fmt.Sprintf("hash_workers:%d", c.Int("workers")))
	}
	if c.IsSet("verbose") {
		overrides = append(overrides, fmt.Sprintf("level:%d", c.Int("verbose")))
	}

	if err := cfg.ApplyOverrides(overrides); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func scanAction(c *cli.Context, stdout, stderr io.Writer) error {
	if c.NArg() > 1 {
		return fmt.Errorf("expected at most one directory, got %d", c.NArg())
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	verbose := cfg.GetVerboseConfig()
	dupfind.SetVerboseLevel(verbose.Level)
	dupfind.SetDebugFlags(verbose.Debug)
	dupfind.LogDebugFlags()

	opts, err := cfg.ScanOptions()
	if err != nil {
		return err
	}
	for _, pattern := range c.StringSlice("ignore") {
		if err := opts.Ignore.AddPattern(pattern); err != nil {
			return err
		}
	}
	if path := c.String("ignore-file"); path != "" {
		extra, err := dupfind.LoadIgnoreFile(dupfind.NewHostFS(), path)
		if err != nil {
			return err
		}
		opts.Ignore.Merge(extra)
	}
	opts.Notifier = dupfind.LogNotifier{}

	format, err := dupfind.ParseFormat(cfg.GetOutputConfig().Format)
	if err != nil {
		return err
	}

	root := c.Args().First()
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	scanner, err := dupfind.NewHostScanner(opts)
	if err != nil {
		return err
	}
	report, err := scanner.Scan(c.Context, absRoot)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("interrupted")
		}
		return err
	}

	if err := dupfind.WriteReport(stdout, report, format); err != nil {
		return err
	}

	if dir := c.String("trash"); dir != "" {
		policy, err := dupfind.ParseKeepPolicy(cfg.GetTrashConfig().Keep)
		if err != nil {
			return err
		}
		return trashPaths(report.SelectRedundantBy(policy), dir, c.Bool("dry-run"), stderr)
	}
	return nil
}

// trashAction moves files named on the command line, for callers that pick
// the copies themselves.
func trashAction(c *cli.Context, stderr io.Writer) error {
	if c.NArg() == 0 {
		return fmt.Errorf("no paths given")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	dir := c.String("to")
	if dir == "" {
		dir = cfg.GetTrashConfig().Dir
	}

	paths := make([]string, 0, c.NArg())
	for _, p := range c.Args().Slice() {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		paths = append(paths, abs)
	}
	return trashPaths(paths, dir, c.Bool("dry-run"), stderr)
}

// newTrasher returns a trasher for dir, where "system" selects the desktop trash.
func newTrasher(dir string, dryRun bool) (*dupfind.Trasher, error) {
	if dir == dupfind.SystemTrash {
		trashDir, err := dupfind.SystemTrashDir()
		if err != nil {
			return nil, err
		}
		return dupfind.NewSystemTrasher(dupfind.NewHostFS(), trashDir, dryRun), nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return dupfind.NewTrasher(dupfind.NewHostFS(), abs, dryRun), nil
}

// trashPaths moves paths into dir and reports one line per path.
func trashPaths(paths []string, dir string, dryRun bool, stderr io.Writer) error {
	trasher, err := newTrasher(dir, dryRun)
	if err != nil {
		return err
	}

	failed := 0
	for _, outcome := range trasher.Trash(paths) {
		switch {
		case !outcome.OK():
			failed++
			fmt.Fprintf(stderr, "failed: %s: %v\n", outcome.Path, outcome.Err)
		case dryRun:
			fmt.Fprintf(stderr, "would trash: %s -> %s\n", outcome.Path, outcome.Dest)
		default:
			fmt.Fprintf(stderr, "trashed: %s -> %s\n", outcome.Path, outcome.Dest)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d files could not be moved to trash", failed)
	}
	return nil
}
