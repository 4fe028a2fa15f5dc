package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"apifp/internal/config"
	apierrors "apifp/internal/errors"
	"apifp/internal/query"
	"apifp/internal/slogutil"
	"apifp/internal/storage"
	"apifp/internal/version"
)

// Exit codes. A compare that finds removed entries exits exitBreaking;
// every other failure exits exitError.
const (
	exitOK       = 0
	exitBreaking = 1
	exitError    = 2
)

// exitCodeError ends a command with a specific status and no further output
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// app carries the state shared by every command of one invocation
type app struct {
	root        string
	verbosity   int
	quiet       bool
	metricsFile string

	stdout io.Writer
	stderr io.Writer

	cfg     *config.Config
	factory *slogutil.LoggerFactory
	logger  *slog.Logger
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apifp",
		Short: "apifp - API surface fingerprints",
		Long: `apifp derives documentation-comment identifiers for every type and member
of a .NET API and fingerprints them, so that two snapshots of the same API
taken from different sources compare equal.`,
		Version:       version.Get().Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.factory != nil {
				return a.factory.Close()
			}
			return nil
		},
	}
	cmd.SetVersionTemplate("apifp version {{.Version}}\n")
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.root, "root", ".", "Project root holding the .apifp directory")
	flags.CountVarP(&a.verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "Only log errors")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "Write build metrics to this node-exporter textfile")

	cmd.AddCommand(
		newSurfaceCmd(a),
		newIDCmd(a),
		newCompareCmd(a),
		newSnapshotCmd(a),
		newBackendsCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

// setup loads configuration and builds the logger before any command runs
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.root)
	if err != nil {
		return apierrors.New(apierrors.InputInvalid, "failed to load "+config.Path(a.root), err)
	}
	a.cfg = cfg

	var cliLevel *slog.Level
	if cmd.Flags().Changed("verbose") || cmd.Flags().Changed("quiet") {
		lvl := slogutil.LevelFromVerbosity(a.verbosity, a.quiet)
		cliLevel = &lvl
	}
	a.factory = slogutil.NewLoggerFactory(cfg.Logging, cliLevel)
	a.logger, err = a.factory.Logger(a.stderr)
	return err
}

func (a *app) engine() (*query.Engine, error) {
	return query.NewEngine(a.cfg, nil, a.logger)
}

// openDB opens the snapshot store; a relative storage path is under --root
func (a *app) openDB() (*storage.DB, error) {
	path := a.cfg.Storage.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.root, path)
	}
	return storage.Open(path, a.logger)
}

// writeMetrics saves the engine's counters when a metrics file is configured
func (a *app) writeMetrics(e *query.Engine) error {
	path := a.metricsFile
	if path == "" {
		path = a.cfg.Telemetry.MetricsFile
	}
	if path == "" {
		return nil
	}
	if err := e.Metrics().WriteTextfile(path); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	a.logger.Debug("Wrote metrics", "path", path)
	return nil
}

// run executes the CLI and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		return exitOK
	}
	var exit *exitCodeError
	if errors.As(err, &exit) {
		return exit.code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	var apiErr *apierrors.APIFPError
	if errors.As(err, &apiErr) {
		for _, fix := range apiErr.SuggestedFixes {
			if fix.Command != "" {
				fmt.Fprintf(stderr, "  try: %s  (%s)\n", fix.Command, fix.Description)
			}
		}
	}
	return exitError
}

// fileExists reports whether path names an existing regular file
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
