package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"matrixrunner/internal/config"
	"matrixrunner/internal/matrix/executor"
	"matrixrunner/internal/matrix/planner"
	"matrixrunner/internal/matrix/supervisor"
	"matrixrunner/internal/report"
	"matrixrunner/internal/workspace"
	"matrixrunner/pkg/logging"
)

type runFlags struct {
	configPath  string
	projectPath string
	jobs        int
	totalShards int
	shardIndex  int
	htmlReport  string
	jsonReport  string
	verbose     bool
	debug       bool
}

func newRunCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the declared case matrix against the current host",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to the matrix TOML file (required)")
	cmd.Flags().StringVar(&flags.projectPath, "project", ".", "path to the project root")
	cmd.Flags().IntVar(&flags.jobs, "jobs", runtime.NumCPU(), "maximum number of cases running concurrently")
	cmd.Flags().IntVar(&flags.totalShards, "total-shards", 0, "total number of shards (must be given with --shard-index)")
	cmd.Flags().IntVar(&flags.shardIndex, "shard-index", 0, "this shard's index (must be given with --total-shards)")
	cmd.Flags().StringVar(&flags.htmlReport, "html-report", "", "optional path to write an HTML report to")
	cmd.Flags().StringVar(&flags.jsonReport, "json-report", "", "optional path to write a JSON report to")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "enable info-level logging")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "enable debug-level logging")

	cmd.MarkFlagRequired("config")

	return cmd
}

func runRun(cmd *cobra.Command, flags *runFlags) error {
	level := logging.LevelWarn
	if flags.verbose {
		level = logging.LevelInfo
	}
	if flags.debug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())

	shard, err := shardParams(cmd, flags)
	if err != nil {
		return exitError(err)
	}

	projectRoot, err := filepath.Abs(flags.projectPath)
	if err != nil {
		return exitError(fmt.Errorf("resolve project path: %w", err))
	}
	if _, err := os.Stat(projectRoot); err != nil {
		return exitError(fmt.Errorf("project path %s: %w", projectRoot, err))
	}

	crateName, err := readCrateName(projectRoot)
	if err != nil {
		return exitError(err)
	}

	m, err := config.Load(flags.configPath)
	if err != nil {
		return exitError(err)
	}

	plan, err := planner.Plan(m, shard)
	if err != nil {
		return exitError(err)
	}

	workspace.SweepStale(projectRoot)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exec := executor.New(projectRoot, crateName)
	jobs := flags.jobs
	if jobs < 1 {
		jobs = 1
	}

	results := supervisor.Run(ctx, plan.Cases, jobs, exec)
	run := report.NewRun(m.Language, results)

	if err := renderReports(cmd, flags, run); err != nil {
		return exitError(err)
	}

	if run.HasUnexpectedFailure {
		return &exitCodeError{code: ExitCodeUnexpectedFailure}
	}
	return nil
}

type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

// readCrateName reads the package name out of the project's Cargo.toml, the
// selector the build toolchain needs for `-p <name>`. An unreadable or
// unparseable manifest is an environment error, not a configuration error:
// the matrix file can be perfectly valid while the project itself is broken.
func readCrateName(projectRoot string) (string, error) {
	manifestPath := filepath.Join(projectRoot, "Cargo.toml")
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return "", fmt.Errorf("read package manifest %s: %w", manifestPath, err)
	}

	var manifest cargoManifest
	if err := toml.Unmarshal(raw, &manifest); err != nil {
		return "", fmt.Errorf("parse package manifest %s: %w", manifestPath, err)
	}
	if manifest.Package.Name == "" {
		return "", fmt.Errorf("package manifest %s: missing [package] name", manifestPath)
	}
	return manifest.Package.Name, nil
}

func shardParams(cmd *cobra.Command, flags *runFlags) (*planner.ShardParams, error) {
	totalSet := cmd.Flags().Changed("total-shards")
	indexSet := cmd.Flags().Changed("shard-index")

	if !totalSet && !indexSet {
		return nil, nil
	}
	if totalSet != indexSet {
		return nil, fmt.Errorf("--total-shards and --shard-index must be given together")
	}
	return &planner.ShardParams{TotalShards: flags.totalShards, ShardIndex: flags.shardIndex}, nil
}

func renderReports(cmd *cobra.Command, flags *runFlags, run report.Run) error {
	console, _ := report.NewReporter(report.KindConsole, cmd.OutOrStdout())
	if err := console.Report(run); err != nil {
		return err
	}

	if flags.htmlReport != "" {
		if err := writeReport(report.KindHTML, flags.htmlReport, run); err != nil {
			return err
		}
	}
	if flags.jsonReport != "" {
		if err := writeReport(report.KindJSON, flags.jsonReport, run); err != nil {
			return err
		}
	}
	return nil
}

func writeReport(kind report.Kind, path string, run report.Run) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file %s: %w", path, err)
	}
	defer f.Close()

	reporter, err := report.NewReporter(kind, f)
	if err != nil {
		return err
	}
	return reporter.Report(run)
}

// exitCodeError lets RunE signal a specific process exit code without
// printing cobra's usage text for what is a normal "tests failed" outcome
// rather than a misuse of the command.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return "unexpected failure"
}

func exitError(err error) error {
	return &exitCodeError{code: ExitCodeEnvironmentError, err: err}
}
