package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes for the CLI.
const (
	// ExitCodeSuccess indicates no unexpected failure occurred.
	ExitCodeSuccess = 0
	// ExitCodeUnexpectedFailure indicates at least one non-flaky case failed.
	ExitCodeUnexpectedFailure = 1
	// ExitCodeEnvironmentError indicates the run never started: bad config,
	// missing project path, or inconsistent flags.
	ExitCodeEnvironmentError = 2
)

// rootCmd is the entry point when the application is called without any
// subcommands.
var rootCmd = &cobra.Command{
	Use:   "matrixrunner",
	Short: "Run a declared matrix of build/test cases concurrently",
	Long: `matrixrunner drives a project's build toolchain across a declared
matrix of build/test cases, running them concurrently with a bounded worker
budget, per-case timeouts and retries, and fast-fail cancellation of pending
non-flaky work once an unexpected failure is observed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// SetVersion sets the version for the root command. Called from main() to
// inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "matrixrunner version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		code := ExitCodeEnvironmentError
		var ce *exitCodeError
		if errors.As(err, &ce) {
			code = ce.code
		}
		if code != ExitCodeUnexpectedFailure {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(code)
	}
}

func init() {
	rootCmd.AddCommand(newRunCmd())
}
