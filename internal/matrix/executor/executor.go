// Package executor runs one case end-to-end: either a single custom
// command, or build-then-run, applying the case's timeout and retry budget
// and producing a single matrix.Result.
package executor

import (
	"context"
	"os"
	"time"

	"github.com/mattn/go-shellwords"

	"matrixrunner/internal/diagnostics"
	"matrixrunner/internal/execrunner"
	"matrixrunner/internal/matrix"
	"matrixrunner/internal/workspace"
	"matrixrunner/pkg/logging"
)

// toolchainProgram is the build-then-run subprocess invoked for cases that
// don't supply a custom command.
const toolchainProgram = "cargo"

// Executor runs cases against a fixed project root and package selector.
type Executor struct {
	ProjectRoot string
	CrateName   string
}

// New builds an Executor for the given project.
func New(projectRoot, crateName string) *Executor {
	return &Executor{ProjectRoot: projectRoot, CrateName: crateName}
}

// Execute runs case to completion, honoring its retry budget, and returns
// exactly one Result.
func (e *Executor) Execute(ctx context.Context, c matrix.Case) matrix.Result {
	maxAttempts := c.MaxAttempts()

	var last matrix.Result
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attemptCtx, cancel := withCaseTimeout(ctx, c)
		res := e.runAttempt(attemptCtx, c)
		cancel()

		switch {
		case res.Kind == matrix.Passed:
			res.Attempts = attempt
			return res
		case res.Kind == matrix.Failed && res.Reason == matrix.ReasonTimeout:
			return res
		default:
			last = res
			if attempt < maxAttempts {
				logging.Warn("executor", "case %s: attempt %d/%d failed, retrying", c.Name, attempt, maxAttempts)
				continue
			}
			return last
		}
	}
	return last
}

func withCaseTimeout(ctx context.Context, c matrix.Case) (context.Context, context.CancelFunc) {
	if c.TimeoutSecs == nil {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(*c.TimeoutSecs)*time.Second)
}

func (e *Executor) runAttempt(ctx context.Context, c matrix.Case) matrix.Result {
	start := time.Now()

	if c.Command != "" {
		return e.runCustomCommand(ctx, c, start)
	}
	return e.runBuildThenTest(ctx, c, start)
}

func (e *Executor) runCustomCommand(ctx context.Context, c matrix.Case, start time.Time) matrix.Result {
	expanded := os.ExpandEnv(c.Command)

	words, err := shellwords.Parse(expanded)
	if err != nil || len(words) == 0 {
		return matrix.NewFailed(c, matrix.ReasonCustomCommand, "empty or unparseable command", time.Since(start))
	}

	res, err := execrunner.Run(ctx, e.ProjectRoot, words[0], words[1:]...)
	if isTimeoutErr(ctx, err) {
		return matrix.NewFailed(c, matrix.ReasonTimeout, "timed out", time.Since(start))
	}

	if err != nil || res.ExitCode != 0 {
		output := res.Output
		if output == "" && err != nil {
			output = err.Error()
		}
		return matrix.NewFailed(c, matrix.ReasonCustomCommand, output, time.Since(start))
	}
	return matrix.NewPassed(c, res.Output, time.Since(start), 0)
}

func (e *Executor) runBuildThenTest(ctx context.Context, c matrix.Case, start time.Time) matrix.Result {
	ws, err := workspace.Acquire(e.ProjectRoot, c.Name)
	if err != nil {
		return matrix.NewFailed(c, matrix.ReasonBuildFailed, err.Error(), time.Since(start))
	}
	defer ws.Release()

	args := []string{"test", "--no-run", "--message-format=json", "--target-dir", ws.Path, "-p", e.CrateName}
	if c.NoDefaultFeatures {
		args = append(args, "--no-default-features")
	}
	if c.Features != "" {
		args = append(args, "--features", c.Features)
	}

	buildRes, err := execrunner.Run(ctx, e.ProjectRoot, toolchainProgram, args...)
	if isTimeoutErr(ctx, err) {
		return matrix.NewFailed(c, matrix.ReasonTimeout, "timed out", time.Since(start))
	}
	buildDuration := time.Since(start)

	if err != nil {
		return matrix.NewFailed(c, matrix.ReasonBuildFailed, err.Error(), buildDuration)
	}
	if buildRes.ExitCode != 0 {
		return matrix.NewFailed(c, matrix.ReasonBuild, diagnostics.FormatErrors(buildRes.Output), buildDuration)
	}

	binary, found := diagnostics.FindTestBinary(buildRes.Output)
	if !found {
		return matrix.NewPassed(c, "no tests to run", buildDuration, 0)
	}

	runRes, err := execrunner.Run(ctx, e.ProjectRoot, binary)
	if isTimeoutErr(ctx, err) {
		return matrix.NewFailed(c, matrix.ReasonTimeout, "timed out", time.Since(start))
	}
	totalDuration := time.Since(start)

	if err != nil || runRes.ExitCode != 0 {
		return matrix.NewFailed(c, matrix.ReasonTestFailed, buildRes.Output+runRes.Output, totalDuration)
	}
	return matrix.NewPassed(c, buildRes.Output+runRes.Output, totalDuration, 0)
}

func isTimeoutErr(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() == context.DeadlineExceeded
}
