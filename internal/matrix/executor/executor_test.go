package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matrixrunner/internal/matrix"
)

func timeoutSecs(v uint64) *uint64 { return &v }

func TestExecute_CustomCommandSuccess(t *testing.T) {
	e := New(t.TempDir(), "irrelevant")
	c := matrix.Case{Name: "ok", Command: "true"}

	res := e.Execute(context.Background(), c)
	require.Equal(t, matrix.Passed, res.Kind)
	assert.Equal(t, 1, res.Attempts)
}

func TestExecute_CustomCommandFailure(t *testing.T) {
	e := New(t.TempDir(), "irrelevant")
	c := matrix.Case{Name: "bad", Command: "false"}

	res := e.Execute(context.Background(), c)
	require.Equal(t, matrix.Failed, res.Kind)
	assert.Equal(t, matrix.ReasonCustomCommand, res.Reason)
}

func TestExecute_CustomCommandEnvExpansion(t *testing.T) {
	t.Setenv("MATRIXRUNNER_TEST_FILE_MARKER", "present")
	e := New(t.TempDir(), "irrelevant")
	c := matrix.Case{Name: "envtest", Command: `sh -c "test \"$MATRIXRUNNER_TEST_FILE_MARKER\" = present"`}

	res := e.Execute(context.Background(), c)
	require.Equal(t, matrix.Passed, res.Kind)
}

func TestExecute_RetriesUntilPass(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "attempted")
	script := fmt.Sprintf(`sh -c 'if [ -f %s ]; then exit 0; else touch %s; exit 1; fi'`, marker, marker)

	e := New(dir, "irrelevant")
	c := matrix.Case{Name: "retry", Command: script, Retries: 1}

	res := e.Execute(context.Background(), c)
	require.Equal(t, matrix.Passed, res.Kind)
	assert.Equal(t, 2, res.Attempts)
}

func TestExecute_TimeoutNeverRetries(t *testing.T) {
	e := New(t.TempDir(), "irrelevant")
	c := matrix.Case{Name: "slow", Command: "sleep 30", TimeoutSecs: timeoutSecs(1), Retries: 3}

	res := e.Execute(context.Background(), c)
	require.Equal(t, matrix.Failed, res.Kind)
	assert.Equal(t, matrix.ReasonTimeout, res.Reason)
}

func TestExecute_EmptyCommandIsCustomCommandFailure(t *testing.T) {
	e := New(t.TempDir(), "irrelevant")
	c := matrix.Case{Name: "empty", Command: "   "}

	res := e.Execute(context.Background(), c)
	require.Equal(t, matrix.Failed, res.Kind)
	assert.Equal(t, matrix.ReasonCustomCommand, res.Reason)
}

// writeExecutable drops an executable shell script at path, standing in for
// the real build toolchain so the build-then-run path can be exercised
// without a project that actually builds.
func writeExecutable(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
}

// stubCargo writes script as the "cargo" found on PATH for the duration of
// the test.
func stubCargo(t *testing.T, script string) {
	t.Helper()
	dir := t.TempDir()
	writeExecutable(t, filepath.Join(dir, "cargo"), script)
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// assertNoLeftoverWorkspace fails the test if any matrix-runner-* workspace
// directory still exists under projectRoot/target, i.e. the case's
// workspace was not released.
func assertNoLeftoverWorkspace(t *testing.T, projectRoot string) {
	t.Helper()
	matches, _ := filepath.Glob(filepath.Join(projectRoot, "target", "matrix-runner-*"))
	assert.Empty(t, matches, "workspace directory was not released")
}

func TestExecute_BuildFailureFormatsDiagnostics(t *testing.T) {
	stubCargo(t, `#!/bin/sh
cat <<'EOF'
{"reason":"compiler-message","message":{"level":"error","message":"plain","rendered":"error[E0001]: boom\n"}}
EOF
exit 1
`)
	projectRoot := t.TempDir()
	e := New(projectRoot, "mycrate")

	res := e.Execute(context.Background(), matrix.Case{Name: "build-fail"})
	require.Equal(t, matrix.Failed, res.Kind)
	assert.Equal(t, matrix.ReasonBuild, res.Reason)
	assert.Contains(t, res.Output, "error[E0001]: boom")
	assertNoLeftoverWorkspace(t, projectRoot)
}

func TestExecute_NoTestBinaryIsPassed(t *testing.T) {
	stubCargo(t, `#!/bin/sh
cat <<'EOF'
{"reason":"compiler-artifact","target":{"name":"mycrate","test":false}}
EOF
exit 0
`)
	projectRoot := t.TempDir()
	e := New(projectRoot, "mycrate")

	res := e.Execute(context.Background(), matrix.Case{Name: "no-binary"})
	require.Equal(t, matrix.Passed, res.Kind)
	assert.Equal(t, "no tests to run", res.Output)
	assertNoLeftoverWorkspace(t, projectRoot)
}

func TestExecute_TestBinaryPass(t *testing.T) {
	scriptsDir := t.TempDir()
	testBin := filepath.Join(scriptsDir, "test_bin_pass")
	writeExecutable(t, testBin, "#!/bin/sh\necho test output ok\nexit 0\n")
	stubCargo(t, fmt.Sprintf(`#!/bin/sh
cat <<'EOF'
{"reason":"compiler-artifact","target":{"name":"mycrate","test":true},"executable":"%s"}
EOF
exit 0
`, testBin))

	projectRoot := t.TempDir()
	e := New(projectRoot, "mycrate")

	res := e.Execute(context.Background(), matrix.Case{Name: "test-pass"})
	require.Equal(t, matrix.Passed, res.Kind)
	assert.Contains(t, res.Output, "test output ok")
	assertNoLeftoverWorkspace(t, projectRoot)
}

func TestExecute_TestBinaryFailure(t *testing.T) {
	scriptsDir := t.TempDir()
	testBin := filepath.Join(scriptsDir, "test_bin_fail")
	writeExecutable(t, testBin, "#!/bin/sh\necho test output FAILED\nexit 1\n")
	stubCargo(t, fmt.Sprintf(`#!/bin/sh
cat <<'EOF'
{"reason":"compiler-artifact","target":{"name":"mycrate","test":true},"executable":"%s"}
EOF
exit 0
`, testBin))

	projectRoot := t.TempDir()
	e := New(projectRoot, "mycrate")

	res := e.Execute(context.Background(), matrix.Case{Name: "test-fail"})
	require.Equal(t, matrix.Failed, res.Kind)
	assert.Equal(t, matrix.ReasonTestFailed, res.Reason)
	assert.Contains(t, res.Output, "test output FAILED")
	assertNoLeftoverWorkspace(t, projectRoot)
}

