package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCase_IsFlaky(t *testing.T) {
	c := Case{Name: "c", AllowFailure: []string{"linux", "windows"}}
	assert.True(t, c.IsFlaky("linux"))
	assert.True(t, c.IsFlaky("windows"))
	assert.False(t, c.IsFlaky("darwin"))
	assert.False(t, Case{Name: "none"}.IsFlaky("linux"))
}

func TestCase_MatchesArch(t *testing.T) {
	assert.True(t, Case{Name: "any"}.MatchesArch("amd64"), "empty arch set matches everything")

	c := Case{Name: "c", Arch: []string{"arm64"}}
	assert.True(t, c.MatchesArch("arm64"))
	assert.False(t, c.MatchesArch("amd64"))
}

func TestCase_MaxAttempts(t *testing.T) {
	assert.Equal(t, 1, Case{Name: "c"}.MaxAttempts())
	assert.Equal(t, 4, Case{Name: "c", Retries: 3}.MaxAttempts())
	assert.Equal(t, 256, Case{Name: "c", Retries: 255}.MaxAttempts())
}

func TestResultConstructors(t *testing.T) {
	c := Case{Name: "c"}

	p := NewPassed(c, "out", 0, 2)
	assert.Equal(t, Passed, p.Kind)
	assert.Equal(t, 2, p.Attempts)

	f := NewFailed(c, ReasonTimeout, "timed out", 0)
	assert.Equal(t, Failed, f.Kind)
	assert.Equal(t, ReasonTimeout, f.Reason)

	s := NewSkipped(c)
	assert.Equal(t, Skipped, s.Kind)
	assert.Zero(t, s.Attempts)
}
