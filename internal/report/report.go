// Package report renders a finished run's results. The core (internal/matrix
// and its subpackages) never imports this package — it hands back a plain
// []matrix.Result and a classify.Counts; this package turns those into
// console, JSON, or HTML output behind a small Reporter interface and a
// kind-keyed factory.
package report

import (
	"fmt"
	"io"

	"matrixrunner/internal/matrix"
	"matrixrunner/internal/matrix/classify"
)

// Run is everything a reporter needs to render one completed matrix run.
type Run struct {
	Language             string
	Results              []matrix.Result
	Counts               classify.Counts
	HasUnexpectedFailure bool
}

// NewRun builds a Run from a result slice, sorting it and deriving the
// classification in one place so every reporter sees the same ordering.
func NewRun(language string, results []matrix.Result) Run {
	classify.Sort(results)
	return Run{
		Language:             language,
		Results:              results,
		Counts:               classify.Count(results),
		HasUnexpectedFailure: classify.HasUnexpectedFailure(results),
	}
}

// Reporter renders a Run to some output sink.
type Reporter interface {
	Report(run Run) error
}

// Kind selects a Reporter implementation.
type Kind string

const (
	KindConsole Kind = "console"
	KindJSON    Kind = "json"
	KindHTML    Kind = "html"
)

// NewReporter resolves kind to a concrete Reporter writing to w.
func NewReporter(kind Kind, w io.Writer) (Reporter, error) {
	switch kind {
	case KindConsole:
		return &ConsoleReporter{Out: w}, nil
	case KindJSON:
		return &JSONReporter{Out: w}, nil
	case KindHTML:
		return &HTMLReporter{Out: w}, nil
	default:
		return nil, fmt.Errorf("report: unknown reporter kind %q", kind)
	}
}
