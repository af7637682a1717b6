package report

import (
	"encoding/json"
	"io"

	"matrixrunner/internal/matrix"
)

// JSONReporter marshals the full Run for machine consumption, e.g. CI
// pipelines that want a structured pass/fail verdict rather than scraping
// console output.
type JSONReporter struct {
	Out io.Writer
}

type jsonResult struct {
	Case     string               `json:"case"`
	Kind     matrix.Kind          `json:"kind"`
	Reason   matrix.FailureReason `json:"reason,omitempty"`
	Output   string               `json:"output,omitempty"`
	Duration float64              `json:"duration_secs"`
	Attempts int                  `json:"attempts,omitempty"`
}

type jsonRun struct {
	Language             string       `json:"language"`
	HasUnexpectedFailure bool         `json:"has_unexpected_failure"`
	Total                int          `json:"total"`
	Passed               int          `json:"passed"`
	UnexpectedFailed     int          `json:"unexpected_failed"`
	AllowedFailed        int          `json:"allowed_failed"`
	Skipped              int          `json:"skipped"`
	Results              []jsonResult `json:"results"`
}

func (j *JSONReporter) Report(run Run) error {
	out := jsonRun{
		Language:             run.Language,
		HasUnexpectedFailure: run.HasUnexpectedFailure,
		Total:                run.Counts.Total,
		Passed:               run.Counts.Passed,
		UnexpectedFailed:     run.Counts.UnexpectedFailed,
		AllowedFailed:        run.Counts.AllowedFailed,
		Skipped:              run.Counts.Skipped,
	}
	for _, r := range run.Results {
		out.Results = append(out.Results, jsonResult{
			Case:     r.Case.Name,
			Kind:     r.Kind,
			Reason:   r.Reason,
			Output:   r.Output,
			Duration: r.Duration.Seconds(),
			Attempts: r.Attempts,
		})
	}

	enc := json.NewEncoder(j.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
