// Package config loads and validates the TOML matrix file that declares a
// run's cases, converting it into the internal matrix.Matrix the planner
// consumes.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"matrixrunner/internal/matrix"
)

// File is the raw TOML shape of a matrix file.
type File struct {
	Language string     `toml:"language"`
	Cases    []caseFile `toml:"cases"`
}

type caseFile struct {
	Name              string   `toml:"name"`
	Features          string   `toml:"features"`
	NoDefaultFeatures bool     `toml:"no_default_features"`
	Command           string   `toml:"command"`
	TimeoutSecs       *uint64  `toml:"timeout_secs"`
	Retries           *uint8   `toml:"retries"`
	AllowFailure      []string `toml:"allow_failure"`
	Arch              []string `toml:"arch"`
}

// Error is a single configuration problem, reported with enough context to
// act on without re-parsing the file.
type Error struct {
	FilePath string
	Field    string
	Message  string
}

func (e Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.FilePath, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// Errors collects every problem found while validating a matrix file, so a
// user sees all of them at once rather than one at a time.
type Errors struct {
	Errors []Error
}

func (e *Errors) add(filePath, field, message string) {
	e.Errors = append(e.Errors, Error{FilePath: filePath, Field: field, Message: message})
}

func (e *Errors) HasErrors() bool { return len(e.Errors) > 0 }

func (e *Errors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d configuration errors:", len(e.Errors))
	for _, single := range e.Errors {
		msg += "\n  - " + single.Error()
	}
	return msg
}

// Load reads and validates the matrix file at path, returning the converted
// matrix.Matrix. Every validation problem is collected into a single
// *Errors rather than failing on the first one.
func Load(path string) (matrix.Matrix, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return matrix.Matrix{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var f File
	if err := toml.Unmarshal(raw, &f); err != nil {
		return matrix.Matrix{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if f.Language == "" {
		f.Language = "en"
	}

	var errs Errors
	seen := make(map[string]bool, len(f.Cases))
	cases := make([]matrix.Case, 0, len(f.Cases))

	for i, cf := range f.Cases {
		field := fmt.Sprintf("cases[%d]", i)
		if cf.Name == "" {
			errs.add(path, field+".name", "name is required")
			continue
		}
		if seen[cf.Name] {
			errs.add(path, field+".name", fmt.Sprintf("duplicate case name %q", cf.Name))
			continue
		}
		seen[cf.Name] = true

		if cf.TimeoutSecs != nil && *cf.TimeoutSecs == 0 {
			errs.add(path, field+".timeout_secs", "must be positive")
			continue
		}

		var retries uint8
		if cf.Retries != nil {
			retries = *cf.Retries
		}

		cases = append(cases, matrix.Case{
			Name:              cf.Name,
			Features:          cf.Features,
			NoDefaultFeatures: cf.NoDefaultFeatures,
			Command:           cf.Command,
			TimeoutSecs:       cf.TimeoutSecs,
			Retries:           retries,
			AllowFailure:      cf.AllowFailure,
			Arch:              cf.Arch,
		})
	}

	if errs.HasErrors() {
		return matrix.Matrix{}, &errs
	}

	return matrix.Matrix{Language: f.Language, Cases: cases}, nil
}
