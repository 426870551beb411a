// Package eval benchmarks the deterministic analysis pipeline against
// golden cases with known expected findings.
package eval

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roasbeef/scrutiny/internal/analysis"
)

//go:embed cases/*.yaml
var embeddedCases embed.FS

// ExpectedIssue is one finding a golden case expects the pipeline to
// produce.
type ExpectedIssue struct {
	Category string `yaml:"category"`
	Severity string `yaml:"severity"`
	Line     int    `yaml:"line"`
}

// Case is one golden benchmark case: a source fixture plus the findings a
// correct analysis should report.
type Case struct {
	Name     string          `yaml:"name"`
	FileName string          `yaml:"file_name"`
	Language string          `yaml:"language,omitempty"`
	Source   string          `yaml:"source"`
	Expected []ExpectedIssue `yaml:"expected"`
}

// SourceUnit converts the case fixture into an analyzable unit.
func (c Case) SourceUnit() analysis.SourceUnit {
	return analysis.NewSourceUnit(
		c.FileName, analysis.Language(c.Language), c.Source,
	)
}

// LoadEmbeddedCases parses the golden cases compiled into the binary,
// sorted by name for stable reporting.
func LoadEmbeddedCases() ([]Case, error) {
	entries, err := fs.Glob(embeddedCases, "cases/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to list eval cases: %w", err)
	}

	cases := make([]Case, 0, len(entries))
	for _, name := range entries {
		raw, err := embeddedCases.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read eval case "+
				"%s: %w", name, err)
		}

		var c Case
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("failed to parse eval case "+
				"%s: %w", name, err)
		}
		if c.Name == "" || c.FileName == "" || c.Source == "" {
			return nil, fmt.Errorf("eval case %s is missing "+
				"name, file_name, or source", name)
		}

		cases = append(cases, c)
	}

	sort.Slice(cases, func(i, j int) bool {
		return cases[i].Name < cases[j].Name
	})

	return cases, nil
}
