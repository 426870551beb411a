package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// PreAnalysis is the aggregate output of the deterministic analysis stage:
// everything the engine learned about the source before the AI sees it.
// Produced once per request and read-only afterward.
type PreAnalysis struct {
	Structure  StructureInfo  `json:"structure"`
	Complexity ComplexityInfo `json:"complexity"`
	Patterns   PatternInfo    `json:"patterns"`
	Issues     []Issue        `json:"issues"`

	// Degraded lists analyzer stages that failed on this input. A
	// degraded stage contributes zero values instead of failing the
	// request.
	Degraded []string `json:"degraded,omitempty"`
}

// Config carries the thresholds injected into each analyzer at construction.
type Config struct {
	ComplexityThreshold   int
	LongLineThreshold     int
	LongFunctionThreshold int
}

// DefaultConfig returns the default analyzer thresholds.
func DefaultConfig() Config {
	return Config{
		ComplexityThreshold:   DefaultComplexityThreshold,
		LongLineThreshold:     DefaultLongLineThreshold,
		LongFunctionThreshold: DefaultLongFunctionThreshold,
	}
}

// Analyzer runs the four pre-analysis stages over a source unit. The stages
// share only the read-only SourceUnit, so the pattern, issue, and structure
// scans fan out concurrently; complexity joins on structure for its function
// spans.
type Analyzer struct {
	structure  *StructureExtractor
	complexity *ComplexityScorer
	patterns   *PatternDetector
	issues     *IssueDetector

	log *slog.Logger
}

// NewAnalyzer creates an analyzer with the given thresholds.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{
		structure:  NewStructureExtractor(),
		complexity: NewComplexityScorer(cfg.ComplexityThreshold),
		patterns:   NewPatternDetector(),
		issues: NewIssueDetector(RuleConfig{
			LongLineThreshold:     cfg.LongLineThreshold,
			LongFunctionThreshold: cfg.LongFunctionThreshold,
		}),
		log: slog.With("component", "analysis"),
	}
}

// Run executes the full pre-analysis over the unit. A stage that panics on
// pathological input is recorded as degraded and contributes zero values;
// Run itself never fails.
func (a *Analyzer) Run(ctx context.Context, unit SourceUnit) PreAnalysis {
	var (
		pre      PreAnalysis
		degraded []string
	)

	// Structure runs first because complexity and the length rules
	// consume its function spans.
	if err := runStage("structure", func() {
		pre.Structure = a.structure.Extract(unit)
	}); err != nil {
		degraded = append(degraded, "structure")
		a.log.WarnContext(ctx, "Structure extraction degraded",
			"file", unit.FileName, "err", err)
	}

	// The remaining stages have no inter-dependencies beyond the shared
	// read-only input, so they fan out.
	g, _ := errgroup.WithContext(ctx)

	var (
		complexityErr error
		patternsErr   error
		issuesErr     error
	)

	g.Go(func() error {
		complexityErr = runStage("complexity", func() {
			pre.Complexity = a.complexity.Score(
				unit, pre.Structure,
			)
		})
		return nil
	})
	g.Go(func() error {
		patternsErr = runStage("patterns", func() {
			pre.Patterns = a.patterns.Detect(unit)
		})
		return nil
	})
	g.Go(func() error {
		issuesErr = runStage("issues", func() {
			pre.Issues = a.issues.Detect(unit, pre.Structure)
		})
		return nil
	})

	// Stage goroutines never return errors; failures surface through
	// the per-stage error slots after the join.
	_ = g.Wait()

	for _, stage := range []struct {
		name string
		err  error
	}{
		{"complexity", complexityErr},
		{"patterns", patternsErr},
		{"issues", issuesErr},
	} {
		if stage.err != nil {
			degraded = append(degraded, stage.name)
			a.log.WarnContext(ctx, "Analysis stage degraded",
				"stage", stage.name, "file", unit.FileName,
				"err", stage.err)
		}
	}

	if pre.Patterns == nil {
		pre.Patterns = make(PatternInfo)
	}
	pre.Degraded = degraded

	return pre
}

// runStage executes one analysis stage, converting a panic into an error so
// a single misbehaving stage degrades instead of crashing the pipeline.
func runStage(name string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %s panicked: %v", name, r)
		}
	}()

	fn()
	return nil
}
