package analysis

import (
	"fmt"
	"regexp"
	"strings"
)

// Default thresholds for the length-based rules.
const (
	DefaultLongLineThreshold     = 120
	DefaultLongFunctionThreshold = 50
)

// Rule is one independent issue detector. Rules declare what they look for
// and produce issues; the registry owns execution order and error isolation.
// Every rule fires on every match: no rule suppresses another, the registry
// order only affects presentation.
type Rule interface {
	// Name returns a short identifier for the rule.
	Name() string

	// AppliesTo reports whether the rule is meaningful for the given
	// language.
	AppliesTo(lang Language) bool

	// Apply scans the unit and returns all issues found. Implementations
	// must tolerate arbitrary text.
	Apply(unit SourceUnit, structure StructureInfo) []Issue
}

// RuleConfig carries the tunable thresholds for the built-in rules.
type RuleConfig struct {
	LongLineThreshold     int
	LongFunctionThreshold int
}

// DefaultRuleConfig returns the built-in rule thresholds.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		LongLineThreshold:     DefaultLongLineThreshold,
		LongFunctionThreshold: DefaultLongFunctionThreshold,
	}
}

// IssueDetector runs a registry of rules over a source unit and collects
// their findings in registry order.
type IssueDetector struct {
	rules []Rule
}

// NewIssueDetector creates a detector with the default rule registry in its
// fixed priority order: secrets first, then injection, missing error
// handling, length rules, and finally the informational rules.
func NewIssueDetector(cfg RuleConfig) *IssueDetector {
	if cfg.LongLineThreshold <= 0 {
		cfg.LongLineThreshold = DefaultLongLineThreshold
	}
	if cfg.LongFunctionThreshold <= 0 {
		cfg.LongFunctionThreshold = DefaultLongFunctionThreshold
	}

	return &IssueDetector{
		rules: []Rule{
			NewSecretRule(),
			NewSQLInjectionRule(),
			NewMissingErrorHandlingRule(),
			NewLongFunctionRule(cfg.LongFunctionThreshold),
			NewLongLineRule(cfg.LongLineThreshold),
			NewBareExceptRule(),
			NewDebugStatementRule(),
			NewTodoCommentRule(),
		},
	}
}

// NewIssueDetectorWithRules creates a detector running exactly the given
// rules, in order. Used by tests to exercise rules in isolation.
func NewIssueDetectorWithRules(rules ...Rule) *IssueDetector {
	return &IssueDetector{rules: rules}
}

// Detect runs every applicable rule and returns all issues found, tagged
// with SourcePreAnalysis, in registry order.
func (d *IssueDetector) Detect(unit SourceUnit,
	structure StructureInfo) []Issue {

	var issues []Issue
	for _, rule := range d.rules {
		if !rule.AppliesTo(unit.Language) {
			continue
		}
		issues = append(issues, rule.Apply(unit, structure)...)
	}

	return issues
}

// lineRule is a rule triggered by a per-line predicate. The predicate runs
// behind a recover guard so a predicate panicking on pathological input
// skips that line only and never aborts the whole detector.
type lineRule struct {
	name     string
	category Category
	severity Severity
	langs    []Language // nil means all languages.
	match    func(line string, lineNum int, lines []string) bool
	message  func(line string, lineNum int) string
}

func (r *lineRule) Name() string { return r.name }

func (r *lineRule) AppliesTo(lang Language) bool {
	if r.langs == nil {
		return true
	}
	for _, l := range r.langs {
		if l == lang {
			return true
		}
	}
	return false
}

func (r *lineRule) Apply(unit SourceUnit, _ StructureInfo) []Issue {
	lines := unit.Lines()

	var issues []Issue
	for i, line := range lines {
		lineNum := i + 1
		if !r.safeMatch(line, lineNum, lines) {
			continue
		}

		issues = append(issues, Issue{
			Category: r.category,
			Severity: r.severity,
			Line:     lineNum,
			Message:  r.message(line, lineNum),
			Snippet:  trimSnippet(line),
			Source:   SourcePreAnalysis,
		})
	}

	return issues
}

// safeMatch evaluates the predicate for one line, converting a panic into a
// non-match for that line.
func (r *lineRule) safeMatch(line string, lineNum int,
	lines []string) (matched bool) {

	defer func() {
		if recover() != nil {
			matched = false
		}
	}()

	return r.match(line, lineNum, lines)
}

// trimSnippet trims and bounds a source line for inclusion in an issue.
func trimSnippet(line string) string {
	line = strings.TrimSpace(line)
	if len(line) > 100 {
		line = line[:100] + "..."
	}
	return line
}

var secretPattern = regexp.MustCompile(
	`(?i)(?:api_?key|password|passwd|secret|token|private_?key)` +
		`\s*[:=]\s*["'][^"']{6,}["']`)

// NewSecretRule detects hardcoded credentials: an assignment of a long
// quoted literal to a name that smells like a secret.
func NewSecretRule() Rule {
	return &lineRule{
		name:     "hardcoded-secret",
		category: CategorySecret,
		severity: SeverityCritical,
		match: func(line string, _ int, _ []string) bool {
			return secretPattern.MatchString(line)
		},
		message: func(_ string, _ int) string {
			return "possible hardcoded credential detected"
		},
	}
}

var (
	sqlStringPattern = regexp.MustCompile(
		`(?i)["'][^"']*\b(?:SELECT|INSERT|UPDATE|DELETE)\b[^"']*["']`)
	sqlConcatPattern = regexp.MustCompile(
		`(?i)(?:["']\s*\+|\+\s*["']|%\s*\(|\.format\s*\(` +
			`|f["'][^"']*\{|\$\{)`)
)

// NewSQLInjectionRule detects SQL built by string concatenation or
// interpolation, the classic injection shape.
func NewSQLInjectionRule() Rule {
	return &lineRule{
		name:     "sql-injection",
		category: CategorySQLInjection,
		severity: SeverityCritical,
		match: func(line string, _ int, _ []string) bool {
			return sqlStringPattern.MatchString(line) &&
				sqlConcatPattern.MatchString(line)
		},
		message: func(_ string, _ int) string {
			return "SQL built from string concatenation, " +
				"possible injection"
		},
	}
}

var (
	networkCallPattern = regexp.MustCompile(
		`(?i)\brequests\.(?:get|post|put|delete)\s*\(|\bfetch\s*\(` +
			`|\baxios\.\w+\s*\(|\burllib\.request\b`)
	errorGuardPattern = regexp.MustCompile(
		`(?i)\btry\b|\bcatch\b|\bexcept\b|\brescue\b|\.catch\s*\(` +
			`|if\s+err\b`)
)

// errorGuardWindow is how many preceding lines are checked for an enclosing
// try/catch before a network call is flagged as unguarded.
const errorGuardWindow = 5

// NewMissingErrorHandlingRule flags network calls with no error handling
// construct on the same line or in the preceding few lines. Go is excluded:
// its explicit error returns make this heuristic pure noise there.
func NewMissingErrorHandlingRule() Rule {
	return &lineRule{
		name:     "missing-error-handling",
		category: CategoryMissingErrorHandling,
		severity: SeverityMedium,
		langs: []Language{
			LangPython, LangJavaScript, LangTypeScript,
			LangJava, LangRuby,
		},
		match: func(line string, lineNum int, lines []string) bool {
			if !networkCallPattern.MatchString(line) {
				return false
			}
			start := lineNum - 1 - errorGuardWindow
			if start < 0 {
				start = 0
			}
			for i := start; i < lineNum; i++ {
				if errorGuardPattern.MatchString(lines[i]) {
					return false
				}
			}
			return true
		},
		message: func(_ string, _ int) string {
			return "network call without apparent error handling"
		},
	}
}

// funcLenRule flags functions whose span exceeds the configured length.
type funcLenRule struct {
	threshold int
}

func (r *funcLenRule) Name() string              { return "long-function" }
func (r *funcLenRule) AppliesTo(_ Language) bool { return true }

func (r *funcLenRule) Apply(_ SourceUnit,
	structure StructureInfo) []Issue {

	var issues []Issue
	for _, fn := range structure.Functions {
		length := fn.Length()
		if length <= r.threshold {
			continue
		}

		issues = append(issues, Issue{
			Category: CategoryLongFunction,
			Severity: SeverityMedium,
			Line:     fn.StartLine,
			Message: fmt.Sprintf(
				"function %q is %d lines long (max %d)",
				fn.Name, length, r.threshold,
			),
			Source: SourcePreAnalysis,
		})
	}

	return issues
}

// NewLongFunctionRule flags functions longer than threshold lines.
func NewLongFunctionRule(threshold int) Rule {
	return &funcLenRule{threshold: threshold}
}

// NewLongLineRule flags lines longer than threshold characters.
func NewLongLineRule(threshold int) Rule {
	return &lineRule{
		name:     "long-line",
		category: CategoryLongLine,
		severity: SeverityLow,
		match: func(line string, _ int, _ []string) bool {
			return len(line) > threshold
		},
		message: func(line string, _ int) string {
			return fmt.Sprintf(
				"line exceeds %d characters (%d chars)",
				threshold, len(line),
			)
		},
	}
}

var bareExceptPattern = regexp.MustCompile(`^\s*except\s*:`)

// NewBareExceptRule flags bare Python except clauses that swallow every
// exception type.
func NewBareExceptRule() Rule {
	return &lineRule{
		name:     "bare-except",
		category: CategoryBareExcept,
		severity: SeverityMedium,
		langs:    []Language{LangPython},
		match: func(line string, _ int, _ []string) bool {
			return bareExceptPattern.MatchString(line)
		},
		message: func(_ string, _ int) string {
			return "bare except clause, catch specific " +
				"exceptions instead"
		},
	}
}

var debugStatementPattern = regexp.MustCompile(
	`(?i)\bprint\s*\(|\bconsole\.log\s*\(|\bputs\s`)

// NewDebugStatementRule flags print-style debug output that should be a
// proper logger call.
func NewDebugStatementRule() Rule {
	return &lineRule{
		name:     "debug-statement",
		category: CategoryDebugStatement,
		severity: SeverityLow,
		langs: []Language{
			LangPython, LangJavaScript, LangTypeScript, LangRuby,
		},
		match: func(line string, _ int, _ []string) bool {
			return debugStatementPattern.MatchString(line)
		},
		message: func(_ string, _ int) string {
			return "debug print statement, use a logger"
		},
	}
}

var todoPattern = regexp.MustCompile(`(?:#|//)\s*(?:TODO|FIXME|XXX|HACK)\b`)

// NewTodoCommentRule flags unfinished-work markers left in comments.
func NewTodoCommentRule() Rule {
	return &lineRule{
		name:     "todo-comment",
		category: CategoryTodoComment,
		severity: SeverityLow,
		match: func(line string, _ int, _ []string) bool {
			return todoPattern.MatchString(line)
		},
		message: func(_ string, _ int) string {
			return "unfinished work flagged in comment"
		},
	}
}
