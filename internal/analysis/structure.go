package analysis

import (
	"regexp"
	"strings"
)

// FunctionSpan records one detected function declaration and the line range
// it covers. EndLine is inclusive and heuristic: it runs to the line before
// the next top-level declaration, or to end of file.
type FunctionSpan struct {
	Name      string `json:"name"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// Length returns the number of lines the function spans.
func (f FunctionSpan) Length() int {
	return f.EndLine - f.StartLine + 1
}

// StructureInfo summarizes the top-level shape of a source unit: how many
// functions, classes, and imports it declares, and which async/decorator
// markers appear. Derived purely from the SourceUnit; one instance per
// review.
type StructureInfo struct {
	TotalLines    int            `json:"total_lines"`
	CodeLines     int            `json:"code_lines"`
	CommentLines  int            `json:"comment_lines"`
	BlankLines    int            `json:"blank_lines"`
	FunctionCount int            `json:"function_count"`
	ClassCount    int            `json:"class_count"`
	ImportCount   int            `json:"import_count"`
	Functions     []FunctionSpan `json:"functions"`
	Classes       []string       `json:"classes"`
	UsesAsync     bool           `json:"uses_async"`
	UsesDecorator bool           `json:"uses_decorator"`

	// LowConfidence is set when the language heuristics found nothing to
	// anchor on, so downstream consumers know the counts may reflect
	// unparseable input rather than a genuinely empty file.
	LowConfidence bool `json:"low_confidence"`
}

// languageSyntax holds the lexical markers used to spot declarations for one
// language family.
type languageSyntax struct {
	function  *regexp.Regexp
	class     *regexp.Regexp
	importRe  *regexp.Regexp
	asyncRe   *regexp.Regexp
	decorator *regexp.Regexp
	comment   []string
}

var (
	pythonSyntax = &languageSyntax{
		function:  regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)\s*\(`),
		class:     regexp.MustCompile(`^\s*class\s+(\w+)`),
		importRe:  regexp.MustCompile(`^\s*(?:import\s+\w|from\s+\S+\s+import)`),
		asyncRe:   regexp.MustCompile(`\basync\s+def\b|\bawait\b`),
		decorator: regexp.MustCompile(`^\s*@\w+`),
		comment:   []string{"#"},
	}

	goSyntax = &languageSyntax{
		function:  regexp.MustCompile(`^func\s+(?:\([^)]*\)\s+)?(\w+)\s*[(\[]`),
		class:     regexp.MustCompile(`^type\s+(\w+)\s+(?:struct|interface)\b`),
		importRe:  regexp.MustCompile(`^\s*(?:import\s|"[\w./-]+"$|\t"[\w./-]+")`),
		asyncRe:   regexp.MustCompile(`\bgo\s+func\b|\bgo\s+\w+(\.\w+)*\(`),
		decorator: nil,
		comment:   []string{"//"},
	}

	jsSyntax = &languageSyntax{
		function: regexp.MustCompile(
			`^\s*(?:export\s+)?(?:async\s+)?function\s*\*?\s*(\w+)\s*\(` +
				`|^\s*(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s*)?(?:function\b|\()`),
		class:     regexp.MustCompile(`^\s*(?:export\s+)?(?:abstract\s+)?class\s+(\w+)`),
		importRe:  regexp.MustCompile(`^\s*(?:import\s|(?:const|let|var)\s+.*=\s*require\()`),
		asyncRe:   regexp.MustCompile(`\basync\b|\bawait\b`),
		decorator: regexp.MustCompile(`^\s*@\w+`),
		comment:   []string{"//", "/*"},
	}

	javaSyntax = &languageSyntax{
		function: regexp.MustCompile(
			`^\s*(?:public|private|protected|static|final|\s)+[\w<>\[\]]+\s+(\w+)\s*\([^;]*$`),
		class:     regexp.MustCompile(`^\s*(?:public\s+|private\s+|abstract\s+|final\s+)*(?:class|interface|enum)\s+(\w+)`),
		importRe:  regexp.MustCompile(`^\s*import\s+[\w.]+`),
		asyncRe:   regexp.MustCompile(`\bCompletableFuture\b|\bRunnable\b`),
		decorator: regexp.MustCompile(`^\s*@\w+`),
		comment:   []string{"//", "/*"},
	}

	cSyntax = &languageSyntax{
		function:  regexp.MustCompile(`^[\w*]+[\w\s*]*\s[*]?(\w+)\s*\([^;]*\)\s*\{?\s*$`),
		class:     regexp.MustCompile(`^\s*(?:typedef\s+)?(?:struct|class|union|enum)\s+(\w+)`),
		importRe:  regexp.MustCompile(`^\s*#\s*include\b`),
		asyncRe:   regexp.MustCompile(`\bpthread_create\b|\bstd::thread\b|\bstd::async\b`),
		decorator: nil,
		comment:   []string{"//", "/*"},
	}

	rustSyntax = &languageSyntax{
		function:  regexp.MustCompile(`^\s*(?:pub\s+)?(?:async\s+)?fn\s+(\w+)`),
		class:     regexp.MustCompile(`^\s*(?:pub\s+)?(?:struct|enum|trait)\s+(\w+)`),
		importRe:  regexp.MustCompile(`^\s*use\s+[\w:]+`),
		asyncRe:   regexp.MustCompile(`\basync\s+fn\b|\.await\b`),
		decorator: regexp.MustCompile(`^\s*#\[`),
		comment:   []string{"//", "/*"},
	}

	rubySyntax = &languageSyntax{
		function:  regexp.MustCompile(`^\s*def\s+([\w?!]+)`),
		class:     regexp.MustCompile(`^\s*(?:class|module)\s+(\w+)`),
		importRe:  regexp.MustCompile(`^\s*require(?:_relative)?\s`),
		asyncRe:   regexp.MustCompile(`\bThread\.new\b|\bFiber\b`),
		decorator: nil,
		comment:   []string{"#"},
	}
)

// syntaxFor returns the lexical marker table for a language, falling back to
// the javascript table for unknown tags since its patterns are the most
// permissive of the C-family shapes.
func syntaxFor(lang Language) *languageSyntax {
	switch lang {
	case LangPython:
		return pythonSyntax
	case LangGo:
		return goSyntax
	case LangJavaScript, LangTypeScript:
		return jsSyntax
	case LangJava:
		return javaSyntax
	case LangC, LangCPP:
		return cSyntax
	case LangRust:
		return rustSyntax
	case LangRuby:
		return rubySyntax
	default:
		return jsSyntax
	}
}

// StructureExtractor scans raw source text with language-aware lexical
// heuristics for function, class, and import declarations. It never fails on
// syntactically invalid input: when nothing matches it returns zero counts
// with the low-confidence flag set rather than erroring.
type StructureExtractor struct{}

// NewStructureExtractor creates a new structure extractor.
func NewStructureExtractor() *StructureExtractor {
	return &StructureExtractor{}
}

// Extract derives StructureInfo from the source unit.
func (e *StructureExtractor) Extract(unit SourceUnit) StructureInfo {
	lines := unit.Lines()
	syn := syntaxFor(unit.Language)

	info := StructureInfo{
		TotalLines: len(lines),
	}

	for i, line := range lines {
		lineNum := i + 1
		stripped := strings.TrimSpace(line)

		switch {
		case stripped == "":
			info.BlankLines++
		case isCommentLine(stripped, syn):
			info.CommentLines++
		default:
			info.CodeLines++
		}

		if m := syn.function.FindStringSubmatch(line); m != nil {
			name := firstGroup(m)
			if name != "" {
				info.Functions = append(info.Functions, FunctionSpan{
					Name:      name,
					StartLine: lineNum,
					EndLine:   len(lines),
				})
			}
		}

		if m := syn.class.FindStringSubmatch(line); m != nil {
			if name := firstGroup(m); name != "" {
				info.Classes = append(info.Classes, name)
			}
		}

		if syn.importRe.MatchString(line) {
			info.ImportCount++
		}

		if syn.decorator != nil && syn.decorator.MatchString(line) {
			info.UsesDecorator = true
		}
	}

	// Close each function span at the line before the next declaration.
	for i := range info.Functions {
		if i+1 < len(info.Functions) {
			info.Functions[i].EndLine =
				info.Functions[i+1].StartLine - 1
		}
	}

	info.FunctionCount = len(info.Functions)
	info.ClassCount = len(info.Classes)
	info.UsesAsync = syn.asyncRe.MatchString(unit.Text)

	// Non-empty input in which the heuristics found no declarations at
	// all is either trivial or unparseable; flag it so downstream stages
	// know the structural counts carry little signal.
	if info.CodeLines > 0 && info.FunctionCount == 0 &&
		info.ClassCount == 0 && info.ImportCount == 0 {

		info.LowConfidence = true
	}

	return info
}

// isCommentLine reports whether a stripped line starts with one of the
// language's comment markers.
func isCommentLine(stripped string, syn *languageSyntax) bool {
	for _, marker := range syn.comment {
		if strings.HasPrefix(stripped, marker) {
			return true
		}
	}
	return false
}

// firstGroup returns the first non-empty capture group from a regexp match,
// which lets a single pattern carry alternative declaration forms.
func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
