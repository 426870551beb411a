package analysis

import "regexp"

// PatternCategory names a domain pattern the detector scans for. Patterns
// are informational: they tell the AI reviewer what kind of code it is
// looking at, they are not defects.
type PatternCategory string

const (
	PatternAPIEndpoint PatternCategory = "api_endpoint"
	PatternDBQuery     PatternCategory = "db_query"
	PatternFileIO      PatternCategory = "file_io"
	PatternNetworkCall PatternCategory = "network_call"
	PatternAuth        PatternCategory = "auth"
)

// maxPatternExamples bounds how many example line numbers are retained per
// category so PatternInfo stays small regardless of input size.
const maxPatternExamples = 3

// PatternMatch records how often one category matched and where it was first
// seen.
type PatternMatch struct {
	Count int `json:"count"`

	// ExampleLines holds up to maxPatternExamples 1-based line numbers,
	// in ascending order.
	ExampleLines []int `json:"example_lines"`
}

// PatternInfo maps each detected category to its match summary. Categories
// with zero matches are absent from the map.
type PatternInfo map[PatternCategory]PatternMatch

// patternDef pairs a category with its trigger regex.
type patternDef struct {
	category PatternCategory
	trigger  *regexp.Regexp
}

// patternDefs are the category scans. Each scan is independent and
// order-insensitive: a single line may match several categories. False
// negatives are acceptable; these are heuristics, not a parser.
var patternDefs = []patternDef{
	{
		category: PatternAPIEndpoint,
		trigger: regexp.MustCompile(
			`(?i)@(?:app|router)\.(?:get|post|put|delete|patch)` +
				`|\.(?:Get|Post|Put|Delete|Handle|HandleFunc)\s*\(\s*"/` +
				`|@(?:Get|Post|Put|Delete)Mapping`),
	},
	{
		category: PatternDBQuery,
		trigger: regexp.MustCompile(
			`(?i)\b(?:SELECT|INSERT|UPDATE|DELETE)\s+` +
				`|\.(?:query|execute|exec)\s*\(` +
				`|\bdb\.(?:Query|Exec|QueryRow)`),
	},
	{
		category: PatternFileIO,
		trigger: regexp.MustCompile(
			`(?i)\bopen\s*\(|\bos\.(?:Open|Create|ReadFile|WriteFile)` +
				`|\bfs\.(?:readFile|writeFile)|\bFile\s*\(` +
				`|\bioutil\.|readFileSync|writeFileSync`),
	},
	{
		category: PatternNetworkCall,
		trigger: regexp.MustCompile(
			`(?i)\brequests\.(?:get|post|put|delete)|\baxios\.` +
				`|\bfetch\s*\(|\bhttp\.(?:Get|Post|Client|request)` +
				`|\burllib\.|\bhttpx\.`),
	},
	{
		category: PatternAuth,
		trigger: regexp.MustCompile(
			`(?i)\b(?:authenticate|authorize|login|logout|jwt|oauth` +
				`|bearer|session_token|check_password|verify_token)\b`),
	},
}

// PatternDetector runs every category scan over a source unit. The caller is
// responsible for rejecting oversized input before invoking it.
type PatternDetector struct{}

// NewPatternDetector creates a new pattern detector.
func NewPatternDetector() *PatternDetector {
	return &PatternDetector{}
}

// Detect scans the source unit and returns the per-category match summary.
func (d *PatternDetector) Detect(unit SourceUnit) PatternInfo {
	lines := unit.Lines()
	info := make(PatternInfo)

	for _, def := range patternDefs {
		var match PatternMatch
		for i, line := range lines {
			if !def.trigger.MatchString(line) {
				continue
			}

			match.Count++
			if len(match.ExampleLines) < maxPatternExamples {
				match.ExampleLines = append(
					match.ExampleLines, i+1,
				)
			}
		}

		if match.Count > 0 {
			info[def.category] = match
		}
	}

	return info
}
