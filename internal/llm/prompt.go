package llm

import (
	"fmt"
	"strings"

	"github.com/roasbeef/scrutiny/internal/analysis"
)

// systemPrompt frames the model as a reviewer that must return strict JSON.
const systemPrompt = `You are an expert code reviewer. You receive a static
analysis context followed by the source code. Respond with ONLY a JSON
object (optionally inside a ` + "```json" + ` fence) with this exact shape:

{
  "validated_issues": [{"category": "...", "line": 1, "message": "..."}],
  "false_positives": [{"category": "...", "line": 1, "reason": "..."}],
  "new_findings": [{"category": "...", "severity": "critical|medium|low",
                    "line": 1, "message": "..."}],
  "summary": "one paragraph assessment",
  "recommendations": ["specific actionable improvement"],
  "score": 0
}

validated_issues and false_positives must reference the pre-identified
issues from the context by category and line. new_findings are issues the
static analysis missed. score is your 0-100 quality estimate. Return no
text outside the JSON object.`

// buildUserPrompt assembles the user message: the analysis context, then
// the (already redacted) source.
func buildUserPrompt(unit analysis.SourceUnit, contextText,
	source string) string {

	var sb strings.Builder

	sb.WriteString(contextText)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "## Source Code (%s, %s)\n\n",
		unit.FileName, unit.Language)
	fmt.Fprintf(&sb, "```%s\n%s\n```\n", unit.Language, source)

	return sb.String()
}
