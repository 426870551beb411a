package report

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// htmlShell wraps the rendered body in a minimal standalone page.
const htmlShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: -apple-system, sans-serif; max-width: 52rem;
       margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
code { background: #f2f2f2; padding: 0.1rem 0.3rem; border-radius: 3px; }
h1 { border-bottom: 1px solid #ddd; padding-bottom: 0.3rem; }
</style>
</head>
<body>
%s</body>
</html>
`

// markdownEngine converts report markdown to HTML. GFM covers the tables
// and strikethrough the renderer may emit.
var markdownEngine = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// HTML renders the markdown report as a standalone HTML page.
func HTML(markdown, title string) (string, error) {
	var body strings.Builder
	if err := markdownEngine.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("failed to render report html: %w", err)
	}

	return fmt.Sprintf(htmlShell, htmlEscape(title), body.String()), nil
}

// htmlEscape escapes the title for embedding in the page head.
func htmlEscape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
	)
	return r.Replace(s)
}
