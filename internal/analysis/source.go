// Package analysis implements the deterministic pre-analysis engine: it
// extracts structural facts, complexity metrics, detected patterns, and
// candidate issues directly from raw source text, before any AI review
// happens. Everything in this package is pure: same input, same output, no
// side effects.
package analysis

import (
	"path/filepath"
	"strings"
)

// Language identifies the declared language of a source unit. Detection
// heuristics elsewhere in this package key off this tag.
type Language string

const (
	LangPython     Language = "python"
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangRust       Language = "rust"
	LangRuby       Language = "ruby"
	LangUnknown    Language = "unknown"
)

// SupportedLanguages lists every language tag the engine accepts.
var SupportedLanguages = []Language{
	LangPython, LangGo, LangJavaScript, LangTypeScript, LangJava,
	LangC, LangCPP, LangRust, LangRuby,
}

// IsSupported returns true if the language is one the engine knows how to
// analyze.
func (l Language) IsSupported() bool {
	for _, lang := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// String returns the string representation of the language tag.
func (l Language) String() string {
	return string(l)
}

// extensionLanguages maps file extensions to language tags for detection
// when the caller supplies a file name but no explicit tag.
var extensionLanguages = map[string]Language{
	".py":  LangPython,
	".go":  LangGo,
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".mjs": LangJavaScript,
	".ts":  LangTypeScript,
	".tsx": LangTypeScript,
	".java": LangJava,
	".c":   LangC,
	".h":   LangC,
	".cc":  LangCPP,
	".cpp": LangCPP,
	".hpp": LangCPP,
	".rs":  LangRust,
	".rb":  LangRuby,
}

// DetectLanguage infers a language tag from a file name's extension,
// returning LangUnknown when the extension is not recognized.
func DetectLanguage(fileName string) Language {
	ext := strings.ToLower(filepath.Ext(fileName))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	return LangUnknown
}

// SourceUnit is the immutable input to every analyzer: the raw text of one
// file plus its declared language. Created once per review request and never
// mutated; analyzers share it read-only, which is what makes the concurrent
// fan-out in Analyzer.Run safe without locks.
type SourceUnit struct {
	// FileName is the original file name, used for reporting only.
	FileName string

	// Language is the declared language tag.
	Language Language

	// Text is the full raw source text.
	Text string

	// Size is the byte size of Text, recorded at creation so callers can
	// enforce limits without rescanning.
	Size int
}

// NewSourceUnit builds a SourceUnit from raw text. If lang is empty, the
// language is detected from the file name's extension.
func NewSourceUnit(fileName string, lang Language, text string) SourceUnit {
	if lang == "" {
		lang = DetectLanguage(fileName)
	}

	return SourceUnit{
		FileName: fileName,
		Language: lang,
		Text:     text,
		Size:     len(text),
	}
}

// Lines splits the source text into lines. The split preserves empty lines
// so line numbers stay 1-based and stable across analyzers.
func (u SourceUnit) Lines() []string {
	return strings.Split(u.Text, "\n")
}
