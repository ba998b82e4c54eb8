// Package analyzer classifies what kind of construct a learner deleted.
package analyzer

import (
	"strings"

	"github.com/dusk-indust/learnwatch/internal/syntax"
)

// CodeContext describes one deletion. It is produced once per change event
// and never modified.
type CodeContext struct {
	SurroundingCode string      `json:"surroundingCode"`
	MissingElement  PatternKind `json:"missingElement"`
	// ExpectedPattern is the keyword that disappeared, empty when none did.
	ExpectedPattern string `json:"expectedPattern,omitempty"`
	DifficultyLevel int    `json:"difficultyLevel"`
}

// HasExpectedPattern reports whether a specific keyword was identified.
func (c CodeContext) HasExpectedPattern() bool { return c.ExpectedPattern != "" }

// Analyzer classifies deletions against an ordered pattern table.
type Analyzer struct {
	patterns []Pattern
}

// New returns an Analyzer using DefaultPatterns.
func New() *Analyzer {
	return &Analyzer{patterns: DefaultPatterns}
}

// AnalyzeDeletion classifies the change from before to after. If either side
// does not parse the result is PatternSyntax with difficulty 1. Otherwise the
// first table row with a keyword present in some line of before and in no
// line of after decides the kind, falling back to PatternUnknown.
func (a *Analyzer) AnalyzeDeletion(before, after string) CodeContext {
	if !syntax.Valid(before) || !syntax.Valid(after) {
		return CodeContext{
			SurroundingCode: after,
			MissingElement:  PatternSyntax,
			DifficultyLevel: Difficulty(PatternSyntax),
		}
	}

	kind, keyword := a.detectMissing(before, after)
	return CodeContext{
		SurroundingCode: after,
		MissingElement:  kind,
		ExpectedPattern: keyword,
		DifficultyLevel: Difficulty(kind),
	}
}

func (a *Analyzer) detectMissing(before, after string) (PatternKind, string) {
	beforeLines := strings.Split(before, "\n")
	afterLines := strings.Split(after, "\n")

	for _, p := range a.patterns {
		for _, kw := range p.Keywords {
			if anyLineContains(beforeLines, kw) && !anyLineContains(afterLines, kw) {
				return p.Kind, kw
			}
		}
	}
	return PatternUnknown, ""
}

// Restored reports whether after parses and keyword appears on one of its
// lines again.
func Restored(after, keyword string) bool {
	return keyword != "" && syntax.Valid(after) && anyLineContains(strings.Split(after, "\n"), keyword)
}

func anyLineContains(lines []string, kw string) bool {
	for _, l := range lines {
		if strings.Contains(l, kw) {
			return true
		}
	}
	return false
}

// SignatureOf renders "name(a, b)" for the first function called name in
// code, searching depth-first in pre-order. It reports false when code does
// not parse or no such function exists.
func SignatureOf(code, name string) (string, bool) {
	tree, ok := syntax.ParseString(code).Value()
	if !ok {
		return "", false
	}
	defer tree.Close()

	def, ok := tree.FindFunction(name)
	if !ok {
		return "", false
	}
	return def.Name + "(" + strings.Join(def.Params, ", ") + ")", true
}
