package analyzer

// PatternKind names a coarse category of language construct.
type PatternKind string

const (
	PatternLoops           PatternKind = "loops"
	PatternConditionals    PatternKind = "conditionals"
	PatternFunctions       PatternKind = "functions"
	PatternClasses         PatternKind = "classes"
	PatternComprehensions  PatternKind = "comprehensions"
	PatternContextManagers PatternKind = "context-managers"
	PatternErrorHandling   PatternKind = "error-handling"

	// PatternUnknown means both sides parsed but no tracked keyword vanished.
	PatternUnknown PatternKind = "unknown"
	// PatternSyntax means at least one side failed to parse.
	PatternSyntax PatternKind = "syntax"
)

// Pattern is one row of the classification table.
type Pattern struct {
	Kind     PatternKind
	Keywords []string
}

// DefaultPatterns is the classification table in priority order. The first
// row whose keyword disappeared wins.
var DefaultPatterns = []Pattern{
	{Kind: PatternLoops, Keywords: []string{"for", "while"}},
	{Kind: PatternConditionals, Keywords: []string{"if", "elif", "else"}},
	{Kind: PatternFunctions, Keywords: []string{"def"}},
	{Kind: PatternClasses, Keywords: []string{"class"}},
	{Kind: PatternComprehensions, Keywords: []string{"[", "for", "in"}},
	{Kind: PatternContextManagers, Keywords: []string{"with"}},
	{Kind: PatternErrorHandling, Keywords: []string{"try", "except", "finally"}},
}

var difficulties = map[PatternKind]int{
	PatternLoops:          2,
	PatternConditionals:   2,
	PatternFunctions:      3,
	PatternComprehensions: 4,
	PatternClasses:        4,
	PatternErrorHandling:  3,
}

// Difficulty returns the fixed difficulty for a pattern kind, 1 for any kind
// without an entry.
func Difficulty(kind PatternKind) int {
	if d, ok := difficulties[kind]; ok {
		return d
	}
	return 1
}

// Kinds lists the seven classifiable kinds in table order.
func Kinds() []PatternKind {
	out := make([]PatternKind, 0, len(DefaultPatterns))
	for _, p := range DefaultPatterns {
		out = append(out, p.Kind)
	}
	return out
}
