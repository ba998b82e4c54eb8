// Package change turns a before/after pair of file contents into a change
// Event describing what the learner removed.
package change

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/dusk-indust/learnwatch/internal/syntax"
)

// DeletedFunction is a function definition present before an edit and
// absent (by name) after it.
type DeletedFunction struct {
	Name   string   `json:"name"`
	Line   int      `json:"line"`
	Params []string `json:"params"`
}

// Event is one debounced modification of the watched file. Deleted lines and
// deleted functions are computed once, at construction.
type Event struct {
	FilePath         string            `json:"filePath"`
	Before           string            `json:"before"`
	After            string            `json:"after"`
	DeletedLines     []string          `json:"deletedLines"`
	DeletedFunctions []DeletedFunction `json:"deletedFunctions"`
}

// NewEvent builds an Event for the given file contents.
func NewEvent(filePath, before, after string) Event {
	return Event{
		FilePath:         filePath,
		Before:           before,
		After:            after,
		DeletedLines:     DeletedLines(before, after),
		DeletedFunctions: DeletedFunctions(before, after),
	}
}

// HasDeletion reports whether the edit removed anything.
func (e Event) HasDeletion() bool {
	return len(e.DeletedLines) > 0 || len(e.DeletedFunctions) > 0
}

// DeletedLines returns every line that a line diff reports as removed from
// before, in original order, with surrounding whitespace trimmed. It works on
// any text, parseable or not.
func DeletedLines(before, after string) []string {
	a := splitLines(before)
	b := splitLines(after)

	deleted := make([]string, 0)
	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		if op.Tag != 'r' && op.Tag != 'd' {
			continue
		}
		for _, line := range a[op.I1:op.I2] {
			deleted = append(deleted, strings.TrimSpace(line))
		}
	}
	return deleted
}

// DeletedFunctions returns the functions defined in before whose name is not
// defined anywhere in after. Name equality is the only criterion. A name
// defined more than once is reported once, at its first position, with the
// line and params of its last definition. Coroutines (async def) are not
// tracked on either side. If either side fails to parse the result is empty.
func DeletedFunctions(before, after string) []DeletedFunction {
	deleted := make([]DeletedFunction, 0)

	beforeTree, ok := syntax.ParseString(before).Value()
	if !ok {
		return deleted
	}
	defer beforeTree.Close()

	afterTree, ok := syntax.ParseString(after).Value()
	if !ok {
		return deleted
	}
	defer afterTree.Close()

	present := make(map[string]bool)
	for _, def := range afterTree.FunctionDefs() {
		if !def.Async {
			present[def.Name] = true
		}
	}

	index := make(map[string]int)
	for _, def := range beforeTree.FunctionDefs() {
		if def.Async || present[def.Name] {
			continue
		}
		fn := DeletedFunction{Name: def.Name, Line: def.Line, Params: def.Params}
		if i, ok := index[def.Name]; ok {
			deleted[i] = fn
			continue
		}
		index[def.Name] = len(deleted)
		deleted = append(deleted, fn)
	}
	return deleted
}

// splitLines splits text on any line terminator without producing a
// trailing empty element.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
