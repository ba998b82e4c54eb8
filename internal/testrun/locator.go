package testrun

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Locator finds the test file for a source file by convention: first
// tests/test_<stem>.py next to the source, then test_<stem>.py beside it.
type Locator struct {
	fs afero.Fs
}

// NewLocator returns a Locator over fs. A nil fs means the OS filesystem.
func NewLocator(fs afero.Fs) *Locator {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Locator{fs: fs}
}

// GetTestFile returns the test file for source, if one exists.
func (l *Locator) GetTestFile(source string) (string, bool) {
	dir := filepath.Dir(source)
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	name := "test_" + stem + ".py"

	for _, candidate := range []string{
		filepath.Join(dir, "tests", name),
		filepath.Join(dir, name),
	} {
		if ok, _ := afero.Exists(l.fs, candidate); ok {
			return candidate, true
		}
	}
	return "", false
}

// HasTests reports whether source has a test file.
func (l *Locator) HasTests(source string) bool {
	_, ok := l.GetTestFile(source)
	return ok
}
