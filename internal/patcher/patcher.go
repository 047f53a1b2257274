// Package patcher rewrites single lines of UTF-8 text files in place.
package patcher

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// LineTransform rewrites one line. Returning false leaves the file untouched.
type LineTransform func(line string) (string, bool)

// Patcher resolves relative paths against a project root
type Patcher struct {
	Root string
}

// New creates a patcher for the given project root
func New(root string) *Patcher {
	return &Patcher{Root: root}
}

// Resolve returns path joined to the root unless it is already absolute
func (p *Patcher) Resolve(path string) string {
	if filepath.IsAbs(path) || p.Root == "" {
		return path
	}
	return filepath.Join(p.Root, path)
}

// PatchLine applies transform to the 1-based line of file and writes the file back.
// It reports false without error when the line is out of range or the
// transform declined to change anything.
func (p *Patcher) PatchLine(file string, line int, transform LineTransform) (bool, error) {
	path := p.Resolve(file)

	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("cannot stat %s: %w", file, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("cannot read %s: %w", file, err)
	}

	text := string(content)
	newline := "\n"
	if strings.Contains(text, "\r\n") {
		newline = "\r\n"
	}
	lines := strings.Split(text, newline)

	if line <= 0 || line > len(lines) {
		return false, nil
	}

	updated, ok := transform(lines[line-1])
	if !ok || updated == lines[line-1] {
		return false, nil
	}
	lines[line-1] = updated

	if err := os.WriteFile(path, []byte(strings.Join(lines, newline)), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("cannot write %s: %w", file, err)
	}
	return true, nil
}

// WriteFile replaces the whole content of path, creating it if needed
func (p *Patcher) WriteFile(path string, content []byte) error {
	resolved := p.Resolve(path)
	if err := os.WriteFile(resolved, content, 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

// PrefixIdentifier returns a transform that prefixes the first whole-word
// occurrence of name with marker, e.g. "x" -> "_x".
func PrefixIdentifier(name, marker string) LineTransform {
	pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	return func(line string) (string, bool) {
		loc := pattern.FindStringIndex(line)
		if loc == nil {
			return line, false
		}
		// Already ignored
		if loc[0] >= len(marker) && line[loc[0]-len(marker):loc[0]] == marker {
			return line, false
		}
		return line[:loc[0]] + marker + line[loc[0]:], true
	}
}

// signatureClose matches the closing paren of a parameter list before the body brace
var signatureClose = regexp.MustCompile(`\)\s*\{`)

// AddReturnType returns a transform that annotates an unannotated function
// signature with a permissive return type.
func AddReturnType(annotation string) LineTransform {
	return func(line string) (string, bool) {
		if !strings.Contains(line, "function") || strings.Contains(line, ":") {
			return line, false
		}
		loc := signatureClose.FindStringIndex(line)
		if loc == nil {
			return line, false
		}
		return line[:loc[0]] + "): " + annotation + " {" + line[loc[1]:], true
	}
}
