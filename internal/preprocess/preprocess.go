// Package preprocess implements the textual #define/#include expander
// described as an external collaborator: its interface is "file path in,
// expanded text out", with no dependency on the rest of the toolchain.
package preprocess

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	defineRe  = regexp.MustCompile(`^#define\s+(\S+)(?:\s+(.*))?$`)
	includeRe = regexp.MustCompile(`^#include\s+"([^"]+)"$`)
	tokenRe   = regexp.MustCompile(`\W+`)
)

// Preprocessor expands #define/#include directives. Each call to Expand
// starts from a clean macro table and visited-file set, matching the
// original's "reset state for each top-level run" behavior.
type Preprocessor struct {
	IncludePaths []string

	macros  map[string]string
	visited map[string]bool
	out     []string
}

// Expand reads path, expands its directives (recursively for includes),
// and returns the resulting text.
func (p *Preprocessor) Expand(path string) (string, error) {
	p.macros = make(map[string]string)
	p.visited = make(map[string]bool)
	p.out = nil

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("preprocess: %w", err)
	}
	if err := p.processFile(abs); err != nil {
		return "", err
	}
	return strings.Join(p.out, ""), nil
}

func (p *Preprocessor) processFile(abs string) error {
	if p.visited[abs] {
		return nil
	}
	p.visited[abs] = true

	baseDir := filepath.Dir(abs)
	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("preprocess: reading %s: %w", abs, err)
	}

	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimRight(raw, "\r")
		stripped := strings.TrimLeft(line, " \t")

		switch {
		case strings.HasPrefix(stripped, "#define "):
			m := defineRe.FindStringSubmatch(stripped)
			if m == nil {
				return fmt.Errorf("preprocess: invalid define directive: %q", line)
			}
			p.macros[m[1]] = m[2]

		case strings.HasPrefix(stripped, "#include "):
			m := includeRe.FindStringSubmatch(stripped)
			if m == nil {
				return fmt.Errorf("preprocess: invalid include directive: %q", line)
			}
			if err := p.include(baseDir, m[1]); err != nil {
				return err
			}

		case strings.HasPrefix(stripped, "#"):
			return fmt.Errorf("preprocess: unknown directive: %q", line)

		default:
			p.out = append(p.out, p.expandMacros(line)+"\n")
		}
	}
	return nil
}

func (p *Preprocessor) include(baseDir, name string) error {
	searchDirs := append([]string{baseDir}, p.IncludePaths...)
	for _, dir := range searchDirs {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				return fmt.Errorf("preprocess: %w", err)
			}
			return p.processFile(abs)
		}
	}
	return fmt.Errorf("preprocess: included file not found: %s", name)
}

// expandMacros performs whole-token substitution: splitting on non-word
// characters avoids matching a macro name as a substring of a longer
// identifier.
func (p *Preprocessor) expandMacros(line string) string {
	tokens := tokenRe.Split(line, -1)
	seps := tokenRe.FindAllString(line, -1)

	var b strings.Builder
	for i, tok := range tokens {
		if v, ok := p.macros[tok]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(tok)
		}
		if i < len(seps) {
			b.WriteString(seps[i])
		}
	}
	return b.String()
}
