// Package glob expands file patterns against a base directory.
//
// Patterns use slash separators. `*` and `?` never cross a separator, `**`
// matches across separators, and a `**/` segment also matches zero
// directories so that `src/**/*.ts` includes `src/index.ts`. Files and
// directories whose name starts with a dot are only matched by a pattern
// segment that itself starts with a dot.
package glob

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	gobwas "github.com/gobwas/glob"
)

// ErrBadPattern is returned when a pattern cannot be compiled.
var ErrBadPattern = errors.New("syntax error in pattern")

const globstar = "**/"

// Matcher reports whether a slash separated path, relative to the walk root,
// matches a compiled pattern.
type Matcher struct {
	root     string
	variants []variant
	literal  bool
	// dots is set when some pattern segment names a dot entry explicitly.
	dots bool
}

type variant struct {
	glob     gobwas.Glob
	segments []string
}

// Compile splits pattern into a static walk root and a compiled remainder.
// Relative patterns are resolved against baseDir.
func Compile(baseDir, pattern string) (*Matcher, error) {
	pattern = filepath.ToSlash(pattern)

	abs := path.Clean(pattern)
	if !filepath.IsAbs(filepath.FromSlash(pattern)) {
		abs = path.Join(filepath.ToSlash(baseDir), pattern)
	}

	static, rest := splitStatic(abs)

	m := &Matcher{root: filepath.FromSlash(static)}
	if rest == "" {
		m.literal = true
		return m, nil
	}

	for _, v := range expandGlobstar(rest) {
		g, err := gobwas.Compile(v, '/')
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadPattern, pattern, err)
		}
		segments := strings.Split(v, "/")
		for _, seg := range segments {
			if isDot(seg) {
				m.dots = true
			}
		}
		m.variants = append(m.variants, variant{glob: g, segments: segments})
	}

	return m, nil
}

// Root returns the directory the matcher walks from.
func (m *Matcher) Root() string {
	return m.root
}

// Match reports whether rel, a slash separated path relative to Root, matches.
// A dot segment in rel only matches a pattern segment that starts with a dot.
func (m *Matcher) Match(rel string) bool {
	if m.literal {
		return rel == "."
	}

	segments := strings.Split(rel, "/")
	for _, v := range m.variants {
		if v.glob.Match(rel) && v.allowsDots(segments) {
			return true
		}
	}
	return false
}

// allowsDots lines rel's segments up with the pattern's: segments before the
// first `**` from the front, segments after the last `**` from the back.
// Anything in between is covered by `**`, which never matches a dot entry.
func (v variant) allowsDots(rel []string) bool {
	first := slices.Index(v.segments, "**")
	last := first
	for i, seg := range v.segments {
		if seg == "**" {
			last = i
		}
	}

	for i, seg := range rel {
		if !isDot(seg) {
			continue
		}

		if first < 0 {
			if i >= len(v.segments) || !isDot(v.segments[i]) {
				return false
			}
			continue
		}

		if i < first {
			if !isDot(v.segments[i]) {
				return false
			}
			continue
		}

		fromEnd := len(rel) - 1 - i
		suffix := len(v.segments) - 1 - last
		if fromEnd >= suffix || !isDot(v.segments[len(v.segments)-1-fromEnd]) {
			return false
		}
	}

	return true
}

func isDot(segment string) bool {
	return strings.HasPrefix(segment, ".") && segment != "." && segment != ".."
}

// Glob returns the absolute, sorted paths of the files matching pattern.
// Symlinks are followed; a link to a directory is walked, never matched.
// A walk root that does not exist yields no matches.
func Glob(baseDir, pattern string) ([]string, error) {
	m, err := Compile(baseDir, pattern)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(m.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	if m.literal {
		if info.IsDir() {
			return nil, nil
		}
		return []string{m.root}, nil
	}

	if !info.IsDir() {
		return nil, nil
	}

	w := &walker{matcher: m, ancestors: map[string]bool{}}
	if err := w.walk(m.root, ""); err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", m.root, err)
	}

	slices.Sort(w.matches)
	return w.matches, nil
}

type walker struct {
	matcher *Matcher
	// ancestors holds the real paths of the directories on the current
	// walk path, so a link back up the tree is not followed again.
	ancestors map[string]bool
	matches   []string
}

func (w *walker) walk(dir, rel string) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	if w.ancestors[resolved] {
		return nil
	}
	w.ancestors[resolved] = true
	defer delete(w.ancestors, resolved)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		name := e.Name()
		if isDot(name) && !w.matcher.dots {
			continue
		}

		p := filepath.Join(dir, name)
		childRel := path.Join(rel, name)

		mode := e.Type()
		if mode&fs.ModeSymlink != 0 {
			info, err := os.Stat(p)
			if err != nil {
				// dangling link
				continue
			}
			mode = info.Mode().Type()
		}

		switch {
		case mode.IsDir():
			if err := w.walk(p, childRel); err != nil {
				return err
			}
		case mode.IsRegular():
			if w.matcher.Match(childRel) {
				w.matches = append(w.matches, p)
			}
		}
	}

	return nil
}

// splitStatic returns the leading run of wildcard free segments of a cleaned
// absolute pattern and the remaining pattern.
func splitStatic(pattern string) (string, string) {
	segments := strings.Split(pattern, "/")

	i := 0
	for ; i < len(segments); i++ {
		if hasMeta(segments[i]) {
			break
		}
	}

	static := strings.Join(segments[:i], "/")
	if static == "" {
		static = "/"
	}

	return static, strings.Join(segments[i:], "/")
}

func hasMeta(segment string) bool {
	return strings.ContainsAny(segment, `*?[{\`)
}

// expandGlobstar returns every variant of pattern with each `**/` either kept
// or removed.
func expandGlobstar(pattern string) []string {
	idx := strings.Index(pattern, globstar)
	if idx < 0 || (idx > 0 && pattern[idx-1] != '/') {
		return []string{pattern}
	}

	head := pattern[:idx]
	var out []string
	for _, tail := range expandGlobstar(pattern[idx+len(globstar):]) {
		out = append(out, head+globstar+tail, head+tail)
	}
	return out
}
