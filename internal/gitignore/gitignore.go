package gitignore

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
	"sync"
)

// Matcher holds compiled patterns. It is safe for concurrent use.
type Matcher struct {
	mu    sync.RWMutex
	rules []rule
}

type rule struct {
	source  string
	re      *regexp.Regexp
	negate  bool
	dirOnly bool
	base    string // directory the pattern is relative to, "" for the root
}

// New returns an empty matcher.
func New() *Matcher {
	return &Matcher{}
}

// Compile builds a matcher from root-relative patterns.
func Compile(patterns []string) *Matcher {
	m := New()
	for _, p := range patterns {
		m.Add(p, "")
	}
	return m
}

// Add compiles one pattern line. Blank lines and comments are ignored.
// base is the slash-separated directory of the .gitignore the line came
// from, relative to the project root.
func (m *Matcher) Add(line, base string) {
	r, ok := parseRule(line)
	if !ok {
		return
	}
	r.base = strings.Trim(base, "/")

	m.mu.Lock()
	m.rules = append(m.rules, r)
	m.mu.Unlock()
}

// AddFile adds every pattern of a .gitignore file.
func (m *Matcher) AddFile(file, base string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m.Add(sc.Text(), base)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	return nil
}

// Len returns the number of compiled patterns.
func (m *Matcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rules)
}

// Match reports whether rel is ignored. Every ancestor directory of rel
// is checked first; an ignored ancestor ignores rel.
func (m *Matcher) Match(rel string, isDir bool) bool {
	rel = cleanRel(rel)
	if rel == "" {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := 0; i < len(rel); i++ {
		if rel[i] != '/' {
			continue
		}
		if ignored, _ := m.decide(rel[:i], true); ignored {
			return true
		}
	}
	ignored, _ := m.decide(rel, isDir)
	return ignored
}

// Decide evaluates rel alone, without its ancestors. decided is false when
// no pattern matched, so callers can layer matchers from several
// .gitignore files.
func (m *Matcher) Decide(rel string, isDir bool) (ignored, decided bool) {
	rel = cleanRel(rel)
	if rel == "" {
		return false, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.decide(rel, isDir)
}

// decide applies last-match-wins. Callers hold the read lock.
func (m *Matcher) decide(rel string, isDir bool) (ignored, decided bool) {
	for i := len(m.rules) - 1; i >= 0; i-- {
		r := m.rules[i]
		if r.dirOnly && !isDir {
			continue
		}
		target := rel
		if r.base != "" {
			if !strings.HasPrefix(rel, r.base+"/") {
				continue
			}
			target = rel[len(r.base)+1:]
		}
		if r.re.MatchString(target) {
			return !r.negate, true
		}
	}
	return false, false
}

// parseRule compiles a single pattern line.
func parseRule(line string) (rule, bool) {
	line = strings.TrimRight(line, "\r")
	if strings.HasSuffix(line, `\ `) {
		line = strings.TrimRight(line[:len(line)-2], " ") + `\ `
	} else {
		line = strings.TrimRight(line, " \t")
	}
	line = strings.TrimLeft(line, " \t")
	if line == "" || strings.HasPrefix(line, "#") {
		return rule{}, false
	}

	r := rule{source: line}
	switch {
	case strings.HasPrefix(line, "!"):
		r.negate = true
		line = line[1:]
	case strings.HasPrefix(line, `\!`), strings.HasPrefix(line, `\#`):
		line = line[1:]
	}

	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if line == "" {
		return rule{}, false
	}

	// A slash anywhere but the end anchors the pattern to its base.
	anchored := strings.Contains(line, "/")
	line = strings.TrimPrefix(line, "/")

	expr := translate(line)
	if !anchored {
		expr = "(?:.*/)?" + expr
	}
	re, err := regexp.Compile("^" + expr + "$")
	if err != nil {
		return rule{}, false
	}
	r.re = re
	return r, true
}

// translate converts glob syntax to a regular expression body.
func translate(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				atStart := i == 0 || glob[i-1] == '/'
				switch {
				case atStart && i+2 < len(glob) && glob[i+2] == '/':
					b.WriteString("(?:.*/)?")
					i += 2
				case atStart && i+2 == len(glob):
					b.WriteString(".*")
					i++
				default:
					b.WriteString("[^/]*")
					i++
				}
				continue
			}
			b.WriteString("[^/]*")
		case '?':
			b.WriteString("[^/]")
		case '[':
			end := strings.IndexByte(glob[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := glob[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + strings.ReplaceAll(class, `\`, `\\`) + "]")
			i += end + 1
		case '\\':
			if i+1 < len(glob) {
				i++
				b.WriteString(regexp.QuoteMeta(string(glob[i])))
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return b.String()
}

// cleanRel normalizes a relative path to the slash form patterns expect.
func cleanRel(rel string) string {
	rel = strings.ReplaceAll(rel, `\`, "/")
	rel = path.Clean("/" + rel)
	return strings.TrimPrefix(rel, "/")
}

// ParsePatterns returns the non-blank, non-comment lines of content.
func ParsePatterns(content string) []string {
	var patterns []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}
