package scanner

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Submodule is a git submodule declared in the root .gitmodules.
type Submodule struct {
	Name        string // from [submodule "name"]
	Path        string // slash-separated, relative to the project root
	URL         string
	Branch      string
	Initialized bool // the checkout has content besides .git
}

// ParseGitmodules parses .gitmodules content. Sections without a path are
// dropped.
func ParseGitmodules(content []byte) ([]Submodule, error) {
	var (
		subs    []Submodule
		current *Submodule
	)
	flush := func() {
		if current != nil && current.Path != "" {
			subs = append(subs, *current)
		}
	}

	sc := bufio.NewScanner(bytes.NewReader(content))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			flush()
			current = nil
			if strings.HasPrefix(line, "[submodule") {
				current = &Submodule{Name: quoted(line)}
			}
			continue
		}
		if current == nil {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "path":
			current.Path = path.Clean(filepath.ToSlash(value))
		case "url":
			current.URL = value
		case "branch":
			current.Branch = value
		}
	}
	flush()

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error scanning .gitmodules: %w", err)
	}
	return subs, nil
}

// quoted returns the text between the first and last double quote.
func quoted(line string) string {
	start := strings.Index(line, `"`)
	end := strings.LastIndex(line, `"`)
	if start == -1 || end <= start {
		return ""
	}
	return line[start+1 : end]
}

// IsInitialized reports whether dir exists and holds anything besides .git.
func IsInitialized(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.Name() != ".git" {
			return true
		}
	}
	return false
}

// DiscoverSubmodules reads root/.gitmodules. A missing file is not an
// error.
func DiscoverSubmodules(root string) ([]Submodule, error) {
	data, err := os.ReadFile(filepath.Join(root, ".gitmodules"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read .gitmodules: %w", err)
	}

	subs, err := ParseGitmodules(data)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		subs[i].Initialized = IsInitialized(filepath.Join(root, filepath.FromSlash(subs[i].Path)))
	}
	return subs, nil
}
