package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/coderag/internal/gitignore"
)

// gitignoreCacheSize bounds the number of parsed .gitignore files kept.
const gitignoreCacheSize = 1000

// gitignoreFile is a parsed .gitignore and the mtime it was read at.
type gitignoreFile struct {
	modTime  time.Time
	patterns []string
}

// Scanner discovers indexable files. A Scanner is reused across scans;
// parsed .gitignore files are cached and re-read when their mtime changes.
type Scanner struct {
	opts     Options
	root     string
	ignored  map[string]bool
	skipped  map[string]bool // submodule checkouts, by relative path
	include  *gitignore.Matcher
	exclude  *gitignore.Matcher
	ignores  *lru.Cache[string, gitignoreFile]
	maxBytes int64
}

// New creates a scanner for opts.Root.
func New(opts Options) (*Scanner, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	cache, err := lru.New[string, gitignoreFile](gitignoreCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitignore cache: %w", err)
	}

	ignored := make(map[string]bool, len(IgnoredDirs)+1)
	for _, d := range IgnoredDirs {
		ignored[d] = true
	}
	if opts.CacheDirName != "" {
		ignored[opts.CacheDirName] = true
	}

	skipped := make(map[string]bool)
	if !opts.IncludeSubmodules {
		subs, err := DiscoverSubmodules(absRoot)
		if err != nil {
			slog.Warn("scan_gitmodules_unreadable", slog.String("path", absRoot), slog.String("error", err.Error()))
		}
		for _, sub := range subs {
			skipped[sub.Path] = true
		}
	}

	maxBytes := opts.MaxFileSize
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileSize
	}

	return &Scanner{
		opts:     opts,
		root:     absRoot,
		ignored:  ignored,
		skipped:  skipped,
		include:  gitignore.Compile(opts.Include),
		exclude:  gitignore.Compile(opts.Exclude),
		ignores:  cache,
		maxBytes: maxBytes,
	}, nil
}

// Root returns the absolute project root.
func (s *Scanner) Root() string {
	return s.root
}

// Scan streams eligible files in lexical walk order. The channel is closed
// when the walk ends; a walk error is sent as the last Result.
func (s *Scanner) Scan(ctx context.Context) (<-chan Result, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", s.root)
	}

	results := make(chan Result, 64)
	go func() {
		defer close(results)
		s.walk(ctx, results)
	}()
	return results, nil
}

// Files runs Scan to completion and returns the files in walk order.
func (s *Scanner) Files(ctx context.Context) ([]FileInfo, error) {
	ch, err := s.Scan(ctx)
	if err != nil {
		return nil, err
	}

	var files []FileInfo
	var scanErr error
	for r := range ch {
		if r.Error != nil {
			scanErr = r.Error
			continue
		}
		files = append(files, *r.File)
	}
	if scanErr != nil {
		return nil, scanErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return files, nil
}

func (s *Scanner) walk(ctx context.Context, results chan<- Result) {
	matcher := gitignore.New()

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			slog.Debug("scan_entry_unreadable", slog.String("path", p), slog.String("error", err.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && (s.ignored[d.Name()] || s.skipped[rel] || matcher.Match(rel, true)) {
				return filepath.SkipDir
			}
			base := rel
			if base == "." {
				base = ""
			}
			s.loadGitignore(matcher, p, base)
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if !s.admit(rel, matcher) {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > s.maxBytes {
			return nil
		}

		file := &FileInfo{
			Path:     rel,
			AbsPath:  p,
			Size:     info.Size(),
			ModTime:  info.ModTime(),
			Language: DetectLanguage(rel),
		}
		select {
		case results <- Result{File: file}:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		select {
		case results <- Result{Error: err}:
		case <-ctx.Done():
		}
	}
}

// admit applies the file filters after the directory filter.
func (s *Scanner) admit(rel string, ignores *gitignore.Matcher) bool {
	if IsBinary(rel) {
		return false
	}
	if ignores.Match(rel, false) {
		return false
	}
	if s.exclude.Match(rel, false) {
		return false
	}
	return IsSupported(rel) || s.include.Match(rel, false)
}

// Eligible reports whether a single relative path would be returned by
// Scan. It does not touch the file itself.
func (s *Scanner) Eligible(rel string) bool {
	rel = filepath.ToSlash(filepath.Clean(rel))
	if rel == "." || strings.HasPrefix(rel, "../") || rel == ".." {
		return false
	}

	dirs := strings.Split(path.Dir(rel), "/")
	if dirs[0] == "." {
		dirs = nil
	}
	for i, d := range dirs {
		if s.ignored[d] || s.skipped[strings.Join(dirs[:i+1], "/")] {
			return false
		}
	}

	matcher := gitignore.New()
	s.loadGitignore(matcher, s.root, "")
	for i := range dirs {
		base := strings.Join(dirs[:i+1], "/")
		s.loadGitignore(matcher, filepath.Join(s.root, filepath.FromSlash(base)), base)
	}
	return s.admit(rel, matcher)
}

// loadGitignore adds dir/.gitignore to m, reading through the cache.
func (s *Scanner) loadGitignore(m *gitignore.Matcher, dir, base string) {
	file := filepath.Join(dir, ".gitignore")
	info, err := os.Stat(file)
	if err != nil {
		return
	}

	cached, ok := s.ignores.Get(file)
	if !ok || !cached.modTime.Equal(info.ModTime()) {
		data, err := os.ReadFile(file)
		if err != nil {
			slog.Warn("gitignore_read_failed", slog.String("path", file), slog.String("error", err.Error()))
			return
		}
		cached = gitignoreFile{modTime: info.ModTime(), patterns: gitignore.ParsePatterns(string(data))}
		s.ignores.Add(file, cached)
	}
	for _, p := range cached.patterns {
		m.Add(p, base)
	}
}

// InvalidateGitignoreCache drops every cached .gitignore.
func (s *Scanner) InvalidateGitignoreCache() {
	s.ignores.Purge()
}

// IsIgnoredDir reports whether name is skipped as a directory.
func (s *Scanner) IsIgnoredDir(name string) bool {
	return s.ignored[name]
}

// SupportedExtensions returns the supported extensions, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(languageMap))
	for ext := range languageMap {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}
