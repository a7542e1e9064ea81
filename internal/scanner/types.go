// Package scanner discovers the files of a project that are eligible for
// indexing.
//
// Filters run in a fixed order: ignored directories, binary extensions,
// .gitignore patterns (root and nested), user exclude globs, and finally
// the supported-extension check, which user include globs extend.
package scanner

import (
	"path"
	"strings"
	"time"
)

// IgnoredDirs are directory names never descended into.
var IgnoredDirs = []string{
	"__pycache__", ".git", "node_modules", ".venv", "venv", "dist", "build",
}

// BinaryExtensions are never read.
var BinaryExtensions = map[string]bool{
	".pyc": true, ".so": true, ".dll": true, ".exe": true, ".bin": true,
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true, ".svg": true,
	".pdf": true, ".zip": true, ".tar": true, ".gz": true, ".whl": true,
	".db": true, ".sqlite": true, ".pkl": true,
}

// languageMap maps supported extensions to language names.
var languageMap = map[string]string{
	".py":   "python",
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".go":   "go",
	".java": "java",
	".rs":   "rust",
	".yaml": "yaml",
	".yml":  "yaml",
	".md":   "markdown",
}

// FileInfo describes a discovered file.
type FileInfo struct {
	Path     string    // slash-separated, relative to the project root
	AbsPath  string    // absolute path on disk
	Size     int64     // bytes
	ModTime  time.Time // last modification
	Language string    // empty for files admitted by an include glob only
}

// Options configures a Scanner.
type Options struct {
	// Root is the project root directory.
	Root string

	// CacheDirName is the index cache directory name, skipped like IgnoredDirs.
	CacheDirName string

	// Include admits files with unsupported extensions.
	Include []string

	// Exclude rejects files even when supported.
	Exclude []string

	// MaxFileSize skips larger files (0 = DefaultMaxFileSize).
	MaxFileSize int64

	// IncludeSubmodules walks into the submodules declared in the root
	// .gitmodules. By default they are skipped like IgnoredDirs.
	IncludeSubmodules bool
}

// Result is one item of a streaming scan.
type Result struct {
	File  *FileInfo
	Error error
}

// DefaultMaxFileSize is the default maximum file size (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// DetectLanguage returns the language of a supported file, or "".
func DetectLanguage(p string) string {
	return languageMap[strings.ToLower(path.Ext(p))]
}

// IsSupported reports whether p has a supported extension.
func IsSupported(p string) bool {
	return DetectLanguage(p) != ""
}

// IsBinary reports whether p has a known binary extension.
func IsBinary(p string) bool {
	return BinaryExtensions[strings.ToLower(path.Ext(p))]
}
