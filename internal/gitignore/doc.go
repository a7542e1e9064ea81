// Package gitignore matches slash-separated relative paths against
// gitignore-style patterns.
//
// Supported syntax: wildcards (*, ?, **), character classes, rooted
// patterns (/build), directory-only patterns (build/), negation
// (!keep.log), escaped leading # and !, and escaped trailing spaces.
// Patterns read from a nested .gitignore carry that directory as their
// base and only apply below it.
//
// As in git, the last matching pattern wins, and a path below an ignored
// directory stays ignored even if a later pattern negates the path itself.
//
//	m := gitignore.New()
//	m.Add("*.log", "")
//	m.Add("!keep.log", "")
//	m.Add("/build/", "")
//	m.Match("logs/error.log", false) // true
//
// The same matcher serves user include and exclude globs through Compile.
package gitignore
