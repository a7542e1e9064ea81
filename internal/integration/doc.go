// Package integration holds end-to-end tests that run the indexer, the
// hybrid searcher and the watcher together against real project trees
// for every lexical and vector backend combination.
package integration
