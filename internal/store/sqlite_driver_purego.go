//go:build !cgo_sqlite

package store

import (
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// sqliteDriver is the database/sql driver name for SQLiteStore.
const sqliteDriver = "sqlite"
