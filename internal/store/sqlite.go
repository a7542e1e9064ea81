package store

import (
	"database/sql"
	"os"
	"path/filepath"

	cerrors "github.com/Aman-CERP/coderag/internal/errors"
)

// OpenSQLite opens or creates the SQLite database at path with a single
// writer connection and WAL journaling.
func OpenSQLite(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, cerrors.New(cerrors.ErrCodeFileWrite, "failed to create database directory", err).
			WithDetail("path", path)
	}

	db, err := sql.Open(sqliteDriver, path)
	if err != nil {
		return nil, cerrors.New(cerrors.ErrCodeStoreFailed, "failed to open database", err).
			WithDetail("path", path)
	}

	// Single writer to prevent lock contention
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, cerrors.New(cerrors.ErrCodeStoreFailed, "failed to set pragma", err).
				WithDetail("pragma", pragma)
		}
	}
	return db, nil
}
