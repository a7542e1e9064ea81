package telemetry

import (
	"context"
	"database/sql"
	"path/filepath"
	"time"

	cerrors "github.com/Aman-CERP/coderag/internal/errors"
	"github.com/Aman-CERP/coderag/internal/store"
)

// DBFile is the telemetry database name inside the cache directory.
const DBFile = "telemetry.db"

// ZeroResultCapacity bounds how many empty queries are kept.
const ZeroResultCapacity = 100

// Store persists query metrics in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the telemetry database in cacheDir.
func Open(cacheDir string) (*Store, error) {
	db, err := store.OpenSQLite(filepath.Join(cacheDir, DBFile))
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, cerrors.New(cerrors.ErrCodeStoreFailed, "failed to initialize telemetry schema", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	-- Query counts per day and outcome
	CREATE TABLE IF NOT EXISTS query_stats (
		date   TEXT NOT NULL,
		status TEXT NOT NULL,
		count  INTEGER NOT NULL DEFAULT 0,
		zero   INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, status)
	);

	CREATE TABLE IF NOT EXISTS query_terms (
		term      TEXT PRIMARY KEY,
		count     INTEGER NOT NULL DEFAULT 1,
		last_seen TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_query_terms_count ON query_terms(count DESC);

	-- Most recent empty queries, trimmed to ZeroResultCapacity
	CREATE TABLE IF NOT EXISTS zero_result_queries (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		query     TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS query_latency_stats (
		date   TEXT NOT NULL,
		bucket TEXT NOT NULL,
		count  INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, bucket)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record adds one search to the aggregates.
func (s *Store) Record(ctx context.Context, ev QueryEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	date := ev.Timestamp.UTC().Format(time.DateOnly)
	zero := 0
	if ev.IsZeroResult() {
		zero = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cerrors.New(cerrors.ErrCodeStoreFailed, "begin telemetry transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO query_stats (date, status, count, zero) VALUES (?, ?, 1, ?)
		ON CONFLICT(date, status) DO UPDATE SET count = count + 1, zero = zero + excluded.zero`,
		date, ev.Status.String(), zero); err != nil {
		return cerrors.New(cerrors.ErrCodeStoreFailed, "record query", err)
	}

	for _, term := range ExtractTerms(ev.Query) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO query_terms (term, count, last_seen) VALUES (?, 1, ?)
			ON CONFLICT(term) DO UPDATE SET count = count + 1, last_seen = excluded.last_seen`,
			term, ev.Timestamp); err != nil {
			return cerrors.New(cerrors.ErrCodeStoreFailed, "record query term", err)
		}
	}

	if ev.IsZeroResult() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO zero_result_queries (query, timestamp) VALUES (?, ?)`,
			ev.Query, ev.Timestamp); err != nil {
			return cerrors.New(cerrors.ErrCodeStoreFailed, "record zero-result query", err)
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM zero_result_queries WHERE id NOT IN (
				SELECT id FROM zero_result_queries ORDER BY id DESC LIMIT ?
			)`, ZeroResultCapacity); err != nil {
			return cerrors.New(cerrors.ErrCodeStoreFailed, "trim zero-result queries", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO query_latency_stats (date, bucket, count) VALUES (?, ?, 1)
		ON CONFLICT(date, bucket) DO UPDATE SET count = count + 1`,
		date, string(LatencyToBucket(ev.Latency))); err != nil {
		return cerrors.New(cerrors.ErrCodeStoreFailed, "record query latency", err)
	}

	if err := tx.Commit(); err != nil {
		return cerrors.New(cerrors.ErrCodeStoreFailed, "commit telemetry", err)
	}
	return nil
}

// Summary reads the aggregates with at most topN terms and topN recent
// empty queries, newest first.
func (s *Store) Summary(ctx context.Context, topN int) (Summary, error) {
	sum := Summary{Latency: make(map[LatencyBucket]int64)}

	rows, err := s.db.QueryContext(ctx, `SELECT status, SUM(count), SUM(zero) FROM query_stats GROUP BY status`)
	if err != nil {
		return sum, cerrors.New(cerrors.ErrCodeStoreFailed, "read query stats", err)
	}
	for rows.Next() {
		var status string
		var count, zero int64
		if err := rows.Scan(&status, &count, &zero); err != nil {
			_ = rows.Close()
			return sum, cerrors.New(cerrors.ErrCodeStoreFailed, "scan query stats", err)
		}
		sum.TotalQueries += count
		sum.ZeroResultCount += zero
		if status != "ok" {
			sum.DegradedCount += count
		}
	}
	if err := closeRows(rows); err != nil {
		return sum, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT term, count FROM query_terms ORDER BY count DESC, term ASC LIMIT ?`, topN)
	if err != nil {
		return sum, cerrors.New(cerrors.ErrCodeStoreFailed, "read query terms", err)
	}
	for rows.Next() {
		var tc TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			_ = rows.Close()
			return sum, cerrors.New(cerrors.ErrCodeStoreFailed, "scan query term", err)
		}
		sum.TopTerms = append(sum.TopTerms, tc)
	}
	if err := closeRows(rows); err != nil {
		return sum, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT query FROM zero_result_queries ORDER BY id DESC LIMIT ?`, topN)
	if err != nil {
		return sum, cerrors.New(cerrors.ErrCodeStoreFailed, "read zero-result queries", err)
	}
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			_ = rows.Close()
			return sum, cerrors.New(cerrors.ErrCodeStoreFailed, "scan zero-result query", err)
		}
		sum.RecentZeroResults = append(sum.RecentZeroResults, q)
	}
	if err := closeRows(rows); err != nil {
		return sum, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT bucket, SUM(count) FROM query_latency_stats GROUP BY bucket`)
	if err != nil {
		return sum, cerrors.New(cerrors.ErrCodeStoreFailed, "read latency stats", err)
	}
	for rows.Next() {
		var bucket string
		var count int64
		if err := rows.Scan(&bucket, &count); err != nil {
			_ = rows.Close()
			return sum, cerrors.New(cerrors.ErrCodeStoreFailed, "scan latency stats", err)
		}
		sum.Latency[LatencyBucket(bucket)] = count
	}
	return sum, closeRows(rows)
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func closeRows(rows *sql.Rows) error {
	err := rows.Err()
	if cerr := rows.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return cerrors.New(cerrors.ErrCodeStoreFailed, "iterate telemetry rows", err)
	}
	return nil
}
