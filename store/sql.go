package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "modernc.org/sqlite"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLStore keeps records in a SQLite table named after the store. Scan uses
// keyset pagination on id, so the page token is the last id returned.
type SQLStore struct {
	db       *sql.DB
	table    string
	pageSize int
}

// OpenSQLite opens (creating if needed) the SQLite database at dsn and
// ensures the table exists. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, dsn, table string, opts ...Option) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps in-memory databases shared and serialises writers
	db.SetMaxOpenConns(1)

	s, err := NewSQLStore(ctx, db, table, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps db and creates the table if needed.
func NewSQLStore(ctx context.Context, db *sql.DB, table string, opts ...Option) (*SQLStore, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("store: invalid table name %q", table)
	}

	s := &SQLStore{db: db, table: table, pageSize: applyOptions(opts).pageSize}

	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+table+` (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		deployment_id TEXT NOT NULL,
		status TEXT NOT NULL,
		duration REAL NOT NULL,
		region TEXT NOT NULL
	)`)
	if err != nil {
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}
	return s, nil
}

// Get returns the record with the given id.
func (s *SQLStore) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, timestamp, deployment_id, status, duration, region FROM `+s.table+` WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("select %s: %w", id, err)
	}
	return rec, nil
}

// Put upserts rec by id.
func (s *SQLStore) Put(ctx context.Context, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO `+s.table+`
		(id, timestamp, deployment_id, status, duration, region)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			timestamp = excluded.timestamp,
			deployment_id = excluded.deployment_id,
			status = excluded.status,
			duration = excluded.duration,
			region = excluded.region`,
		rec.ID,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.DeploymentID,
		rec.Status,
		rec.DurationSeconds,
		rec.Region,
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", rec.ID, err)
	}
	return nil
}

// Scan returns the records with ids after pageToken, in id order.
func (s *SQLStore) Scan(ctx context.Context, pageToken string) (Page, error) {
	// one extra row tells us whether another page exists
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, deployment_id, status, duration, region FROM `+s.table+`
		WHERE id > ? ORDER BY id LIMIT ?`, pageToken, s.pageSize+1)
	if err != nil {
		return Page{}, fmt.Errorf("scan %s: %w", s.table, err)
	}
	defer rows.Close()

	page := Page{Records: make([]Record, 0, s.pageSize)}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return Page{}, fmt.Errorf("scan %s: %w", s.table, err)
		}
		page.Records = append(page.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("scan %s: %w", s.table, err)
	}

	if len(page.Records) > s.pageSize {
		page.Records = page.Records[:s.pageSize]
		page.NextToken = page.Records[s.pageSize-1].ID
	}
	return page, nil
}

// DescribeStatus reports ACTIVE when the database answers a ping.
func (s *SQLStore) DescribeStatus(ctx context.Context) (Status, error) {
	if err := s.db.PingContext(ctx); err != nil {
		return "", fmt.Errorf("sqlite ping: %w", err)
	}
	return StatusActive, nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec Record
		ts  string
	)
	if err := row.Scan(&rec.ID, &ts, &rec.DeploymentID, &rec.Status, &rec.DurationSeconds, &rec.Region); err != nil {
		return Record{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Record{}, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	rec.Timestamp = t
	return rec, nil
}

var _ Store = (*SQLStore)(nil)
