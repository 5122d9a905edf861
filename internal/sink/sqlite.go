package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/HRemonen/scrapyard"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// timeLayout has a fixed width so that finished_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DB stores finished crawls in a SQLite database. Each crawl is a row in
// the runs table with its records and links in their own tables.
type DB struct {
	db *sql.DB
}

// Run describes one stored crawl.
type Run struct {
	ID         string
	Name       string
	FinishedAt time.Time
	Stats      scrapyard.Stats
}

// OpenDB opens or creates the database at path and ensures the schema exists.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	d := &DB{db: db}
	if err := d.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		visited INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		records INTEGER NOT NULL,
		overwrites INTEGER NOT NULL
	);

	-- position keeps the first-insertion order of keys
	CREATE TABLE IF NOT EXISTS records (
		run_id TEXT NOT NULL REFERENCES runs(id),
		position INTEGER NOT NULL,
		record_key TEXT NOT NULL,
		values_json TEXT NOT NULL,
		PRIMARY KEY (run_id, record_key)
	);

	CREATE TABLE IF NOT EXISTS links (
		run_id TEXT NOT NULL REFERENCES runs(id),
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_name ON runs(name);
	`

	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// SaveRun stores the store under a new run id and returns the id.
func (d *DB) SaveRun(ctx context.Context, name string, store *scrapyard.ResultStore) (id string, err error) {
	if err := checkSealed(store); err != nil {
		return "", err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	id = uuid.NewString()
	stats := store.Stats()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, name, finished_at, visited, failed, skipped, records, overwrites)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, name, time.Now().UTC().Format(timeLayout),
		stats.Visited, stats.Failed, stats.Skipped, stats.Records, stats.Overwrites)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for i, key := range store.Keys() {
		values, _ := store.Get(key)
		valuesJSON, err := json.Marshal(values)
		if err != nil {
			return "", fmt.Errorf("failed to serialize values of %q: %w", key, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO records (run_id, position, record_key, values_json) VALUES (?, ?, ?, ?)`,
			id, i, key, string(valuesJSON)); err != nil {
			return "", fmt.Errorf("failed to insert record %q: %w", key, err)
		}
	}

	for i, link := range store.Links() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO links (run_id, position, url) VALUES (?, ?, ?)`,
			id, i, link); err != nil {
			return "", fmt.Errorf("failed to insert link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}

	return id, nil
}

// Runs lists the stored runs, most recent first.
func (d *DB) Runs(ctx context.Context) ([]Run, error) {
	rows, err := d.db.QueryContext(ctx, `
	SELECT id, name, finished_at, visited, failed, skipped, records, overwrites
	FROM runs
	ORDER BY finished_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			finishedAt string
		)
		if err := rows.Scan(&r.ID, &r.Name, &finishedAt,
			&r.Stats.Visited, &r.Stats.Failed, &r.Stats.Skipped, &r.Stats.Records, &r.Stats.Overwrites); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.FinishedAt, _ = time.Parse(timeLayout, finishedAt)
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// Records returns the keys of a run in first-insertion order with their values.
func (d *DB) Records(ctx context.Context, runID string) ([]scrapyard.Record, error) {
	var exists int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT record_key, values_json FROM records WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []scrapyard.Record{}
	for rows.Next() {
		var (
			rec        scrapyard.Record
			valuesJSON string
		)
		if err := rows.Scan(&rec.Key, &valuesJSON); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if err := json.Unmarshal([]byte(valuesJSON), &rec.Values); err != nil {
			return nil, fmt.Errorf("failed to parse values of %q: %w", rec.Key, err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Links returns the scheduled URLs of a run in order.
func (d *DB) Links(ctx context.Context, runID string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT url FROM links WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	links := []string{}
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}

	return links, rows.Err()
}
