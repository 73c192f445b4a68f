package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/shopcrawl/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "shopcrawl.db"

var (
	// ErrRunNotFound is returned when no stored run matches an ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrDatabaseNotFound is returned by Open when the database file is
	// missing and creation was not requested.
	ErrDatabaseNotFound = errors.New("database not found")

	// ErrAmbiguousRunID is returned when an ID prefix matches several runs.
	ErrAmbiguousRunID = errors.New("run ID prefix matches multiple runs")
)

// CrawlDB stores crawl runs in a single SQLite file.
type CrawlDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc creates it.
	// Foreign keys are enabled per connection through the DSN.
	dsn := dbPath + "?mode=rw&_pragma=foreign_keys(1)"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

func (cdb *CrawlDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		status TEXT NOT NULL,
		cancelled INTEGER NOT NULL DEFAULT 0,
		total_pages INTEGER NOT NULL DEFAULT 0,
		total_products INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- position keeps the configured domain order within a run
	CREATE TABLE IF NOT EXISTS domain_results (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		domain TEXT NOT NULL,
		base_url TEXT NOT NULL,
		status TEXT NOT NULL,
		pages_fetched INTEGER NOT NULL DEFAULT 0,
		fetch_failures INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		started_at TEXT,
		finished_at TEXT,
		PRIMARY KEY (run_id, domain)
	);

	CREATE INDEX IF NOT EXISTS idx_domain_results_domain ON domain_results(domain);

	CREATE TABLE IF NOT EXISTS products (
		run_id TEXT NOT NULL,
		domain TEXT NOT NULL,
		url TEXT NOT NULL,
		PRIMARY KEY (run_id, domain, url),
		FOREIGN KEY (run_id, domain) REFERENCES domain_results(run_id, domain) ON DELETE CASCADE
	);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores run, replacing any earlier snapshot with the same ID.
// It is safe to call repeatedly while a run progresses.
func (cdb *CrawlDB) SaveRun(ctx context.Context, run *model.Run) error {
	if run.ID == "" {
		return errors.New("run has no ID")
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	if err := deleteRun(ctx, tx, run.ID); err != nil {
		return fmt.Errorf("failed to replace run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, started_at, finished_at, status, cancelled, total_pages, total_products)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		formatTimestamp(run.StartedAt),
		formatTimestamp(run.FinishedAt),
		run.Status(),
		run.Cancelled,
		run.TotalPages(),
		run.TotalProducts(),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	for i, d := range run.Domains {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO domain_results
			(run_id, position, domain, base_url, status, pages_fetched, fetch_failures, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, d.Domain, d.BaseURL, string(d.Status),
			d.PagesFetched, d.FetchFailures, nullString(d.Error),
			formatTimestamp(d.StartedAt), formatTimestamp(d.FinishedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to save result for %s: %w", d.Domain, err)
		}

		for _, u := range d.Products {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO products (run_id, domain, url) VALUES (?, ?, ?)`,
				run.ID, d.Domain, u,
			); err != nil {
				return fmt.Errorf("failed to save product for %s: %w", d.Domain, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// RunSummary describes a stored run without its product lists.
type RunSummary struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	Status        string
	Cancelled     bool
	Domains       int
	TotalPages    int
	TotalProducts int
}

// ListRuns returns the most recent runs first. A limit of 0 returns all runs.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
	SELECT r.id, r.started_at, r.finished_at, r.status, r.cancelled,
		r.total_pages, r.total_products,
		(SELECT COUNT(*) FROM domain_results d WHERE d.run_id = r.id)
	FROM runs r
	ORDER BY r.started_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var s RunSummary
		var started string
		var finished sql.NullString
		if err := rows.Scan(&s.ID, &started, &finished, &s.Status, &s.Cancelled,
			&s.TotalPages, &s.TotalProducts, &s.Domains); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.StartedAt = parseTimestamp(started)
		if finished.Valid {
			s.FinishedAt = parseTimestamp(finished.String)
		}
		results = append(results, s)
	}

	return results, rows.Err()
}

// GetRun loads a run by its full ID or by a unique ID prefix.
func (cdb *CrawlDB) GetRun(ctx context.Context, idOrPrefix string) (*model.Run, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, ErrRunNotFound
	}

	rows, err := cdb.db.QueryContext(ctx,
		`SELECT id FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' LIMIT 2`,
		idOrPrefix, escapeLike(idOrPrefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to look up run: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch {
	case len(ids) == 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, idOrPrefix)
	case len(ids) > 1:
		for _, id := range ids {
			if id == idOrPrefix {
				return cdb.loadRun(ctx, id)
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRunID, idOrPrefix)
	default:
		return cdb.loadRun(ctx, ids[0])
	}
}

// LatestRun returns the most recently started run.
func (cdb *CrawlDB) LatestRun(ctx context.Context) (*model.Run, error) {
	var id string
	err := cdb.db.QueryRowContext(ctx,
		`SELECT id FROM runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return cdb.loadRun(ctx, id)
}

func (cdb *CrawlDB) loadRun(ctx context.Context, id string) (*model.Run, error) {
	run := &model.Run{ID: id, Domains: make([]*model.DomainResult, 0)}

	var started string
	var finished sql.NullString
	err := cdb.db.QueryRowContext(ctx,
		`SELECT started_at, finished_at, cancelled FROM runs WHERE id = ?`, id,
	).Scan(&started, &finished, &run.Cancelled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	run.StartedAt = parseTimestamp(started)
	if finished.Valid {
		run.FinishedAt = parseTimestamp(finished.String)
	}

	rows, err := cdb.db.QueryContext(ctx, `
	SELECT domain, base_url, status, pages_fetched, fetch_failures, error, started_at, finished_at
	FROM domain_results
	WHERE run_id = ?
	ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load domain results: %w", err)
	}
	byDomain := make(map[string]*model.DomainResult)
	for rows.Next() {
		d := &model.DomainResult{Products: []string{}}
		var status string
		var errMsg, dStarted, dFinished sql.NullString
		if err := rows.Scan(&d.Domain, &d.BaseURL, &status, &d.PagesFetched, &d.FetchFailures,
			&errMsg, &dStarted, &dFinished); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan domain result: %w", err)
		}
		d.Status = model.DomainStatus(status)
		d.Error = errMsg.String
		if dStarted.Valid {
			d.StartedAt = parseTimestamp(dStarted.String)
		}
		if dFinished.Valid {
			d.FinishedAt = parseTimestamp(dFinished.String)
		}
		run.Domains = append(run.Domains, d)
		byDomain[d.Domain] = d
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prows, err := cdb.db.QueryContext(ctx,
		`SELECT domain, url FROM products WHERE run_id = ? ORDER BY domain, url`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	defer prows.Close()
	for prows.Next() {
		var domain, u string
		if err := prows.Scan(&domain, &u); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if d, ok := byDomain[domain]; ok {
			d.Products = append(d.Products, u)
		}
	}

	return run, prows.Err()
}

// DeleteRun removes a run and everything recorded for it.
func (cdb *CrawlDB) DeleteRun(ctx context.Context, id string) error {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to look up run: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err := deleteRun(ctx, tx, id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return tx.Commit()
}

// deleteRun removes child rows before the run itself.
func deleteRun(ctx context.Context, tx *sql.Tx, id string) error {
	for _, stmt := range []string{
		`DELETE FROM products WHERE run_id = ?`,
		`DELETE FROM domain_results WHERE run_id = ?`,
		`DELETE FROM runs WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// timestampLayout is fixed width so stored values sort chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timestampLayout), Valid: true}
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp tries each known format and returns the zero time when
// none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
