package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ziltek/calcombine/internal/models"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

const table = "calibration_records"

// SQLStore implements Store on SQLite or PostgreSQL.
type SQLStore struct {
	db     *sqlx.DB
	driver string
	dsn    string

	columns   string // id, mk_type, ...
	insertSQL string
	upsertSQL string
	updateSQL string
}

// Open connects to the database and creates the schema if needed. For SQLite the dsn is a
// file path whose parent directories are created.
func Open(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverSQLite:
		if path := sqlitePath(dsn); path != "" {
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return nil, fmt.Errorf("failed to create database directory: %w", err)
				}
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// One writer at a time; WAL lets readers proceed.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL: %w", err)
		}
	}
	if _, err := db.Exec(schema(driver)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	s := &SQLStore{db: db, driver: driver, dsn: dsn}
	s.prepareQueries()
	return s, nil
}

func schema(driver string) string {
	seq, numeric := "seq INTEGER PRIMARY KEY AUTOINCREMENT", "REAL"
	if driver == DriverPostgres {
		seq, numeric = "seq BIGSERIAL PRIMARY KEY", "DOUBLE PRECISION"
	}
	var cols []string
	for _, c := range models.Columns {
		typ := "TEXT"
		if c.Kind == models.KindNumber {
			typ = numeric
		}
		cols = append(cols, "\t\t"+c.DB+" "+typ)
	}
	return `
	CREATE TABLE IF NOT EXISTS ` + table + ` (
		` + seq + `,
		id TEXT NOT NULL UNIQUE,
` + strings.Join(cols, ",\n") + `
	);
	`
}

func (s *SQLStore) prepareQueries() {
	names := []string{"id"}
	binds := []string{":id"}
	var sets []string
	for _, c := range models.Columns {
		names = append(names, c.DB)
		binds = append(binds, ":"+c.DB)
		sets = append(sets, c.DB+" = :"+c.DB)
	}
	s.columns = strings.Join(names, ", ")
	s.insertSQL = `INSERT INTO ` + table + ` (` + s.columns + `) VALUES (` + strings.Join(binds, ", ") + `)`
	var excluded []string
	for _, c := range models.Columns {
		excluded = append(excluded, c.DB+" = excluded."+c.DB)
	}
	s.upsertSQL = s.insertSQL + ` ON CONFLICT (id) DO UPDATE SET ` + strings.Join(excluded, ", ")
	s.updateSQL = `UPDATE ` + table + ` SET ` + strings.Join(sets, ", ") + ` WHERE id = :id`
}

// Driver returns the database driver name.
func (s *SQLStore) Driver() string { return s.driver }

// ReplaceAll deletes every record and inserts records, in one transaction. Records without
// an ID get a random one.
func (s *SQLStore) ReplaceAll(ctx context.Context, records []models.Record) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear records: %w", err)
		}
		return s.insertAll(ctx, tx, s.insertSQL, records)
	})
}

// Append inserts records after the existing rows; existing IDs are updated in place.
func (s *SQLStore) Append(ctx context.Context, records []models.Record) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		return s.insertAll(ctx, tx, s.upsertSQL, records)
	})
}

func (s *SQLStore) insertAll(ctx context.Context, tx *sqlx.Tx, query string, records []models.Record) error {
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.New().String()
		}
		if _, err := tx.NamedExecContext(ctx, query, &records[i]); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", records[i].ID, err)
		}
	}
	return nil
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// List returns every record in insertion order.
func (s *SQLStore) List(ctx context.Context) ([]models.Record, error) {
	records := []models.Record{}
	query := `SELECT ` + s.columns + ` FROM ` + table + ` ORDER BY seq`
	if err := s.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

// Get returns the record with the given ID.
func (s *SQLStore) Get(ctx context.Context, id string) (*models.Record, error) {
	var rec models.Record
	query := s.db.Rebind(`SELECT ` + s.columns + ` FROM ` + table + ` WHERE id = ?`)
	err := s.db.GetContext(ctx, &rec, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return &rec, nil
}

// Add inserts rec at the end of the table, assigning an ID when it has none.
func (s *SQLStore) Add(ctx context.Context, rec *models.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if _, err := s.db.NamedExecContext(ctx, s.insertSQL, rec); err != nil {
		return fmt.Errorf("failed to add record: %w", err)
	}
	return nil
}

// Update overwrites every column of the record with rec.ID.
func (s *SQLStore) Update(ctx context.Context, rec *models.Record) error {
	result, err := s.db.NamedExecContext(ctx, s.updateSQL, rec)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, rec.ID)
	}
	return nil
}

// Delete removes the record with the given ID.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM `+table+` WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Count returns the number of records.
func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM `+table)
	return count, err
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLStore)(nil)
