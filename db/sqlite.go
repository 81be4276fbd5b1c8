/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/humaidq/labranges/ranges"

	// Register the pure-Go SQLite driver with database/sql.
	_ "modernc.org/sqlite"
)

// sqlQueryable is satisfied by both *sql.DB and *sql.Tx.
type sqlQueryable interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore keeps reference ranges in an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the SQLite database at dsn, for example "labranges.db" or
// "file:demo?mode=memory".
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, ErrDatabaseURLRequired
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// One connection, so an in-memory database lives as long as the store.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return &SQLiteStore{db: sqlDB}, nil
}

// DB returns the underlying database handle.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *SQLiteStore) Close() {
	if s != nil && s.db != nil {
		if err := s.db.Close(); err != nil {
			logger.Warn("Failed to close sqlite database", "error", err)
		}
	}
}

// SyncSchema applies pending migrations.
func (s *SQLiteStore) SyncSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	return syncSchema(ctx, DriverSQLite, s.db)
}

// CheckSchema returns ErrSchemaMismatch when a required table or column is
// missing.
func (s *SQLiteStore) CheckSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	return checkColumns(func(table string) (map[string]bool, error) {
		rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		columns := map[string]bool{}
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, err
			}
			columns[name] = true
		}

		return columns, rows.Err()
	})
}

// InTx runs fn in a transaction.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(tx ranges.Tx) error) error {
	if s == nil || s.db == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logger.Warn("Failed to rollback repair transaction", "error", err)
		}
	}()

	if err := fn(&sqliteRangeTx{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit repair transaction: %w", err)
	}

	return nil
}

// ListRanges returns every reference range in stable order.
func (s *SQLiteStore) ListRanges(ctx context.Context) ([]ranges.RawRange, error) {
	if s == nil || s.db == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	return listRangesSQL(ctx, s.db)
}

// ListParameters returns the lab parameter catalog.
func (s *SQLiteStore) ListParameters(ctx context.Context) ([]ranges.Parameter, error) {
	if s == nil || s.db == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := s.db.QueryContext(ctx, listParametersQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list parameters: %w", err)
	}
	defer rows.Close()

	var params []ranges.Parameter
	for rows.Next() {
		var p ranges.Parameter
		if err := rows.Scan(&p.ID, &p.Analysis, &p.Category, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan parameter: %w", err)
		}
		params = append(params, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating parameters: %w", err)
	}

	return params, nil
}

// UpsertParameter inserts or updates a catalog entry.
func (s *SQLiteStore) UpsertParameter(ctx context.Context, p ranges.Parameter) error {
	if s == nil || s.db == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lab_parameters (id, analysis, category, name)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET analysis = excluded.analysis, category = excluded.category, name = excluded.name
	`, p.ID, p.Analysis, p.Category, p.Name)
	if err != nil {
		return fmt.Errorf("failed to upsert parameter %s: %w", p.ID, err)
	}

	return nil
}

// InsertRawRange stores an operator-authored row as is and returns its id.
func (s *SQLiteStore) InsertRawRange(ctx context.Context, r ranges.RawRange) (uuid.UUID, error) {
	if s == nil || s.db == nil {
		return uuid.Nil, ErrDatabaseConnectionNotInitialized
	}

	id, err := newRowID(r.ID)
	if err != nil {
		return uuid.Nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reference_ranges
			(id, parameter_id, sex, age_min, age_max, unit, method, lower_bound, upper_bound, text_value, origin)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id.String(), r.ParameterID, r.Sex, r.AgeMin, r.AgeMax, r.Unit, r.Method, r.Lower, r.Upper, r.TextValue, originOrDefault(r.Origin))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert range for %s: %w", r.ParameterID, err)
	}

	return id, nil
}

func listRangesSQL(ctx context.Context, q sqlQueryable) ([]ranges.RawRange, error) {
	rows, err := q.QueryContext(ctx, listRangesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list ranges: %w", err)
	}
	defer rows.Close()

	var out []ranges.RawRange
	for rows.Next() {
		r, err := scanRawRange(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ranges: %w", err)
	}

	return out, nil
}

// sqliteRangeTx implements ranges.Tx on a database/sql transaction.
type sqliteRangeTx struct {
	q sqlQueryable
}

const sqliteNow = `strftime('%Y-%m-%dT%H:%M:%f', 'now')`

func (t *sqliteRangeTx) ListRanges(ctx context.Context) ([]ranges.RawRange, error) {
	return listRangesSQL(ctx, t.q)
}

func (t *sqliteRangeTx) UpdateAges(ctx context.Context, id uuid.UUID, ageMin, ageMax float64) error {
	return t.exec(ctx, `UPDATE reference_ranges SET age_min = ?, age_max = ?, updated_at = `+sqliteNow+` WHERE id = ?`,
		ranges.FormatNumber(ageMin), ranges.FormatNumber(ageMax), id.String())
}

func (t *sqliteRangeTx) UpdateBounds(ctx context.Context, id uuid.UUID, lower, upper float64) error {
	return t.exec(ctx, `UPDATE reference_ranges SET lower_bound = ?, upper_bound = ?, updated_at = `+sqliteNow+` WHERE id = ?`,
		ranges.FormatNumber(lower), ranges.FormatNumber(upper), id.String())
}

func (t *sqliteRangeTx) SetTextValue(ctx context.Context, id uuid.UUID, text string) error {
	return t.exec(ctx, `UPDATE reference_ranges SET text_value = ?, updated_at = `+sqliteNow+` WHERE id = ?`,
		text, id.String())
}

func (t *sqliteRangeTx) UpdateAgeMin(ctx context.Context, id uuid.UUID, ageMin float64) error {
	return t.exec(ctx, `UPDATE reference_ranges SET age_min = ?, updated_at = `+sqliteNow+` WHERE id = ?`,
		ranges.FormatNumber(ageMin), id.String())
}

func (t *sqliteRangeTx) DeleteRange(ctx context.Context, id uuid.UUID) error {
	return t.exec(ctx, `DELETE FROM reference_ranges WHERE id = ?`, id.String())
}

func (t *sqliteRangeTx) MarkLegacyPlaceholders(ctx context.Context, text string) (int64, error) {
	var count int
	err := t.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, LegacyTable,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to check legacy table: %w", err)
	}

	if count == 0 {
		return 0, nil
	}

	res, err := t.q.ExecContext(ctx, markLegacyQuery("?"), text)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (t *sqliteRangeTx) InsertRangeIfAbsent(ctx context.Context, r ranges.Range) (bool, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return false, fmt.Errorf("failed to generate range id: %w", err)
	}

	row := encodeRange(r)

	res, err := t.q.ExecContext(ctx, `
		INSERT INTO reference_ranges
			(id, parameter_id, sex, age_min, age_max, unit, method, lower_bound, upper_bound, text_value, origin)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM reference_ranges
			WHERE parameter_id = ? AND sex = ? AND age_min = ? AND age_max = ?
			  AND COALESCE(unit, '') = COALESCE(?, '') AND COALESCE(method, '') = COALESCE(?, '')
		)
	`,
		id.String(), row.ParameterID, row.Sex, row.AgeMin, row.AgeMax, row.Unit, row.Method,
		row.Lower, row.Upper, row.TextValue, row.Origin,
		row.ParameterID, row.Sex, row.AgeMin, row.AgeMax, row.Unit, row.Method,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func (t *sqliteRangeTx) exec(ctx context.Context, query string, args ...any) error {
	_, err := t.q.ExecContext(ctx, query, args...)
	return err
}
