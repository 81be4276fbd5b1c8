/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/humaidq/labranges/ranges"
)

// queryable is satisfied by both the pool and a transaction.
type queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps reference ranges in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL. The database must already exist; see
// EnsureDatabase.
func OpenPostgres(ctx context.Context, databaseURL string, maxConns, minConns int32) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, ErrDatabaseURLRequired
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if maxConns > 0 {
		config.MaxConns = maxConns
	}
	if minConns > 0 {
		config.MinConns = minConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// SyncSchema applies pending migrations through the store's pool.
func (s *PostgresStore) SyncSchema(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	sqlDB := stdlib.OpenDBFromPool(s.pool)
	defer func() {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("Failed to close migration connection", "error", err)
		}
	}()

	return syncSchema(ctx, DriverPostgres, sqlDB)
}

// CheckSchema returns ErrSchemaMismatch when a required table or column is
// missing.
func (s *PostgresStore) CheckSchema(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	return checkColumns(func(table string) (map[string]bool, error) {
		rows, err := s.pool.Query(ctx, `
			SELECT column_name
			FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1
		`, table)
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
func (s *PostgresStore) InTx(ctx context.Context, fn func(tx ranges.Tx) error) error {
	if s == nil || s.pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Warn("Failed to rollback repair transaction", "error", err)
		}
	}()

	if err := fn(&pgRangeTx{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit repair transaction: %w", err)
	}

	return nil
}

// ListRanges returns every reference range in stable order.
func (s *PostgresStore) ListRanges(ctx context.Context) ([]ranges.RawRange, error) {
	if s == nil || s.pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	return listRangesPG(ctx, s.pool)
}

// ListParameters returns the lab parameter catalog.
func (s *PostgresStore) ListParameters(ctx context.Context) ([]ranges.Parameter, error) {
	if s == nil || s.pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := s.pool.Query(ctx, listParametersQuery)
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
func (s *PostgresStore) UpsertParameter(ctx context.Context, p ranges.Parameter) error {
	if s == nil || s.pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO lab_parameters (id, analysis, category, name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET analysis = EXCLUDED.analysis, category = EXCLUDED.category, name = EXCLUDED.name
	`, p.ID, p.Analysis, p.Category, p.Name)
	if err != nil {
		return fmt.Errorf("failed to upsert parameter %s: %w", p.ID, err)
	}

	return nil
}

// InsertRawRange stores an operator-authored row as is and returns its id.
func (s *PostgresStore) InsertRawRange(ctx context.Context, r ranges.RawRange) (uuid.UUID, error) {
	if s == nil || s.pool == nil {
		return uuid.Nil, ErrDatabaseConnectionNotInitialized
	}

	id, err := newRowID(r.ID)
	if err != nil {
		return uuid.Nil, err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO reference_ranges
			(id, parameter_id, sex, age_min, age_max, unit, method, lower_bound, upper_bound, text_value, origin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, id, r.ParameterID, r.Sex, r.AgeMin, r.AgeMax, r.Unit, r.Method, r.Lower, r.Upper, r.TextValue, originOrDefault(r.Origin))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert range for %s: %w", r.ParameterID, err)
	}

	return id, nil
}

func listRangesPG(ctx context.Context, q queryable) ([]ranges.RawRange, error) {
	rows, err := q.Query(ctx, listRangesQuery)
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

// pgRangeTx implements ranges.Tx on a pgx transaction.
type pgRangeTx struct {
	q queryable
}

func (t *pgRangeTx) ListRanges(ctx context.Context) ([]ranges.RawRange, error) {
	return listRangesPG(ctx, t.q)
}

func (t *pgRangeTx) UpdateAges(ctx context.Context, id uuid.UUID, ageMin, ageMax float64) error {
	return t.exec(ctx, `
		UPDATE reference_ranges SET age_min = $2, age_max = $3, updated_at = now() WHERE id = $1
	`, id, ranges.FormatNumber(ageMin), ranges.FormatNumber(ageMax))
}

func (t *pgRangeTx) UpdateBounds(ctx context.Context, id uuid.UUID, lower, upper float64) error {
	return t.exec(ctx, `
		UPDATE reference_ranges SET lower_bound = $2, upper_bound = $3, updated_at = now() WHERE id = $1
	`, id, ranges.FormatNumber(lower), ranges.FormatNumber(upper))
}

func (t *pgRangeTx) SetTextValue(ctx context.Context, id uuid.UUID, text string) error {
	return t.exec(ctx, `
		UPDATE reference_ranges SET text_value = $2, updated_at = now() WHERE id = $1
	`, id, text)
}

func (t *pgRangeTx) UpdateAgeMin(ctx context.Context, id uuid.UUID, ageMin float64) error {
	return t.exec(ctx, `
		UPDATE reference_ranges SET age_min = $2, updated_at = now() WHERE id = $1
	`, id, ranges.FormatNumber(ageMin))
}

func (t *pgRangeTx) DeleteRange(ctx context.Context, id uuid.UUID) error {
	return t.exec(ctx, `DELETE FROM reference_ranges WHERE id = $1`, id)
}

func (t *pgRangeTx) MarkLegacyPlaceholders(ctx context.Context, text string) (int64, error) {
	var exists bool
	if err := t.q.QueryRow(ctx, `SELECT to_regclass($1::text) IS NOT NULL`, LegacyTable).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to check legacy table: %w", err)
	}

	if !exists {
		return 0, nil
	}

	tag, err := t.q.Exec(ctx, markLegacyQuery("$1"), text)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (t *pgRangeTx) InsertRangeIfAbsent(ctx context.Context, r ranges.Range) (bool, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return false, fmt.Errorf("failed to generate range id: %w", err)
	}

	row := encodeRange(r)

	tag, err := t.q.Exec(ctx, `
		INSERT INTO reference_ranges
			(id, parameter_id, sex, age_min, age_max, unit, method, lower_bound, upper_bound, text_value, origin)
		SELECT $1::uuid, $2::text, $3::text, $4::text, $5::text, $6::text, $7::text, $8::text, $9::text, $10::text, $11::text
		WHERE NOT EXISTS (
			SELECT 1 FROM reference_ranges
			WHERE parameter_id = $2 AND sex = $3 AND age_min = $4 AND age_max = $5
			  AND COALESCE(unit, '') = COALESCE($6, '') AND COALESCE(method, '') = COALESCE($7, '')
		)
	`, id, row.ParameterID, row.Sex, row.AgeMin, row.AgeMax, row.Unit, row.Method, row.Lower, row.Upper, row.TextValue, row.Origin)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (t *pgRangeTx) exec(ctx context.Context, sql string, args ...any) error {
	_, err := t.q.Exec(ctx, sql, args...)
	return err
}

// EnsureDatabase creates the PostgreSQL database named in databaseURL when it
// does not exist yet. SQLite databases are created on open, so other drivers
// are left alone.
func EnsureDatabase(ctx context.Context, driver Driver, databaseURL string) error {
	if driver != DriverPostgres {
		return nil
	}

	if databaseURL == "" {
		return ErrDatabaseURLRequired
	}

	if err := ensureDatabaseExists(ctx, databaseURL); err != nil {
		return fmt.Errorf("failed to ensure database exists: %w", err)
	}

	return nil
}

// ensureDatabaseExists creates the database if it doesn't exist
func ensureDatabaseExists(ctx context.Context, databaseURL string) error {
	config, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	dbName := config.Database
	if dbName == "" {
		return ErrDatabaseNameNotSpecified
	}

	// Connect to 'postgres' database to create the target database
	config.Database = "postgres"

	conn, err := pgx.ConnectConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres database: %w", err)
	}

	defer func() {
		if err := conn.Close(ctx); err != nil {
			logger.Warn("Failed to close bootstrap database connection", "error", err)
		}
	}()

	var exists bool

	err = conn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}

	if !exists {
		sql := "CREATE DATABASE " + pgx.Identifier{dbName}.Sanitize()

		_, err = conn.Exec(ctx, sql)
		if err != nil {
			// Ignore error if database was created by another process
			if !strings.Contains(err.Error(), "already exists") {
				return fmt.Errorf("failed to create database: %w", err)
			}
		}

		logger.Info("Created database", "name", dbName)
	}

	return nil
}
