// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

func TestEnsureDatabaseLeavesSQLiteAlone(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "labranges.db")

	if err := EnsureDatabase(testContext(), DriverSQLite, path); err != nil {
		t.Fatalf("EnsureDatabase failed: %v", err)
	}

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no file at %s, got %v", path, err)
	}
}

func TestEnsureDatabaseRequiresURL(t *testing.T) {
	t.Parallel()

	if err := EnsureDatabase(testContext(), DriverPostgres, ""); !errors.Is(err, ErrDatabaseURLRequired) {
		t.Fatalf("expected ErrDatabaseURLRequired, got %v", err)
	}
}

func TestOpenPostgresDoesNotCreateDatabase(t *testing.T) {
	store := requirePostgres(t)
	ctx := testContext()

	base, err := url.Parse(os.Getenv("DATABASE_URL"))
	if err != nil || (base.Scheme != "postgres" && base.Scheme != "postgresql") {
		t.Skip("DATABASE_URL is not a postgres:// URL")
	}

	name := fmt.Sprintf("labranges_missing_%d", time.Now().UnixNano())
	missing := *base
	missing.Path = "/" + name

	exists := func() bool {
		t.Helper()

		var found bool
		err := store.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", name).Scan(&found)
		if err != nil {
			t.Fatalf("failed to look up database: %v", err)
		}
		return found
	}

	if s, err := OpenPostgres(ctx, missing.String(), 1, 0); err == nil {
		s.Close()
		t.Fatal("expected opening a missing database to fail")
	}

	if exists() {
		t.Fatalf("expected database %s not to be created on open", name)
	}

	if err := EnsureDatabase(ctx, DriverPostgres, missing.String()); err != nil {
		t.Fatalf("EnsureDatabase failed: %v", err)
	}
	t.Cleanup(func() {
		if err := withConn(ctx, base.String(), "DROP DATABASE IF EXISTS "+pgx.Identifier{name}.Sanitize()); err != nil {
			t.Logf("failed to drop %s: %v", name, err)
		}
	})

	if !exists() {
		t.Fatalf("expected EnsureDatabase to create %s", name)
	}
}
