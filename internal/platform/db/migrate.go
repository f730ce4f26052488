package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migration is a single schema migration embedded in the binary.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationStatus reports whether an embedded migration has been applied.
type MigrationStatus struct {
	Version   int
	Name      string
	Applied   bool
	AppliedAt *time.Time
}

// Migrations returns the embedded schema, ordered by version. The
// signature_record table carries a UNIQUE(document_id) constraint: the
// storage layer, not application code, is what ultimately enforces the
// single-signature invariant under concurrent signing attempts.
func Migrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "documents",
			SQL: `
CREATE TABLE IF NOT EXISTS document (
    id UUID PRIMARY KEY,
    title VARCHAR(255) NOT NULL,
    content JSONB NOT NULL DEFAULT '{}',
    fields JSONB NOT NULL DEFAULT '{}',
    patient JSONB NOT NULL DEFAULT '{}',
    status VARCHAR(32) NOT NULL DEFAULT 'draft',
    signature_id UUID,
    hash VARCHAR(64),
    tenant_id VARCHAR(64) NOT NULL DEFAULT 'default',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_document_tenant ON document (tenant_id);
CREATE INDEX IF NOT EXISTS idx_document_status ON document (status);`,
		},
		{
			Version: 2,
			Name:    "signature_records",
			SQL: `
CREATE TABLE IF NOT EXISTS signature_record (
    id UUID PRIMARY KEY,
    document_id UUID NOT NULL REFERENCES document (id),
    signer_id VARCHAR(128) NOT NULL,
    signer_name VARCHAR(255) NOT NULL,
    hash_before VARCHAR(64) NOT NULL,
    hash_after VARCHAR(64) NOT NULL,
    signature_data TEXT NOT NULL,
    certificate_serial VARCHAR(128),
    certificate_subject VARCHAR(255),
    certificate_issuer VARCHAR(255),
    signature_format VARCHAR(32),
    signature_level VARCHAR(32),
    provider VARCHAR(64) NOT NULL,
    client_ip VARCHAR(64),
    user_agent TEXT,
    location VARCHAR(255),
    tenant_id VARCHAR(64) NOT NULL DEFAULT 'default',
    signed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    verified_at TIMESTAMPTZ,
    verification_status VARCHAR(32),
    UNIQUE (document_id)
);
CREATE INDEX IF NOT EXISTS idx_signature_record_tenant ON signature_record (tenant_id);`,
		},
	}
}

// Migrator applies the embedded migrations against a PostgreSQL database.
type Migrator struct {
	pool *pgxpool.Pool
}

func NewMigrator(pool *pgxpool.Pool) *Migrator {
	return &Migrator{pool: pool}
}

// EnsureMigrationsTable creates the _migrations tracking table if it does
// not already exist.
func (m *Migrator) EnsureMigrationsTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS _migrations (
    version INTEGER PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    applied_at TIMESTAMPTZ DEFAULT NOW()
)`)
	if err != nil {
		return fmt.Errorf("create _migrations table: %w", err)
	}
	return nil
}

// Up applies all pending migrations in order, each inside its own
// transaction, and returns the number applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.EnsureMigrationsTable(ctx); err != nil {
		return 0, err
	}

	applied := map[int]bool{}
	rows, err := m.pool.Query(ctx, `SELECT version FROM _migrations`)
	if err != nil {
		return 0, fmt.Errorf("read applied migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return 0, err
		}
		applied[v] = true
	}
	rows.Close()

	count := 0
	for _, mig := range Migrations() {
		if applied[mig.Version] {
			continue
		}
		tx, err := m.pool.Begin(ctx)
		if err != nil {
			return count, fmt.Errorf("begin migration %d: %w", mig.Version, err)
		}
		if _, err := tx.Exec(ctx, mig.SQL); err != nil {
			tx.Rollback(ctx)
			return count, fmt.Errorf("apply migration %d (%s): %w", mig.Version, mig.Name, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO _migrations (version, name) VALUES ($1, $2)`, mig.Version, mig.Name); err != nil {
			tx.Rollback(ctx)
			return count, fmt.Errorf("record migration %d: %w", mig.Version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return count, fmt.Errorf("commit migration %d: %w", mig.Version, err)
		}
		count++
	}
	return count, nil
}

// Status lists every embedded migration and whether it has been applied.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.EnsureMigrationsTable(ctx); err != nil {
		return nil, err
	}

	appliedAt := map[int]time.Time{}
	rows, err := m.pool.Query(ctx, `SELECT version, applied_at FROM _migrations`)
	if err != nil {
		return nil, fmt.Errorf("read applied migrations: %w", err)
	}
	for rows.Next() {
		var v int
		var at time.Time
		if err := rows.Scan(&v, &at); err != nil {
			rows.Close()
			return nil, err
		}
		appliedAt[v] = at
	}
	rows.Close()

	var statuses []MigrationStatus
	for _, mig := range Migrations() {
		st := MigrationStatus{Version: mig.Version, Name: mig.Name}
		if at, ok := appliedAt[mig.Version]; ok {
			st.Applied = true
			t := at
			st.AppliedAt = &t
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}
