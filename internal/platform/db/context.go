package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const (
	// TenantIDKey carries the resolved tenant identifier for the request.
	TenantIDKey contextKey = "tenant_id"
	// DBConnKey carries a request-scoped acquired connection.
	DBConnKey contextKey = "db_conn"
	// TxKey carries an open transaction for multi-statement operations.
	TxKey contextKey = "db_tx"
)

// ConnFromContext returns the request-scoped connection, or nil when the
// caller should fall back to the shared pool.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}

// TxFromContext returns the open transaction bound to the context, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(TxKey).(pgx.Tx)
	return tx
}

// WithTenantID returns a context carrying the tenant identifier.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

// TenantIDFromContext returns the tenant identifier, or the empty string.
func TenantIDFromContext(ctx context.Context) string {
	tid, _ := ctx.Value(TenantIDKey).(string)
	return tid
}
