package documents

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RaulNascimentoSantos/REPOMED-IA-sub002/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const documentCols = `id, title, content, fields, patient, status, signature_id, hash,
	tenant_id, created_at, updated_at`

func (r *repoPG) scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.Title, &d.Content, &d.Fields, &d.Patient, &d.Status,
		&d.SignatureID, &d.Hash, &d.TenantID, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *repoPG) Create(ctx context.Context, d *Document) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO document (id, title, content, fields, patient, status, hash, tenant_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		d.ID, d.Title, d.Content, d.Fields, d.Patient, d.Status, d.Hash, d.TenantID)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	return r.scanDocument(r.conn(ctx).QueryRow(ctx, `SELECT `+documentCols+` FROM document WHERE id = $1`, id))
}

func (r *repoPG) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*Document, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM document WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+documentCols+` FROM document WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Document
	for rows.Next() {
		d, err := r.scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, nil
}

func (r *repoPG) Update(ctx context.Context, d *Document) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE document SET title=$2, content=$3, fields=$4, patient=$5, status=$6, hash=$7, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Title, d.Content, d.Fields, d.Patient, d.Status, d.Hash)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM document WHERE id = $1`, id)
	return err
}

func (r *repoPG) ClaimSignature(ctx context.Context, docID, signatureID uuid.UUID, hashAfter string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE document SET signature_id=$2, status=$3, hash=$4, updated_at=NOW()
		WHERE id = $1 AND signature_id IS NULL`,
		docID, signatureID, StatusSigned, hashAfter)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
