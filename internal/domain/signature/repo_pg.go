package signature

import (
	"context"
	"time"

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

const recordCols = `id, document_id, signer_id, signer_name, hash_before, hash_after,
	signature_data, certificate_serial, certificate_subject, certificate_issuer,
	signature_format, signature_level, provider, client_ip, user_agent, location,
	tenant_id, signed_at, verified_at, verification_status`

func (r *repoPG) scanRecord(row pgx.Row) (*SignatureRecord, error) {
	var rec SignatureRecord
	err := row.Scan(&rec.ID, &rec.DocumentID, &rec.SignerID, &rec.SignerName,
		&rec.HashBefore, &rec.HashAfter, &rec.SignatureData,
		&rec.CertificateSerial, &rec.CertificateSubject, &rec.CertificateIssuer,
		&rec.SignatureFormat, &rec.SignatureLevel, &rec.Provider,
		&rec.ClientIP, &rec.UserAgent, &rec.Location,
		&rec.TenantID, &rec.SignedAt, &rec.VerifiedAt, &rec.VerificationStatus)
	return &rec, err
}

func (r *repoPG) Create(ctx context.Context, rec *SignatureRecord) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO signature_record (id, document_id, signer_id, signer_name,
			hash_before, hash_after, signature_data,
			certificate_serial, certificate_subject, certificate_issuer,
			signature_format, signature_level, provider,
			client_ip, user_agent, location, tenant_id, signed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		rec.ID, rec.DocumentID, rec.SignerID, rec.SignerName,
		rec.HashBefore, rec.HashAfter, rec.SignatureData,
		rec.CertificateSerial, rec.CertificateSubject, rec.CertificateIssuer,
		rec.SignatureFormat, rec.SignatureLevel, rec.Provider,
		rec.ClientIP, rec.UserAgent, rec.Location, rec.TenantID, rec.SignedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*SignatureRecord, error) {
	return r.scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+recordCols+` FROM signature_record WHERE id = $1`, id))
}

func (r *repoPG) GetByDocumentID(ctx context.Context, documentID uuid.UUID) (*SignatureRecord, error) {
	return r.scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+recordCols+` FROM signature_record WHERE document_id = $1`, documentID))
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM signature_record WHERE id = $1`, id)
	return err
}

func (r *repoPG) MarkVerified(ctx context.Context, id uuid.UUID, status string, at time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE signature_record SET verified_at=$2, verification_status=$3 WHERE id = $1`,
		id, at, status)
	return err
}
