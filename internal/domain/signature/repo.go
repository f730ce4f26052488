package signature

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists signature records.
type Repository interface {
	Create(ctx context.Context, rec *SignatureRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*SignatureRecord, error)
	GetByDocumentID(ctx context.Context, documentID uuid.UUID) (*SignatureRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// MarkVerified records the outcome of a verification attempt. It is
	// called for failed verifications too; the status tells them apart.
	MarkVerified(ctx context.Context, id uuid.UUID, status string, at time.Time) error
}
