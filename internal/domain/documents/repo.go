package documents

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence boundary for documents.
type Repository interface {
	Create(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*Document, int, error)
	Update(ctx context.Context, d *Document) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ClaimSignature atomically marks a document signed. The update only
	// succeeds when no signature is attached yet; it returns false when
	// another signature won the race or the document does not exist.
	ClaimSignature(ctx context.Context, docID, signatureID uuid.UUID, hashAfter string) (bool, error)
}
