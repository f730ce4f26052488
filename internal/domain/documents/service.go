package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/RaulNascimentoSantos/REPOMED-IA-sub002/internal/platform/audit"
)

var (
	ErrNotFound = errors.New("document not found")
	// ErrSigned rejects any mutation of a signed document.
	ErrSigned = errors.New("document is signed and immutable")
)

type Service struct {
	repo Repository
	aud  *audit.Logger
}

func NewService(repo Repository, aud *audit.Logger) *Service {
	return &Service{repo: repo, aud: aud}
}

func (s *Service) Create(ctx context.Context, d *Document) error {
	if d.Title == "" {
		return fmt.Errorf("title is required")
	}
	d.ID = uuid.New()
	d.Status = StatusDraft
	d.SignatureID = nil
	if d.Content == nil {
		d.Content = map[string]interface{}{}
	}
	if d.Fields == nil {
		d.Fields = map[string]interface{}{}
	}
	if d.Patient == nil {
		d.Patient = map[string]interface{}{}
	}

	hash, err := d.ComputeHash()
	if err != nil {
		return fmt.Errorf("hash document: %w", err)
	}
	d.Hash = hash

	if err := s.repo.Create(ctx, d); err != nil {
		return err
	}
	s.aud.Audit("document_created", map[string]interface{}{
		"document_id": d.ID.String(),
		"tenant_id":   d.TenantID,
	})
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, tenantID string, limit, offset int) ([]*Document, int, error) {
	return s.repo.ListByTenant(ctx, tenantID, limit, offset)
}

// Update replaces the editable fields of a draft. The stored hash tracks
// the content so a later signature binds to exactly what was reviewed.
func (s *Service) Update(ctx context.Context, d *Document) error {
	existing, err := s.Get(ctx, d.ID)
	if err != nil {
		return err
	}
	if existing.Status == StatusSigned {
		return ErrSigned
	}

	d.Status = existing.Status
	d.TenantID = existing.TenantID
	hash, err := d.ComputeHash()
	if err != nil {
		return fmt.Errorf("hash document: %w", err)
	}
	d.Hash = hash

	if err := s.repo.Update(ctx, d); err != nil {
		return err
	}
	s.aud.Audit("document_updated", map[string]interface{}{
		"document_id": d.ID.String(),
		"tenant_id":   d.TenantID,
	})
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.Status == StatusSigned {
		return ErrSigned
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.aud.Audit("document_deleted", map[string]interface{}{
		"document_id": id.String(),
		"tenant_id":   existing.TenantID,
	})
	return nil
}
