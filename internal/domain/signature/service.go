package signature

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/RaulNascimentoSantos/REPOMED-IA-sub002/internal/domain/documents"
	"github.com/RaulNascimentoSantos/REPOMED-IA-sub002/internal/platform/audit"
)

// Service orchestrates signing and verification.
//
// Signing fails closed: any failure leaves the document unsigned and no
// signature record behind. Verification also fails closed, but in the
// other direction: any failure reports the signature as invalid rather
// than returning an error to the caller.
type Service struct {
	docs     documents.Repository
	repo     Repository
	registry *Registry
	renderer Renderer
	aud      *audit.Logger
}

func NewService(docs documents.Repository, repo Repository, registry *Registry, renderer Renderer, aud *audit.Logger) *Service {
	return &Service{docs: docs, repo: repo, registry: registry, renderer: renderer, aud: aud}
}

// SignDocument signs a draft document and attaches the resulting record.
// The one-signature invariant is enforced twice: a fast path check on the
// loaded document, then the conditional claim in storage which is the
// authority under concurrency. A record whose claim loses the race is
// compensated away.
func (s *Service) SignDocument(ctx context.Context, documentID uuid.UUID, opts SignOptions) (rec *SignatureRecord, err error) {
	start := time.Now()
	defer func() {
		fields := map[string]interface{}{
			"document_id": documentID.String(),
			"tenant_id":   opts.TenantID,
			"signer_id":   opts.SignerID,
			"provider":    opts.Provider,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if err != nil {
			s.aud.Error("document_sign_failed", err, fields)
			return
		}
		fields["signature_id"] = rec.ID.String()
		s.aud.SecurityEvent("document_signed", fields)
	}()

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, documents.ErrNotFound
		}
		return nil, err
	}
	if doc.SignatureID != nil || doc.Status == documents.StatusSigned {
		return nil, ErrAlreadySigned
	}

	provider, err := s.registry.Resolve(opts.Provider)
	if err != nil {
		return nil, err
	}

	artifact, err := s.renderer.Render(doc)
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	hashBefore := ContentHash(artifact)

	sig, err := provider.Sign(ctx, SignRequest{
		DocumentID: doc.ID.String(),
		Artifact:   artifact,
		Hash:       hashBefore,
		SignerID:   opts.SignerID,
		SignerName: opts.SignerName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}
	// A provider that returns no distinct signed artifact leaves the hash
	// unchanged.
	if sig.HashAfter == "" {
		sig.HashAfter = hashBefore
	}

	rec = &SignatureRecord{
		ID:                 uuid.New(),
		DocumentID:         doc.ID,
		SignerID:           opts.SignerID,
		SignerName:         opts.SignerName,
		HashBefore:         hashBefore,
		HashAfter:          sig.HashAfter,
		SignatureData:      sig.SignatureData,
		CertificateSerial:  sig.CertificateSerial,
		CertificateSubject: sig.CertificateSubject,
		CertificateIssuer:  sig.CertificateIssuer,
		SignatureFormat:    sig.Format,
		SignatureLevel:     sig.Level,
		Provider:           provider.Name(),
		ClientIP:           opts.ClientIP,
		UserAgent:          opts.UserAgent,
		Location:           opts.Location,
		TenantID:           doc.TenantID,
		SignedAt:           time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist signature: %w", err)
	}

	claimed, err := s.docs.ClaimSignature(ctx, doc.ID, rec.ID, rec.HashAfter)
	if err != nil || !claimed {
		// The orphaned record is harmless thanks to UNIQUE(document_id),
		// but a failed compensation still has to be visible.
		if derr := s.repo.Delete(ctx, rec.ID); derr != nil {
			s.aud.Error("signature_compensation_failed", derr, map[string]interface{}{
				"signature_id": rec.ID.String(),
				"document_id":  doc.ID.String(),
			})
		}
		if err != nil {
			return nil, fmt.Errorf("attach signature: %w", err)
		}
		return nil, ErrAlreadySigned
	}
	return rec, nil
}

// Get returns a signature record by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*SignatureRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// GetByDocument returns the signature attached to a document.
func (s *Service) GetByDocument(ctx context.Context, documentID uuid.UUID) (*SignatureRecord, error) {
	rec, err := s.repo.GetByDocumentID(ctx, documentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// Verify re-checks a signature with its original provider and records the
// outcome. Every attempt against an existing record persists verified_at
// and the resulting status; any failure along the way, a missing record
// included, yields an invalid outcome rather than an error.
func (s *Service) Verify(ctx context.Context, signatureID uuid.UUID) *VerifyOutcome {
	now := time.Now().UTC()

	rec, err := s.Get(ctx, signatureID)
	if err != nil {
		reason := "could not load signature: " + err.Error()
		if errors.Is(err, ErrNotFound) {
			reason = "signature not found"
		}
		s.aud.SecurityEvent("signature_verified", map[string]interface{}{
			"signature_id": signatureID.String(),
			"verified":     false,
			"status":       VerificationInvalid,
		})
		return &VerifyOutcome{Status: VerificationInvalid, Reason: reason, VerifiedAt: now}
	}

	outcome := &VerifyOutcome{Status: VerificationInvalid, VerifiedAt: now}

	provider, err := s.registry.Resolve(rec.Provider)
	if err != nil {
		outcome.Reason = "provider not available"
	} else {
		ok, verr := provider.Verify(ctx, rec)
		switch {
		case verr != nil:
			outcome.Reason = "verification failed: " + verr.Error()
		case !ok:
			outcome.Reason = "signature does not match recorded hashes"
		default:
			outcome.Verified = true
			outcome.Status = VerificationValid
		}
	}

	if err := s.repo.MarkVerified(ctx, rec.ID, outcome.Status, now); err != nil {
		// A verification we cannot record did not durably happen.
		outcome.Verified = false
		outcome.Status = VerificationInvalid
		outcome.Reason = "could not persist verification: " + err.Error()
	}

	status := outcome.Status
	rec.VerifiedAt = &now
	rec.VerificationStatus = &status
	outcome.Record = rec

	s.aud.SecurityEvent("signature_verified", map[string]interface{}{
		"signature_id": rec.ID.String(),
		"document_id":  rec.DocumentID.String(),
		"tenant_id":    rec.TenantID,
		"provider":     rec.Provider,
		"verified":     outcome.Verified,
		"status":       outcome.Status,
	})
	return outcome
}
