package signature

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/RaulNascimentoSantos/REPOMED-IA-sub002/internal/domain/documents"
	"github.com/RaulNascimentoSantos/REPOMED-IA-sub002/internal/platform/audit"
)

type memDocRepo struct {
	docs map[uuid.UUID]*documents.Document
	// claimDenied simulates losing the storage-level race.
	claimDenied bool
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{docs: map[uuid.UUID]*documents.Document{}}
}

func (m *memDocRepo) Create(ctx context.Context, d *documents.Document) error {
	copied := *d
	m.docs[d.ID] = &copied
	return nil
}

func (m *memDocRepo) GetByID(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *d
	return &copied, nil
}

func (m *memDocRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*documents.Document, int, error) {
	return nil, 0, nil
}

func (m *memDocRepo) Update(ctx context.Context, d *documents.Document) error {
	copied := *d
	m.docs[d.ID] = &copied
	return nil
}

func (m *memDocRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.docs, id)
	return nil
}

func (m *memDocRepo) ClaimSignature(ctx context.Context, docID, signatureID uuid.UUID, hashAfter string) (bool, error) {
	if m.claimDenied {
		return false, nil
	}
	d, ok := m.docs[docID]
	if !ok || d.SignatureID != nil {
		return false, nil
	}
	sid := signatureID
	d.SignatureID = &sid
	d.Status = documents.StatusSigned
	d.Hash = hashAfter
	return true, nil
}

type memSigRepo struct {
	recs map[uuid.UUID]*SignatureRecord
	// deleteErr simulates a storage failure during compensation.
	deleteErr error
}

func newMemSigRepo() *memSigRepo {
	return &memSigRepo{recs: map[uuid.UUID]*SignatureRecord{}}
}

func (m *memSigRepo) Create(ctx context.Context, rec *SignatureRecord) error {
	copied := *rec
	m.recs[rec.ID] = &copied
	return nil
}

func (m *memSigRepo) GetByID(ctx context.Context, id uuid.UUID) (*SignatureRecord, error) {
	rec, ok := m.recs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *rec
	return &copied, nil
}

func (m *memSigRepo) GetByDocumentID(ctx context.Context, documentID uuid.UUID) (*SignatureRecord, error) {
	for _, rec := range m.recs {
		if rec.DocumentID == documentID {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memSigRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.recs, id)
	return nil
}

func (m *memSigRepo) MarkVerified(ctx context.Context, id uuid.UUID, status string, at time.Time) error {
	rec, ok := m.recs[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t := at
	s := status
	rec.VerifiedAt = &t
	rec.VerificationStatus = &s
	return nil
}

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }
func (failingProvider) Sign(ctx context.Context, req SignRequest) (*ProviderSignature, error) {
	return nil, errors.New("hsm unreachable")
}
func (failingProvider) Verify(ctx context.Context, rec *SignatureRecord) (bool, error) {
	return false, errors.New("hsm unreachable")
}

func newTestService(defaultProvider string) (*Service, *memDocRepo, *memSigRepo) {
	docs := newMemDocRepo()
	sigs := newMemSigRepo()

	registry := NewRegistry(defaultProvider)
	registry.Register(NewMockProvider([]byte("test-key"), 0))
	registry.Register(failingProvider{})

	svc := NewService(docs, sigs, registry, NewJSONRenderer(), audit.NewLogger(zerolog.Nop()))
	return svc, docs, sigs
}

func draftDocument(t *testing.T, docs *memDocRepo) *documents.Document {
	t.Helper()
	doc := &documents.Document{
		ID:       uuid.New(),
		Title:    "Receita Médica",
		Content:  map[string]interface{}{"medications": []interface{}{"Dipirona 500mg"}},
		Fields:   map[string]interface{}{},
		Patient:  map[string]interface{}{"name": "REDACTED"},
		Status:   documents.StatusDraft,
		TenantID: "clinic-1",
	}
	hash, err := doc.ComputeHash()
	if err != nil {
		t.Fatal(err)
	}
	doc.Hash = hash
	if err := docs.Create(context.Background(), doc); err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestSignDocument_HappyPath(t *testing.T) {
	svc, docs, sigs := newTestService("mock")
	doc := draftDocument(t, docs)

	rec, err := svc.SignDocument(context.Background(), doc.ID, SignOptions{
		SignerID:   "crm-12345",
		SignerName: "Dr. Teste",
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if rec.HashBefore == "" || rec.HashAfter == "" || rec.HashBefore == rec.HashAfter {
		t.Errorf("signing must produce a distinct artifact hash: before=%s after=%s", rec.HashBefore, rec.HashAfter)
	}
	if rec.Provider != "mock" || rec.SignatureData == "" || rec.CertificateSubject == "" {
		t.Errorf("incomplete record: %+v", rec)
	}

	stored, err := docs.GetByID(context.Background(), doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != documents.StatusSigned || stored.SignatureID == nil || *stored.SignatureID != rec.ID {
		t.Errorf("document must reference the signature: %+v", stored)
	}
	if _, ok := sigs.recs[rec.ID]; !ok {
		t.Error("record must be persisted")
	}
}

func TestSignDocument_NotFound(t *testing.T) {
	svc, _, _ := newTestService("mock")
	_, err := svc.SignDocument(context.Background(), uuid.New(), SignOptions{SignerName: "Dr. Teste"})
	if !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected documents.ErrNotFound, got %v", err)
	}
}

func TestSignDocument_AlreadySignedFastPath(t *testing.T) {
	svc, docs, _ := newTestService("mock")
	doc := draftDocument(t, docs)

	if _, err := svc.SignDocument(context.Background(), doc.ID, SignOptions{SignerName: "Dr. A"}); err != nil {
		t.Fatalf("first sign: %v", err)
	}
	_, err := svc.SignDocument(context.Background(), doc.ID, SignOptions{SignerName: "Dr. B"})
	if !errors.Is(err, ErrAlreadySigned) {
		t.Fatalf("expected ErrAlreadySigned, got %v", err)
	}
}

func TestSignDocument_UnknownProvider(t *testing.T) {
	svc, docs, sigs := newTestService("mock")
	doc := draftDocument(t, docs)

	_, err := svc.SignDocument(context.Background(), doc.ID, SignOptions{
		Provider:   "icp-production",
		SignerName: "Dr. Teste",
	})
	if !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}
	if len(sigs.recs) != 0 {
		t.Error("failed signing must not persist a record")
	}
}

func TestSignDocument_ProviderFailureFailsClosed(t *testing.T) {
	svc, docs, sigs := newTestService("failing")
	doc := draftDocument(t, docs)

	_, err := svc.SignDocument(context.Background(), doc.ID, SignOptions{SignerName: "Dr. Teste"})
	if !errors.Is(err, ErrProviderFailed) {
		t.Fatalf("expected ErrProviderFailed, got %v", err)
	}
	if len(sigs.recs) != 0 {
		t.Error("failed signing must not persist a record")
	}
	stored, _ := docs.GetByID(context.Background(), doc.ID)
	if stored.Status != documents.StatusDraft || stored.SignatureID != nil {
		t.Error("failed signing must leave the document unsigned")
	}
}

func TestSignDocument_LostClaimCompensates(t *testing.T) {
	svc, docs, sigs := newTestService("mock")
	doc := draftDocument(t, docs)
	docs.claimDenied = true

	_, err := svc.SignDocument(context.Background(), doc.ID, SignOptions{SignerName: "Dr. Teste"})
	if !errors.Is(err, ErrAlreadySigned) {
		t.Fatalf("expected ErrAlreadySigned on lost claim, got %v", err)
	}
	if len(sigs.recs) != 0 {
		t.Error("record from a lost claim must be removed")
	}
}

func TestSignDocument_HashBindsRenderedArtifact(t *testing.T) {
	svc, docs, _ := newTestService("mock")
	doc := draftDocument(t, docs)

	rec, err := svc.SignDocument(context.Background(), doc.ID, SignOptions{SignerName: "Dr. Teste"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	artifact, err := NewJSONRenderer().Render(doc)
	if err != nil {
		t.Fatal(err)
	}
	if rec.HashBefore != ContentHash(artifact) {
		t.Errorf("hash_before %s does not bind the rendered artifact hash %s", rec.HashBefore, ContentHash(artifact))
	}
}

func TestSignDocument_CompensationFailureLogged(t *testing.T) {
	docs := newMemDocRepo()
	sigs := newMemSigRepo()
	registry := NewRegistry("mock")
	registry.Register(NewMockProvider([]byte("test-key"), 0))

	var buf bytes.Buffer
	svc := NewService(docs, sigs, registry, NewJSONRenderer(), audit.NewLogger(zerolog.New(&buf)))

	doc := draftDocument(t, docs)
	docs.claimDenied = true
	sigs.deleteErr = errors.New("connection reset")

	_, err := svc.SignDocument(context.Background(), doc.ID, SignOptions{SignerName: "Dr. Teste"})
	if !errors.Is(err, ErrAlreadySigned) {
		t.Fatalf("expected ErrAlreadySigned, got %v", err)
	}
	if !strings.Contains(buf.String(), "signature_compensation_failed") {
		t.Error("failed compensation must be logged")
	}
	if len(sigs.recs) != 1 {
		t.Error("orphaned record remains when the compensating delete fails")
	}
}

func TestSandboxProvider_FailsLoudly(t *testing.T) {
	svc, docs, _ := newTestService("mock")
	doc := draftDocument(t, docs)

	registry := NewRegistry("sandbox")
	registry.Register(NewSandboxProvider("https://sandbox.example"))
	svc.registry = registry

	_, err := svc.SignDocument(context.Background(), doc.ID, SignOptions{SignerName: "Dr. Teste"})
	if !errors.Is(err, ErrProviderFailed) {
		t.Fatalf("sandbox must fail signing, got %v", err)
	}
}

func TestVerify_HappyPath(t *testing.T) {
	svc, docs, sigs := newTestService("mock")
	doc := draftDocument(t, docs)

	rec, err := svc.SignDocument(context.Background(), doc.ID, SignOptions{SignerName: "Dr. Teste"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	outcome := svc.Verify(context.Background(), rec.ID)
	if !outcome.Verified || outcome.Status != VerificationValid {
		t.Fatalf("expected valid outcome, got %+v", outcome)
	}

	stored := sigs.recs[rec.ID]
	if stored.VerifiedAt == nil || stored.VerificationStatus == nil || *stored.VerificationStatus != "valid" {
		t.Error("verification outcome must be persisted on the record as \"valid\"")
	}
}

func TestVerify_TamperedSignatureInvalid(t *testing.T) {
	svc, docs, sigs := newTestService("mock")
	doc := draftDocument(t, docs)

	rec, err := svc.SignDocument(context.Background(), doc.ID, SignOptions{SignerName: "Dr. Teste"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sigs.recs[rec.ID].SignatureData = "deadbeef"

	outcome := svc.Verify(context.Background(), rec.ID)
	if outcome.Verified || outcome.Status != VerificationInvalid {
		t.Fatalf("tampered signature must be invalid, got %+v", outcome)
	}
	if outcome.Reason == "" {
		t.Error("invalid outcome must carry a reason")
	}

	stored := sigs.recs[rec.ID]
	if stored.VerifiedAt == nil || *stored.VerificationStatus != VerificationInvalid {
		t.Error("failed verification must still be persisted")
	}
}

func TestVerify_ProviderErrorInvalidNotError(t *testing.T) {
	svc, docs, sigs := newTestService("mock")
	doc := draftDocument(t, docs)

	rec, err := svc.SignDocument(context.Background(), doc.ID, SignOptions{SignerName: "Dr. Teste"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sigs.recs[rec.ID].Provider = "failing"

	outcome := svc.Verify(context.Background(), rec.ID)
	if outcome.Verified {
		t.Fatal("infrastructure failure must report invalid")
	}
}

func TestVerify_UnknownProviderInvalid(t *testing.T) {
	svc, docs, sigs := newTestService("mock")
	doc := draftDocument(t, docs)

	rec, err := svc.SignDocument(context.Background(), doc.ID, SignOptions{SignerName: "Dr. Teste"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sigs.recs[rec.ID].Provider = "retired-provider"

	outcome := svc.Verify(context.Background(), rec.ID)
	if outcome.Verified || outcome.Reason == "" {
		t.Fatalf("unknown provider must yield invalid with a reason, got %+v", outcome)
	}
}

func TestVerify_MissingRecordInvalidNotError(t *testing.T) {
	svc, _, _ := newTestService("mock")

	outcome := svc.Verify(context.Background(), uuid.New())
	if outcome.Verified || outcome.Status != VerificationInvalid {
		t.Fatalf("missing record must yield an invalid outcome, got %+v", outcome)
	}
	if outcome.Reason != "signature not found" {
		t.Fatalf("reason = %q, want \"signature not found\"", outcome.Reason)
	}
}

func TestMockProvider_Deterministic(t *testing.T) {
	p := NewMockProvider([]byte("k"), 0)
	req := SignRequest{DocumentID: "d", Artifact: []byte("artifact"), Hash: "abcdef1234567890", SignerName: "Dr. Teste"}

	a, err := p.Sign(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Sign(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if a.SignatureData != b.SignatureData || a.HashAfter != b.HashAfter {
		t.Error("mock signatures must be deterministic for equal input")
	}
	if a.HashAfter == req.Hash {
		t.Error("signed artifact hash must differ from the input hash")
	}
}

func TestRegistry_ResolveDefaultAndUnknown(t *testing.T) {
	registry := NewRegistry("mock")
	registry.Register(NewMockProvider([]byte("k"), 0))

	p, err := registry.Resolve("")
	if err != nil || p.Name() != "mock" {
		t.Fatalf("empty name must resolve the default, got %v, %v", p, err)
	}
	if _, err := registry.Resolve("nope"); !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}
}
