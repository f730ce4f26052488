package signature

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// MockProvider produces deterministic HMAC-based signatures for
// development and testing. Signatures are real in the sense that Verify
// can later check them against the recorded hashes; only the certificate
// chain is fabricated.
type MockProvider struct {
	key     []byte
	latency time.Duration
}

// NewMockProvider builds a mock backend keyed with the given secret.
// latency simulates provider round-trip time; pass 0 for tests.
func NewMockProvider(key []byte, latency time.Duration) *MockProvider {
	return &MockProvider{key: key, latency: latency}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Sign(ctx context.Context, req SignRequest) (*ProviderSignature, error) {
	if len(req.Artifact) == 0 || req.Hash == "" {
		return nil, fmt.Errorf("nothing to sign")
	}
	if m.latency > 0 {
		select {
		case <-time.After(m.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	sig := m.mac(req.Hash)
	return &ProviderSignature{
		SignatureData:      sig,
		HashAfter:          hashAfter(req.Hash, sig),
		CertificateSerial:  "MOCK-" + req.Hash[:12],
		CertificateSubject: "CN=" + req.SignerName + ", O=RepoMed Mock CA",
		CertificateIssuer:  "CN=RepoMed Mock CA, O=RepoMed",
		Format:             "CAdES",
		Level:              "AD-RB",
	}, nil
}

func (m *MockProvider) Verify(ctx context.Context, rec *SignatureRecord) (bool, error) {
	expected := m.mac(rec.HashBefore)
	if !hmac.Equal([]byte(expected), []byte(rec.SignatureData)) {
		return false, nil
	}
	return rec.HashAfter == hashAfter(rec.HashBefore, rec.SignatureData), nil
}

func (m *MockProvider) mac(hash string) string {
	h := hmac.New(sha256.New, m.key)
	h.Write([]byte(hash))
	return hex.EncodeToString(h.Sum(nil))
}

// hashAfter derives the signed-artifact hash. Embedding the signature
// guarantees it differs from the pre-signing hash.
func hashAfter(hashBefore, signatureData string) string {
	sum := sha256.Sum256([]byte(hashBefore + ":" + signatureData))
	return hex.EncodeToString(sum[:])
}
