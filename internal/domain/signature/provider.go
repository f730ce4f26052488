package signature

import (
	"context"
	"fmt"
	"sort"
)

// SignRequest is the provider input. Artifact is the canonical rendering
// of the document; Hash is its hex SHA-256.
type SignRequest struct {
	DocumentID string
	Artifact   []byte
	Hash       string
	SignerID   string
	SignerName string
}

// ProviderSignature is the provider output. HashAfter identifies the
// signed artifact when the provider produces one; providers that sign
// detached leave it empty and the orchestrator falls back to the input
// hash.
type ProviderSignature struct {
	SignatureData      string
	HashAfter          string
	CertificateSerial  string
	CertificateSubject string
	CertificateIssuer  string
	Format             string
	Level              string
}

// Provider is a digital signature backend. Implementations must be safe
// for concurrent use.
type Provider interface {
	Name() string
	Sign(ctx context.Context, req SignRequest) (*ProviderSignature, error)
	// Verify checks a previously produced signature against the recorded
	// hashes. It returns false with a nil error for a well-formed but
	// invalid signature, and an error only for infrastructure failures.
	Verify(ctx context.Context, rec *SignatureRecord) (bool, error)
}

// Registry holds the configured providers. Providers are registered
// explicitly at wiring time; there is no package-level default registry,
// so tests and binaries see exactly what they install.
type Registry struct {
	providers   map[string]Provider
	defaultName string
}

func NewRegistry(defaultName string) *Registry {
	return &Registry{providers: map[string]Provider{}, defaultName: defaultName}
}

func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Resolve returns the provider for name, or the default provider when
// name is empty.
func (r *Registry) Resolve(name string) (Provider, error) {
	if name == "" {
		name = r.defaultName
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	return p, nil
}

// Names lists the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
