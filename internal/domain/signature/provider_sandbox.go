package signature

import (
	"context"
	"fmt"
)

// SandboxProvider is the placeholder for a certificate authority sandbox
// integration. It fails loudly on every call rather than silently signing
// with fake credentials, so a misconfigured environment cannot produce
// documents that look production-signed.
type SandboxProvider struct {
	baseURL string
}

func NewSandboxProvider(baseURL string) *SandboxProvider {
	return &SandboxProvider{baseURL: baseURL}
}

func (s *SandboxProvider) Name() string { return "sandbox" }

func (s *SandboxProvider) Sign(ctx context.Context, req SignRequest) (*ProviderSignature, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("sandbox provider: no endpoint configured")
	}
	// TODO: wire the ICP-Brasil sandbox API once credentials are issued.
	return nil, fmt.Errorf("sandbox provider: integration with %s not available", s.baseURL)
}

func (s *SandboxProvider) Verify(ctx context.Context, rec *SignatureRecord) (bool, error) {
	return false, fmt.Errorf("sandbox provider: verification not available")
}
