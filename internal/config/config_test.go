package config

import "testing"

func TestValidate_ProductionRequiresSigningKey(t *testing.T) {
	cfg := &Config{Env: "production"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing AUTH_SIGNING_KEY in production")
	}

	cfg.AuthSigningKey = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_RolloutBounds(t *testing.T) {
	cfg := &Config{Env: "development", ValidatorRollout: 1.5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for rollout > 1")
	}

	cfg.ValidatorRollout = 0.5
	cfg.InteractionRemoteRollout = -0.1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative rollout")
	}

	cfg.InteractionRemoteRollout = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_InteractionServiceURL(t *testing.T) {
	cfg := &Config{Env: "development", InteractionServiceURL: "://bad"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for malformed INTERACTION_SERVICE_URL")
	}

	cfg.InteractionServiceURL = "https://interactions.example.com/check"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIsDev(t *testing.T) {
	cfg := &Config{Env: "development"}
	if !cfg.IsDev() {
		t.Error("expected IsDev to be true")
	}
	if cfg.IsProduction() {
		t.Error("expected IsProduction to be false")
	}
}
