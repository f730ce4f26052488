package prescription

import "time"

// Medication is one prescribed item. Dosage is free text as typed by the
// prescriber (e.g. "500mg", "1 comprimido").
type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration,omitempty"`
}

// Prescription is the validation input. It is ephemeral: the engine never
// persists it.
type Prescription struct {
	PatientID   string       `json:"patient_id,omitempty"`
	Medications []Medication `json:"medications"`
}

// PatientInfo carries the declared allergy list used by the allergy
// cross-reference.
type PatientInfo struct {
	ID        string   `json:"id"`
	Allergies []string `json:"allergies"`
}

// RequestContext scopes one validation call.
type RequestContext struct {
	TenantID string      `json:"tenant_id"`
	UserID   string      `json:"user_id"`
	Patient  PatientInfo `json:"patient"`
}

// Issue severities.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
)

// Issue actions. The issues/warnings split in a result is driven by the
// mapped action, not by raw severity.
const (
	ActionBlock               = "block"
	ActionRequireConfirmation = "require_confirmation"
	ActionWarn                = "warn"
)

// Issue codes.
const (
	CodeAllergyConflict     = "ALLERGY_CONFLICT"
	CodeAllergyNameMatch    = "ALLERGY_NAME_MATCH"
	CodeInteraction         = "DRUG_INTERACTION"
	CodeInteractionCritical = "DRUG_INTERACTION_CONTRAINDICATED"
	CodeDoseExceedsMax      = "DOSE_EXCEEDS_MAX"
	CodeDoseAboveUsual      = "DOSE_ABOVE_USUAL"
	CodeControlledSubstance = "CONTROLLED_SUBSTANCE"
	CodeValidatorError      = "VALIDATOR_INTERNAL_ERROR"
)

// ValidationIssue is one classified finding.
type ValidationIssue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Action   string `json:"action"`
	Code     string `json:"code"`
}

// ValidationMetadata describes one engine run.
type ValidationMetadata struct {
	ValidatedAt      time.Time `json:"validated_at"`
	ValidationTimeMS int64     `json:"validation_time_ms"`
	ValidatorVersion string    `json:"validator_version"`
	Sources          []string  `json:"sources"`
	TenantID         string    `json:"tenant_id"`
}

// ValidationResult is the engine output. Invariants: any issue with
// action=block forces Valid=false; RequiresConfirmation is true exactly
// when some issue carries action=require_confirmation.
type ValidationResult struct {
	Valid                bool               `json:"valid"`
	Skipped              bool               `json:"skipped,omitempty"`
	RequiresConfirmation bool               `json:"requires_confirmation"`
	Issues               []ValidationIssue  `json:"issues"`
	Warnings             []ValidationIssue  `json:"warnings"`
	Error                string             `json:"error,omitempty"`
	Message              string             `json:"message,omitempty"`
	Metadata             ValidationMetadata `json:"metadata"`
}
