package prescription

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/RaulNascimentoSantos/REPOMED-IA-sub002/internal/platform/audit"
	"github.com/RaulNascimentoSantos/REPOMED-IA-sub002/internal/platform/featureflag"
)

// Feature flags consumed by the engine.
const (
	FlagClinicalValidator = "clinical_validator"
	FlagInteractionRemote = "interaction_remote_check"
)

const validatorVersion = "1.0.0"

// onlyDigitsThenMG captures the first integer immediately followed by "mg".
// Ranges, mcg, and per-kg dosing do not match and are treated as
// non-exceeding; this under-detects risk for non-mg units.
var onlyDigitsThenMG = regexp.MustCompile(`(?i)(\d+)mg`)

// Engine runs the prescription safety check suite.
//
// The engine is fail-open by design: an unavailable validator must not
// itself block care, so every internal failure degrades to a skipped,
// assume-valid result flagged for manual review. This is the opposite of
// the signing pipeline, which fails closed. Do not unify the two.
type Engine struct {
	gate   *featureflag.Gate
	ref    ReferenceSource
	remote InteractionChecker
	aud    *audit.Logger
}

// NewEngine constructs the engine. remote may be nil when no interaction
// service is configured; the local table is used directly in that case.
func NewEngine(gate *featureflag.Gate, ref ReferenceSource, remote InteractionChecker, aud *audit.Logger) *Engine {
	return &Engine{gate: gate, ref: ref, remote: remote, aud: aud}
}

// Validate runs the full check suite and never returns an error or panics
// to its caller.
func (e *Engine) Validate(ctx context.Context, p *Prescription, rc *RequestContext) (result *ValidationResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			e.aud.Error("prescription_validation_failed", fmt.Errorf("validator panic: %v", r), map[string]interface{}{
				"tenant_id": rc.TenantID,
				"user_id":   rc.UserID,
			})
			result = &ValidationResult{
				Valid:    true,
				Skipped:  true,
				Issues:   []ValidationIssue{},
				Warnings: []ValidationIssue{},
				Error:    fmt.Sprintf("%v", r),
				Message:  "validação indisponível, revisar manualmente",
				Metadata: e.metadata(start, rc, nil),
			}
		}
	}()

	if !e.gate.IsEnabled(FlagClinicalValidator, rc.TenantID, featureflag.Options{}) {
		e.aud.MedicalEvent("prescription_validation_skipped", map[string]interface{}{
			"tenant_id": rc.TenantID,
			"user_id":   rc.UserID,
			"reason":    "feature_disabled",
		})
		return &ValidationResult{
			Valid:    true,
			Skipped:  true,
			Issues:   []ValidationIssue{},
			Warnings: []ValidationIssue{},
			Metadata: e.metadata(start, rc, nil),
		}
	}

	issues := []ValidationIssue{}
	warnings := []ValidationIssue{}

	// Allergy cross-reference runs unconditionally and independently of
	// every other check; matches always block.
	issues = append(issues, e.checkAllergies(p, rc)...)

	interactionIssues, interactionWarnings, sources := e.checkInteractions(ctx, p, rc)
	issues = append(issues, interactionIssues...)
	warnings = append(warnings, interactionWarnings...)

	doseIssues, doseWarnings := e.checkDosages(p)
	issues = append(issues, doseIssues...)
	warnings = append(warnings, doseWarnings...)

	if w, ok := e.checkControlled(p); ok {
		warnings = append(warnings, w)
	}

	result = &ValidationResult{
		Valid:    true,
		Issues:   issues,
		Warnings: warnings,
		Metadata: e.metadata(start, rc, sources),
	}
	for _, issue := range issues {
		if issue.Action == ActionBlock {
			result.Valid = false
		}
		if issue.Action == ActionRequireConfirmation {
			result.RequiresConfirmation = true
		}
	}

	e.aud.MedicalEvent("prescription_validated", map[string]interface{}{
		"tenant_id":             rc.TenantID,
		"user_id":               rc.UserID,
		"patient_ref":           rc.Patient.ID,
		"item_count":            len(p.Medications),
		"issue_count":           len(issues),
		"warning_count":         len(warnings),
		"valid":                 result.Valid,
		"requires_confirmation": result.RequiresConfirmation,
		"duration_ms":           time.Since(start).Milliseconds(),
	})

	return result
}

func (e *Engine) metadata(start time.Time, rc *RequestContext, sources []string) ValidationMetadata {
	if sources == nil {
		sources = []string{e.ref.Version()}
	}
	return ValidationMetadata{
		ValidatedAt:      start.UTC(),
		ValidationTimeMS: time.Since(start).Milliseconds(),
		ValidatorVersion: validatorVersion,
		Sources:          sources,
		TenantID:         rc.TenantID,
	}
}

// checkAllergies cross-references each medication against each declared
// allergy: first through the synonym table (bidirectional case-insensitive
// substring containment on both sides), then a lower-confidence direct
// name match.
func (e *Engine) checkAllergies(p *Prescription, rc *RequestContext) []ValidationIssue {
	var issues []ValidationIssue
	for _, med := range p.Medications {
		medName := normalize(med.Name)
		if medName == "" {
			continue
		}
		for _, allergy := range rc.Patient.Allergies {
			allergyText := normalize(allergy)
			if allergyText == "" {
				continue
			}
			if group, ok := matchAllergenGroup(e.ref.AllergenGroups(), medName, allergyText); ok {
				issues = append(issues, ValidationIssue{
					Type:     "allergy",
					Severity: SeverityCritical,
					Message:  fmt.Sprintf("%s pertence ao grupo %s, ao qual o paciente declara alergia", med.Name, group.Substance),
					Action:   ActionBlock,
					Code:     CodeAllergyConflict,
				})
				continue
			}
			if containsEither(medName, allergyText) {
				issues = append(issues, ValidationIssue{
					Type:     "allergy",
					Severity: SeverityCritical,
					Message:  fmt.Sprintf("%s coincide com alergia declarada %q", med.Name, allergy),
					Action:   ActionBlock,
					Code:     CodeAllergyNameMatch,
				})
			}
		}
	}
	return issues
}

func matchAllergenGroup(groups []AllergenGroup, medName, allergyText string) (AllergenGroup, bool) {
	for _, group := range groups {
		medHit := false
		for _, trigger := range group.Triggers {
			if containsEither(medName, normalize(trigger)) {
				medHit = true
				break
			}
		}
		if !medHit {
			continue
		}
		if containsEither(allergyText, group.Substance) {
			return group, true
		}
		for _, trigger := range group.Triggers {
			if containsEither(allergyText, normalize(trigger)) {
				return group, true
			}
		}
	}
	return AllergenGroup{}, false
}

// checkInteractions prefers the remote service when the secondary flag
// selects it; any remote failure falls back to the local table and is
// never allowed to abort validation.
func (e *Engine) checkInteractions(ctx context.Context, p *Prescription, rc *RequestContext) (issues, warnings []ValidationIssue, sources []string) {
	names := make([]string, 0, len(p.Medications))
	for _, m := range p.Medications {
		names = append(names, m.Name)
	}

	sources = []string{e.ref.Version()}
	var findings []InteractionFinding

	useRemote := e.remote != nil &&
		e.gate.IsEnabled(FlagInteractionRemote, rc.TenantID, featureflag.Options{})
	if useRemote {
		remote, err := e.remote.Check(ctx, names)
		if err != nil {
			e.aud.Error("interaction_remote_failed", err, map[string]interface{}{
				"tenant_id": rc.TenantID,
			})
			findings = localInteractions(e.ref, names)
		} else {
			findings = remote
			sources = append(sources, "interaction_service")
		}
	} else {
		findings = localInteractions(e.ref, names)
	}

	for _, f := range findings {
		if f.Severity == InteractionContraindicated {
			issues = append(issues, ValidationIssue{
				Type:     "interaction",
				Severity: SeverityCritical,
				Message:  fmt.Sprintf("%s + %s: %s (contraindicado)", f.DrugA, f.DrugB, f.Effect),
				Action:   ActionRequireConfirmation,
				Code:     CodeInteractionCritical,
			})
			continue
		}
		warnings = append(warnings, ValidationIssue{
			Type:     "interaction",
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("%s + %s: %s (%s)", f.DrugA, f.DrugB, f.Effect, f.Severity),
			Action:   ActionWarn,
			Code:     CodeInteraction,
		})
	}
	return issues, warnings, sources
}

// checkDosages compares the parsed dose against the reference maximum.
// Unparsable dosage text is treated as not exceeding, not as an error.
func (e *Engine) checkDosages(p *Prescription) (issues, warnings []ValidationIssue) {
	for _, med := range p.Medications {
		max, ok := e.ref.MaxDailyDoseMG(med.Name)
		if !ok {
			continue
		}
		dose, ok := parseDoseMG(med.Dosage)
		if !ok {
			continue
		}
		ratio := dose / max
		switch {
		case ratio > 2.0:
			issues = append(issues, ValidationIssue{
				Type:     "dosage",
				Severity: SeverityCritical,
				Message:  fmt.Sprintf("%s: dose %.0fmg excede em %.1fx o máximo de referência (%.0fmg)", med.Name, dose, ratio, max),
				Action:   ActionRequireConfirmation,
				Code:     CodeDoseExceedsMax,
			})
		case ratio > 1.2:
			warnings = append(warnings, ValidationIssue{
				Type:     "dosage",
				Severity: SeverityMedium,
				Message:  fmt.Sprintf("%s: dose %.0fmg acima do máximo de referência (%.0fmg)", med.Name, dose, max),
				Action:   ActionWarn,
				Code:     CodeDoseAboveUsual,
			})
		}
	}
	return issues, warnings
}

// checkControlled emits a single combined warning listing every matched
// controlled substance. Never blocking.
func (e *Engine) checkControlled(p *Prescription) (ValidationIssue, bool) {
	var matched []string
	for _, med := range p.Medications {
		name := normalize(med.Name)
		for _, substance := range e.ref.ControlledSubstances() {
			if containsEither(name, normalize(substance)) {
				matched = append(matched, med.Name)
				break
			}
		}
	}
	if len(matched) == 0 {
		return ValidationIssue{}, false
	}
	return ValidationIssue{
		Type:     "controlled_substance",
		Severity: SeverityMedium,
		Message:  fmt.Sprintf("substâncias controladas na prescrição: %s", strings.Join(matched, ", ")),
		Action:   ActionWarn,
		Code:     CodeControlledSubstance,
	}, true
}

func parseDoseMG(dosage string) (float64, bool) {
	m := onlyDigitsThenMG.FindStringSubmatch(dosage)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// containsEither reports bidirectional substring containment.
func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
