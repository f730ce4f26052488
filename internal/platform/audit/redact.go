// Package audit is the structured audit sink. Every event helper runs its
// payload through field-level redaction before emission, so callers cannot
// leak protected health information by passing raw objects.
package audit

import "strings"

// RedactionMarker replaces the value of any denied field.
const RedactionMarker = "[REDACTED]"

// deniedFragments is the deny-list of field-name fragments. A key is
// redacted when its lowercased name contains any fragment. The list covers
// credentials, personal identifiers, clinical content, and contact info.
var deniedFragments = []string{
	// credentials
	"password", "secret", "token", "credential", "certificate_key", "pin",
	// identifiers
	"cpf", "rg", "ssn", "passport", "mrn", "birth",
	// clinical content
	"medication", "allerg", "diagnos", "prescription", "dosage", "symptom",
	"patient_name", "clinical",
	// contact info
	"email", "phone", "telefone", "address", "endereco", "contact",
}

// IsDenied reports whether a field name matches the deny-list.
func IsDenied(field string) bool {
	lower := strings.ToLower(field)
	for _, fragment := range deniedFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// Redact walks an arbitrary object graph of maps and slices, replacing the
// value of every denied key with the redaction marker. The input is not
// mutated; a redacted copy is returned.
func Redact(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			if IsDenied(k) {
				out[k] = RedactionMarker
				continue
			}
			out[k] = Redact(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, inner := range v {
			out[i] = Redact(inner)
		}
		return out
	default:
		return value
	}
}
