package documents

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Document statuses. A signed document is immutable; the transition to
// StatusSigned happens exactly once, guarded by the conditional update in
// the repository.
const (
	StatusDraft  = "draft"
	StatusSigned = "signed"
)

// Document is a medical document (prescription, certificate, report).
// Content, Fields, and Patient are free-form JSONB payloads; the service
// never interprets them beyond hashing.
type Document struct {
	ID          uuid.UUID              `json:"id"`
	Title       string                 `json:"title"`
	Content     map[string]interface{} `json:"content"`
	Fields      map[string]interface{} `json:"fields"`
	Patient     map[string]interface{} `json:"patient"`
	Status      string                 `json:"status"`
	SignatureID *uuid.UUID             `json:"signature_id,omitempty"`
	Hash        string                 `json:"hash"`
	TenantID    string                 `json:"tenant_id"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// ComputeHash returns the hex SHA-256 of the document's canonical JSON
// form. encoding/json sorts map keys, so the serialization is stable for
// equal content regardless of insertion order.
func (d *Document) ComputeHash() (string, error) {
	canonical, err := json.Marshal(struct {
		Title   string                 `json:"title"`
		Content map[string]interface{} `json:"content"`
		Fields  map[string]interface{} `json:"fields"`
		Patient map[string]interface{} `json:"patient"`
	}{d.Title, d.Content, d.Fields, d.Patient})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
