package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/RaulNascimentoSantos/REPOMED-IA-sub002/internal/domain/documents"
)

// ContentHash returns the hex SHA-256 of a rendered artifact. Signature
// hashes are always computed over the bytes handed to the provider, never
// over the document row, so they stay valid for any Renderer.
func ContentHash(artifact []byte) string {
	sum := sha256.Sum256(artifact)
	return hex.EncodeToString(sum[:])
}

// Renderer produces the canonical byte artifact that providers sign.
type Renderer interface {
	Render(d *documents.Document) ([]byte, error)
}

// jsonRenderer serializes the document's signable fields as canonical
// JSON. encoding/json sorts map keys, so equal content always renders to
// identical bytes.
type jsonRenderer struct{}

func NewJSONRenderer() Renderer { return jsonRenderer{} }

func (jsonRenderer) Render(d *documents.Document) ([]byte, error) {
	return json.Marshal(struct {
		ID      string                 `json:"id"`
		Title   string                 `json:"title"`
		Content map[string]interface{} `json:"content"`
		Fields  map[string]interface{} `json:"fields"`
		Patient map[string]interface{} `json:"patient"`
	}{d.ID.String(), d.Title, d.Content, d.Fields, d.Patient})
}
