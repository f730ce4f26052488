package prescription

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newValidateContext(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/prescriptions/validate", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("jwt_tenant_id", "clinic-1")
	return c, rec
}

func TestHandlerValidate_ReturnsResult(t *testing.T) {
	h := NewHandler(newTestEngine(allOn(), nil))
	e := echo.New()

	body := `{
		"medications": [
			{"name": "Varfarina", "dosage": "5mg", "frequency": "1x/dia"},
			{"name": "AAS", "dosage": "100mg", "frequency": "1x/dia"}
		],
		"patient": {"id": "pat-1", "allergies": []}
	}`
	c, rec := newValidateContext(e, body)

	if err := h.Validate(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var result ValidationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !result.Valid {
		t.Error("interaction-only prescription must be valid")
	}
	if len(result.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %d", len(result.Warnings))
	}
}

func TestHandlerValidate_BlockedPrescription(t *testing.T) {
	h := NewHandler(newTestEngine(allOn(), nil))
	e := echo.New()

	body := `{
		"medications": [{"name": "Amoxicilina", "dosage": "500mg"}],
		"patient": {"id": "pat-1", "allergies": ["penicilina"]}
	}`
	c, rec := newValidateContext(e, body)

	if err := h.Validate(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result ValidationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Valid {
		t.Error("allergy conflict must report valid=false")
	}
}

func TestHandlerValidate_EmptyMedicationsRejected(t *testing.T) {
	h := NewHandler(newTestEngine(allOn(), nil))
	e := echo.New()

	c, _ := newValidateContext(e, `{"medications": [], "patient": {"id": "pat-1"}}`)

	err := h.Validate(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
