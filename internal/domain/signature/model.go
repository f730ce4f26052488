package signature

import (
	"time"

	"github.com/google/uuid"
)

// Verification statuses persisted on a record after a verify call.
const (
	VerificationValid   = "valid"
	VerificationInvalid = "invalid"
)

// SignatureRecord is the persisted outcome of one successful signing
// operation. HashBefore binds the signature to the document content that
// was reviewed; HashAfter identifies the signed artifact.
type SignatureRecord struct {
	ID                 uuid.UUID  `json:"id"`
	DocumentID         uuid.UUID  `json:"document_id"`
	SignerID           string     `json:"signer_id"`
	SignerName         string     `json:"signer_name"`
	HashBefore         string     `json:"hash_before"`
	HashAfter          string     `json:"hash_after"`
	SignatureData      string     `json:"signature_data"`
	CertificateSerial  string     `json:"certificate_serial"`
	CertificateSubject string     `json:"certificate_subject"`
	CertificateIssuer  string     `json:"certificate_issuer"`
	SignatureFormat    string     `json:"signature_format"`
	SignatureLevel     string     `json:"signature_level"`
	Provider           string     `json:"provider"`
	ClientIP           string     `json:"client_ip,omitempty"`
	UserAgent          string     `json:"user_agent,omitempty"`
	Location           string     `json:"location,omitempty"`
	TenantID           string     `json:"tenant_id"`
	SignedAt           time.Time  `json:"signed_at"`
	VerifiedAt         *time.Time `json:"verified_at,omitempty"`
	VerificationStatus *string    `json:"verification_status,omitempty"`
}

// SignOptions carries the caller-supplied parameters of a signing request.
// Provider selects a registered provider by name; empty means the default.
type SignOptions struct {
	Provider   string `json:"provider,omitempty"`
	SignerID   string `json:"signer_id"`
	SignerName string `json:"signer_name"`
	ClientIP   string `json:"-"`
	UserAgent  string `json:"-"`
	Location   string `json:"location,omitempty"`
	TenantID   string `json:"-"`
}

// VerifyOutcome is the result of a verification call. Verified is false
// for any failure, including infrastructure errors; the distinction lives
// in Reason.
type VerifyOutcome struct {
	Verified   bool             `json:"verified"`
	Status     string           `json:"status"`
	Reason     string           `json:"reason,omitempty"`
	VerifiedAt time.Time        `json:"verified_at"`
	Record     *SignatureRecord `json:"record,omitempty"`
}
