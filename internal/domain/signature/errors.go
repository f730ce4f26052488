package signature

import "errors"

var (
	ErrNotFound = errors.New("signature not found")
	// ErrAlreadySigned enforces the one-signature-per-document rule. It is
	// returned both by the fast path check and when the storage-level claim
	// loses a race.
	ErrAlreadySigned    = errors.New("document already signed")
	ErrProviderNotFound = errors.New("signature provider not found")
	// ErrProviderFailed wraps any provider error. Signing fails closed: no
	// record is left behind when the provider cannot produce a signature.
	ErrProviderFailed = errors.New("signature provider failed")
)
