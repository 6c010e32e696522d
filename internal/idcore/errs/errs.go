// Package errs defines the single error taxonomy shared by every idcore
// package. Errors are values, never panics, and never embed secret
// material — only a code and a short diagnostic string.
package errs

import "fmt"

// Code is one of the closed set of failure modes a caller can branch on.
type Code string

const (
	InvalidKey              Code = "invalid_key"
	SignatureInvalid        Code = "signature_invalid"
	NotFound                Code = "not_found"
	DerivationFailed        Code = "derivation_failed"
	EncryptionFailed        Code = "encryption_failed"
	DecryptionFailed        Code = "decryption_failed"
	InvalidPassphrase       Code = "invalid_passphrase"
	TrustNotGranted         Code = "trust_not_granted"
	TrustRevoked            Code = "trust_revoked"
	TrustExpired            Code = "trust_expired"
	TrustNotYetValid        Code = "trust_not_yet_valid"
	MaxUsesExceeded         Code = "max_uses_exceeded"
	DelegationNotAllowed    Code = "delegation_not_allowed"
	DelegationDepthExceeded Code = "delegation_depth_exceeded"
	InvalidChain            Code = "invalid_chain"
	StorageError            Code = "storage_error"
	SerializationError      Code = "serialization_error"
	InvalidFileFormat       Code = "invalid_file_format"
	Io                      Code = "io"
)

// Error is the concrete error type returned across idcore. It carries a
// Code callers can switch on plus a short human-readable Msg, and may wrap
// an underlying cause for %w unwrapping — the cause itself must never hold
// secret bytes.
type Error struct {
	Code  Code
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error with no wrapped cause.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Wrap builds an Error that wraps cause. cause's own Error() text is
// included, so callers must not pass a cause whose text embeds secrets.
func Wrap(code Code, msg string, cause error) *Error {
	return &Error{Code: code, Msg: msg, Cause: cause}
}

// Is reports whether err is an *Error with the given code, so callers can
// write `errs.Is(err, errs.TrustExpired)` instead of a type switch.
func Is(err error, code Code) bool {
	e, ok := err.(*Error)
	return ok && e.Code == code
}
