// Package errors defines the error vocabulary shared by KEMBridge's crypto,
// key-management, swap, and auth packages. Errors carry enough structure for
// a caller (or an HTTP gateway) to decide what to do without parsing strings,
// while never leaking secret material in a message.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for dispatch by callers that don't care about the
// underlying cause, only the category of failure. Kind values are stable and
// map 1:1 onto the outer surface's HTTP status choices.
type Kind string

const (
	// InvalidInput means a request was malformed or failed validation before
	// any state-changing work began.
	InvalidInput Kind = "invalid_input"

	// Unauthorized means signature verification, nonce validation, or JWT
	// validation failed.
	Unauthorized Kind = "unauthorized"

	// IntegrityFailed means an HMAC or AEAD authentication check failed.
	IntegrityFailed Kind = "integrity_failed"

	// NotFound means a referenced key pair, nonce, session, or swap does not
	// exist.
	NotFound Kind = "not_found"

	// Conflict means an operation could not proceed because of the current
	// state of the resource (e.g. a duplicate active key, a stale FSM
	// transition).
	Conflict Kind = "conflict"

	// AdapterTimeout means a chain adapter call did not complete within its
	// deadline and the underlying chain state is unknown.
	AdapterTimeout Kind = "adapter_timeout"

	// AdapterPermanent means a chain adapter call failed in a way known not
	// to be retryable.
	AdapterPermanent Kind = "adapter_permanent"

	// Internal means an unexpected failure not attributable to caller input
	// or adapter behavior.
	Internal Kind = "internal"

	// RateLimited means the caller exceeded a nonce-issuance or
	// swap-initiation rate limit.
	RateLimited Kind = "rate_limited"
)

// Error is a classified error: a Kind plus an operation label and an
// optional wrapped cause. Callers should switch on Kind, not on the message.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified Error with no wrapped cause.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// Wrap creates a classified Error wrapping an underlying cause.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind of err, or Internal if err does not carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Sentinel errors for PQ primitives (C1)
var (
	ErrInvalidKeySize         = errors.New("qcrypto: invalid key size")
	ErrInvalidCiphertext      = errors.New("qcrypto: invalid ciphertext")
	ErrDecapsulationFailed    = errors.New("qcrypto: decapsulation failed")
	ErrKeyGenerationFailed    = errors.New("qcrypto: key generation failed")
	ErrEncapsulationFailed    = errors.New("qcrypto: encapsulation failed")
	ErrInvalidPublicKey       = errors.New("qcrypto: invalid public key")
	ErrInvalidPrivateKey      = errors.New("qcrypto: invalid private key")
	ErrAuthenticationFailed   = errors.New("qcrypto: aead authentication failed")
	ErrInvalidNonce           = errors.New("qcrypto: invalid nonce size")
	ErrCiphertextTooShort     = errors.New("qcrypto: ciphertext too short")
	ErrMACMismatch            = errors.New("qcrypto: hmac verification failed")
	ErrUnsupportedCipherSuite = errors.New("qcrypto: unsupported cipher suite")
)

// Sentinel errors for the hybrid envelope (C2)
var (
	ErrEnvelopeMalformed       = errors.New("envelope: malformed wire encoding")
	ErrEnvelopeVersionMismatch = errors.New("envelope: unsupported version")
	ErrContextLabelTooLong     = errors.New("envelope: context label exceeds maximum size")
	ErrContextMismatch         = errors.New("envelope: context label mismatch on open")
)

// Sentinel errors for key management (C3)
var (
	ErrKeyNotFound       = errors.New("keymanager: key pair not found")
	ErrKeyCompromised    = errors.New("keymanager: key pair is flagged compromised")
	ErrDuplicateActiveKey = errors.New("keymanager: an active key already exists for this owner and usage category")
	ErrMasterKeyMissing  = errors.New("keymanager: process master key is not configured")
	ErrKeyUnwrapFailed   = errors.New("keymanager: private key unwrap failed")
)

// Sentinel errors for the swap coordinator (C4)
var (
	ErrSwapNotFound        = errors.New("swap: operation not found")
	ErrInvalidTransition   = errors.New("swap: invalid state transition")
	ErrSwapAlreadyClaimed  = errors.New("swap: transition already claimed by another worker")
	ErrSwapExpired         = errors.New("swap: operation exceeded its timeout")
	ErrAdapterUnavailable  = errors.New("swap: chain adapter unavailable")
)

// ErrRateLimited is shared by any caller-identity-keyed rate limit (swap
// initiation, nonce issuance) rather than duplicated per subsystem.
var ErrRateLimited = errors.New("rate limit exceeded")

// Sentinel errors for auth/nonce (C5)
var (
	ErrNonceNotFound     = errors.New("auth: nonce not found or already consumed")
	ErrNonceExpired      = errors.New("auth: nonce expired")
	ErrSignatureInvalid  = errors.New("auth: signature verification failed")
	ErrTokenInvalid      = errors.New("auth: token invalid or expired")
	ErrUnsupportedChain  = errors.New("auth: unsupported chain type")
)

// CryptoError wraps a cryptographic error with an operation label, kept for
// compatibility with call sites that want an unclassified wrapper.
type CryptoError struct {
	Op  string
	Err error
}

func (e *CryptoError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *CryptoError) Unwrap() error { return e.Err }

// NewCryptoError creates a new CryptoError.
func NewCryptoError(op string, err error) *CryptoError {
	return &CryptoError{Op: op, Err: err}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
