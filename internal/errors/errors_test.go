package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorKindClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"classified invalid input", New(InvalidInput, "auth.verify"), InvalidInput},
		{"classified unauthorized", Wrap(Unauthorized, "auth.verify", ErrSignatureInvalid), Unauthorized},
		{"classified conflict", Wrap(Conflict, "swap.claim", ErrSwapAlreadyClaimed), Conflict},
		{"unclassified plain error defaults to internal", errors.New("boom"), Internal},
		{"nil error defaults to internal", nil, Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorMessageFormat(t *testing.T) {
	withCause := Wrap(IntegrityFailed, "envelope.open", ErrMACMismatch)
	if !strings.Contains(withCause.Error(), "envelope.open") {
		t.Errorf("Error() missing op: %q", withCause.Error())
	}
	if !strings.Contains(withCause.Error(), string(IntegrityFailed)) {
		t.Errorf("Error() missing kind: %q", withCause.Error())
	}
	if !strings.Contains(withCause.Error(), "hmac verification failed") {
		t.Errorf("Error() missing wrapped cause: %q", withCause.Error())
	}

	noCause := New(NotFound, "keymanager.lookup")
	if !strings.Contains(noCause.Error(), "not_found") {
		t.Errorf("Error() missing kind for causeless error: %q", noCause.Error())
	}
}

func TestErrorUnwrap(t *testing.T) {
	e := Wrap(AdapterTimeout, "chainadapter.lock", ErrAdapterUnavailable)
	if !errors.Is(e, ErrAdapterUnavailable) {
		t.Error("errors.Is should see through Unwrap to the wrapped sentinel")
	}
	if e.Unwrap() != ErrAdapterUnavailable {
		t.Error("Unwrap() should return the wrapped cause")
	}
}

func TestAsExtractsError(t *testing.T) {
	wrapped := Wrap(Conflict, "keymanager.generate", ErrDuplicateActiveKey)
	var target *Error
	if !As(wrapped, &target) {
		t.Fatal("As() should extract *Error")
	}
	if target.Kind != Conflict {
		t.Errorf("extracted Kind = %q, want %q", target.Kind, Conflict)
	}
	if target.Op != "keymanager.generate" {
		t.Errorf("extracted Op = %q, want %q", target.Op, "keymanager.generate")
	}
}

func TestCryptoErrorWrapping(t *testing.T) {
	baseErr := ErrInvalidKeySize
	wrapped := NewCryptoError("mlkem-encapsulate", baseErr)

	if !strings.Contains(wrapped.Error(), "mlkem-encapsulate") {
		t.Errorf("Error string should contain operation: %q", wrapped.Error())
	}
	if !errors.Is(wrapped, baseErr) {
		t.Error("wrapped error should match base sentinel via errors.Is")
	}
	if wrapped.Unwrap() != baseErr {
		t.Errorf("Unwrap() returned %v, want %v", wrapped.Unwrap(), baseErr)
	}
}

func TestSentinelErrorsAreNonEmpty(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrInvalidKeySize", ErrInvalidKeySize},
		{"ErrInvalidCiphertext", ErrInvalidCiphertext},
		{"ErrDecapsulationFailed", ErrDecapsulationFailed},
		{"ErrKeyGenerationFailed", ErrKeyGenerationFailed},
		{"ErrEncapsulationFailed", ErrEncapsulationFailed},
		{"ErrInvalidPublicKey", ErrInvalidPublicKey},
		{"ErrInvalidPrivateKey", ErrInvalidPrivateKey},
		{"ErrAuthenticationFailed", ErrAuthenticationFailed},
		{"ErrInvalidNonce", ErrInvalidNonce},
		{"ErrCiphertextTooShort", ErrCiphertextTooShort},
		{"ErrMACMismatch", ErrMACMismatch},
		{"ErrEnvelopeMalformed", ErrEnvelopeMalformed},
		{"ErrEnvelopeVersionMismatch", ErrEnvelopeVersionMismatch},
		{"ErrContextLabelTooLong", ErrContextLabelTooLong},
		{"ErrContextMismatch", ErrContextMismatch},
		{"ErrKeyNotFound", ErrKeyNotFound},
		{"ErrKeyCompromised", ErrKeyCompromised},
		{"ErrDuplicateActiveKey", ErrDuplicateActiveKey},
		{"ErrMasterKeyMissing", ErrMasterKeyMissing},
		{"ErrSwapNotFound", ErrSwapNotFound},
		{"ErrInvalidTransition", ErrInvalidTransition},
		{"ErrSwapAlreadyClaimed", ErrSwapAlreadyClaimed},
		{"ErrSwapExpired", ErrSwapExpired},
		{"ErrAdapterUnavailable", ErrAdapterUnavailable},
		{"ErrNonceNotFound", ErrNonceNotFound},
		{"ErrNonceExpired", ErrNonceExpired},
		{"ErrSignatureInvalid", ErrSignatureInvalid},
		{"ErrTokenInvalid", ErrTokenInvalid},
		{"ErrUnsupportedChain", ErrUnsupportedChain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatalf("%s is nil", tt.name)
			}
			if tt.err.Error() == "" {
				t.Errorf("%s.Error() returned empty string", tt.name)
			}
		})
	}
}

func TestIsAndAsHelpers(t *testing.T) {
	if !Is(ErrInvalidKeySize, ErrInvalidKeySize) {
		t.Error("Is() should return true for matching sentinel error")
	}
	if Is(ErrInvalidKeySize, ErrInvalidCiphertext) {
		t.Error("Is() should return false for non-matching error")
	}
	if Is(nil, ErrInvalidKeySize) {
		t.Error("Is(nil, target) should return false")
	}

	var target *CryptoError
	if As(nil, &target) {
		t.Error("As(nil, target) should return false")
	}
}
