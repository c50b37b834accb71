package keymanager_test

import (
	"bytes"
	"testing"

	"github.com/kembridge/kembridge-core/internal/constants"
	"github.com/kembridge/kembridge-core/pkg/keymanager"
	"github.com/kembridge/kembridge-core/pkg/qcrypto"
)

func TestMasterKeyWrapUnwrapRoundTrip(t *testing.T) {
	raw, _ := qcrypto.SecureRandomBytes(constants.AESKeySize)
	mk, err := keymanager.LoadMasterKey(raw)
	if err != nil {
		t.Fatalf("LoadMasterKey failed: %v", err)
	}

	plaintext := []byte("a private key worth of bytes")
	aad := []byte("bridge")

	nonce, sealed, err := mk.Wrap(plaintext, aad)
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}

	recovered, err := mk.Unwrap(nonce, sealed, aad)
	if err != nil {
		t.Fatalf("Unwrap failed: %v", err)
	}
	if !bytes.Equal(recovered, plaintext) {
		t.Errorf("recovered = %q, want %q", recovered, plaintext)
	}
}

func TestMasterKeyUnwrapRejectsWrongAAD(t *testing.T) {
	raw, _ := qcrypto.SecureRandomBytes(constants.AESKeySize)
	mk, _ := keymanager.LoadMasterKey(raw)

	nonce, sealed, err := mk.Wrap([]byte("secret"), []byte("bridge"))
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}

	if _, err := mk.Unwrap(nonce, sealed, []byte("session")); err == nil {
		t.Error("expected error unwrapping under a different category")
	}
}

func TestLoadMasterKeyRejectsWrongSize(t *testing.T) {
	if _, err := keymanager.LoadMasterKey([]byte("too short")); err == nil {
		t.Error("expected error for a non-32-byte master key")
	}
}
