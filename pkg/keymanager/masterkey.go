// Package keymanager implements the quantum key manager (C3): persisting
// ML-KEM key pairs with their private half wrapped under a process master
// key, tracking generation, rotation, and compromise state.
package keymanager

import (
	"sync"

	"github.com/kembridge/kembridge-core/internal/constants"
	qerrors "github.com/kembridge/kembridge-core/internal/errors"
	"github.com/kembridge/kembridge-core/pkg/qcrypto"
)

// MasterKey is the process-scoped AES-256-GCM key that wraps every private
// key at rest. It is never persisted; the deployment secret it is loaded
// from lives outside the database, in configuration.
type MasterKey struct {
	mu  sync.RWMutex
	raw []byte
}

// LoadMasterKey wraps a 32-byte deployment secret as the process master
// key. Callers MUST zeroize raw after this call; LoadMasterKey copies it.
func LoadMasterKey(raw []byte) (*MasterKey, error) {
	if len(raw) != constants.AESKeySize {
		return nil, qerrors.Wrap(qerrors.InvalidInput, "keymanager.LoadMasterKey", qerrors.ErrInvalidKeySize)
	}
	copied := make([]byte, len(raw))
	copy(copied, raw)
	return &MasterKey{raw: copied}, nil
}

// Wrap seals plaintext (a private-key byte string) under the master key,
// binding aad (the usage category label) into the AEAD tag so a wrapped
// blob cannot be decrypted under a different category than it was sealed
// for. Returns the fresh nonce and the sealed ciphertext+tag separately,
// matching the append-only QuantumKeyPair row layout.
func (mk *MasterKey) Wrap(plaintext, aad []byte) (nonce, sealed []byte, err error) {
	mk.mu.RLock()
	key := mk.raw
	mk.mu.RUnlock()

	aead, err := qcrypto.NewAEAD(constants.CipherSuiteAES256GCM, key)
	if err != nil {
		return nil, nil, qerrors.Wrap(qerrors.Internal, "keymanager.MasterKey.Wrap", err)
	}

	nonce, err = qcrypto.SecureRandomBytes(constants.AESNonceSize)
	if err != nil {
		return nil, nil, qerrors.Wrap(qerrors.Internal, "keymanager.MasterKey.Wrap", err)
	}

	sealed, err = aead.SealWithNonce(nonce, plaintext, aad)
	if err != nil {
		return nil, nil, qerrors.Wrap(qerrors.Internal, "keymanager.MasterKey.Wrap", err)
	}
	return nonce, sealed, nil
}

// Unwrap reverses Wrap. A mismatched aad (wrong category) or a tampered
// ciphertext both surface as IntegrityFailed; the caller learns nothing
// about which check failed.
func (mk *MasterKey) Unwrap(nonce, sealed, aad []byte) ([]byte, error) {
	mk.mu.RLock()
	key := mk.raw
	mk.mu.RUnlock()

	aead, err := qcrypto.NewAEAD(constants.CipherSuiteAES256GCM, key)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "keymanager.MasterKey.Unwrap", err)
	}

	plaintext, err := aead.OpenWithNonce(nonce, sealed, aad)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.IntegrityFailed, "keymanager.MasterKey.Unwrap", qerrors.ErrKeyUnwrapFailed)
	}
	return plaintext, nil
}

// Zeroize destroys the in-memory master key. Call once at process shutdown.
func (mk *MasterKey) Zeroize() {
	mk.mu.Lock()
	defer mk.mu.Unlock()
	qcrypto.Zeroize(mk.raw)
}
