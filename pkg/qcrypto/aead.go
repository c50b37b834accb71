// aead.go implements Authenticated Encryption with Associated Data.
//
// AES-256-GCM is the default and FIPS-approved suite used by the hybrid
// envelope; ChaCha20-Poly1305 is retained for deployments that need a
// software-only fallback on hardware without AES-NI.
//
// CRITICAL: nonce reuse completely breaks AEAD security. Each (key, nonce)
// pair must be used at most once. This implementation derives nonces from an
// internal counter and tracks usage to prevent reuse within a single AEAD
// instance's lifetime.
package qcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/kembridge/kembridge-core/internal/constants"
	qerrors "github.com/kembridge/kembridge-core/internal/errors"
)

// AEAD is an authenticated encryption cipher bound to a cipher suite and key.
type AEAD struct {
	cipher cipher.AEAD
	suite  constants.CipherSuite

	mu      sync.Mutex
	counter uint64
	maxSeq  uint64
}

// NewAEAD constructs an AEAD cipher for suite using key (32 bytes).
func NewAEAD(suite constants.CipherSuite, key []byte) (*AEAD, error) {
	if len(key) != constants.AESKeySize {
		return nil, qerrors.ErrInvalidKeySize
	}

	var aeadCipher cipher.AEAD

	switch suite {
	case constants.CipherSuiteAES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, qerrors.NewCryptoError("NewAEAD", err)
		}
		aeadCipher, err = cipher.NewGCM(block)
		if err != nil {
			return nil, qerrors.NewCryptoError("NewAEAD", err)
		}

	case constants.CipherSuiteChaCha20Poly1305:
		if FIPSMode() {
			return nil, qerrors.ErrUnsupportedCipherSuite
		}
		var err error
		aeadCipher, err = chacha20poly1305.New(key)
		if err != nil {
			return nil, qerrors.NewCryptoError("NewAEAD", err)
		}

	default:
		return nil, qerrors.ErrUnsupportedCipherSuite
	}

	return &AEAD{
		cipher: aeadCipher,
		suite:  suite,
		// Bound nonce reuse risk well below the 2^96 nonce space.
		maxSeq: 1 << 32,
	}, nil
}

// Seal encrypts and authenticates plaintext, auto-generating a fresh nonce
// and prefixing it onto the returned ciphertext.
func (a *AEAD) Seal(plaintext, additionalData []byte) ([]byte, error) {
	nonce, err := a.nextNonce()
	if err != nil {
		return nil, err
	}

	ciphertext := make([]byte, constants.AESNonceSize+len(plaintext)+constants.AESTagSize)
	copy(ciphertext[:constants.AESNonceSize], nonce)
	a.cipher.Seal(ciphertext[constants.AESNonceSize:constants.AESNonceSize], nonce, plaintext, additionalData)

	return ciphertext, nil
}

// SealWithNonce encrypts using an explicit, caller-supplied nonce. The
// caller is responsible for nonce uniqueness; the hybrid envelope uses this
// to place the nonce under its own wire-format field instead of AEAD's
// default prefix convention.
func (a *AEAD) SealWithNonce(nonce, plaintext, additionalData []byte) ([]byte, error) {
	if len(nonce) != constants.AESNonceSize {
		return nil, qerrors.ErrInvalidNonce
	}
	return a.cipher.Seal(nil, nonce, plaintext, additionalData), nil
}

// Open decrypts ciphertext previously produced by Seal (nonce-prefixed).
func (a *AEAD) Open(ciphertext, additionalData []byte) ([]byte, error) {
	if len(ciphertext) < constants.AESNonceSize+constants.AESTagSize {
		return nil, qerrors.ErrCiphertextTooShort
	}

	nonce := ciphertext[:constants.AESNonceSize]
	encrypted := ciphertext[constants.AESNonceSize:]

	plaintext, err := a.cipher.Open(nil, nonce, encrypted, additionalData)
	if err != nil {
		return nil, qerrors.ErrAuthenticationFailed
	}

	return plaintext, nil
}

// OpenWithNonce decrypts ciphertext using an explicit nonce not embedded in
// the ciphertext.
func (a *AEAD) OpenWithNonce(nonce, ciphertext, additionalData []byte) ([]byte, error) {
	if len(nonce) != constants.AESNonceSize {
		return nil, qerrors.ErrInvalidNonce
	}
	if len(ciphertext) < constants.AESTagSize {
		return nil, qerrors.ErrCiphertextTooShort
	}

	plaintext, err := a.cipher.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, qerrors.ErrAuthenticationFailed
	}

	return plaintext, nil
}

// nextNonce generates the next nonce from the internal counter.
func (a *AEAD) nextNonce() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.counter >= a.maxSeq {
		return nil, qerrors.NewCryptoError("AEAD.nextNonce", qerrors.New(qerrors.Internal, "nonce space exhausted"))
	}

	nonce := make([]byte, constants.AESNonceSize)
	binary.BigEndian.PutUint64(nonce[4:], a.counter)
	a.counter++

	return nonce, nil
}

// Counter reports how many Seal calls have consumed a nonce.
func (a *AEAD) Counter() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counter
}

// Suite returns the cipher suite identifier.
func (a *AEAD) Suite() constants.CipherSuite {
	return a.suite
}

// Overhead returns the number of bytes Seal adds beyond the plaintext
// (nonce prefix plus authentication tag).
func (a *AEAD) Overhead() int {
	return constants.AESNonceSize + a.cipher.Overhead()
}

// NonceSize returns the nonce size required by SealWithNonce/OpenWithNonce.
func (a *AEAD) NonceSize() int {
	return a.cipher.NonceSize()
}
