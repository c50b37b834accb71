// Package qcrypto implements the post-quantum and symmetric primitives (C1)
// that back KEMBridge's hybrid envelope: ML-KEM-1024 encapsulation, HKDF-SHA256
// key derivation, AES-256-GCM / ChaCha20-Poly1305 AEAD, and HMAC-SHA256
// integrity, plus the FIPS 140-3 conditional self-tests that guard them.
//
// Security Note: all random number generation uses crypto/rand, which sources
// entropy from the operating system's CSPRNG.
package qcrypto

import (
	"crypto/rand"
	"io"

	qerrors "github.com/kembridge/kembridge-core/internal/errors"
)

// SecureRandom reads cryptographically secure random bytes into b.
func SecureRandom(b []byte) error {
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return qerrors.NewCryptoError("SecureRandom", err)
	}
	return nil
}

// SecureRandomBytes returns n cryptographically secure random bytes.
func SecureRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := SecureRandom(b); err != nil {
		return nil, err
	}
	return b, nil
}

// MustSecureRandom reads cryptographically secure random bytes into b.
// It panics if the system's CSPRNG fails.
func MustSecureRandom(b []byte) {
	if err := SecureRandom(b); err != nil {
		panic("qcrypto: failed to read from CSPRNG: " + err.Error())
	}
}

// MustSecureRandomBytes returns n cryptographically secure random bytes,
// panicking if the system's CSPRNG fails.
func MustSecureRandomBytes(n int) []byte {
	b := make([]byte, n)
	MustSecureRandom(b)
	return b
}

// Reader is an io.Reader returning cryptographically secure random bytes.
var Reader = rand.Reader

// ConstantTimeCompare compares two byte slices in constant time to prevent
// timing attacks when comparing secrets or authentication tags.
func ConstantTimeCompare(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var result byte
	for i := range a {
		result |= a[i] ^ b[i]
	}
	return result == 0
}

// Zeroize overwrites b with zeros. Callers should invoke this on key
// material and shared secrets as soon as they are no longer needed.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroizeMultiple zeroizes every slice passed to it.
func ZeroizeMultiple(slices ...[]byte) {
	for _, s := range slices {
		Zeroize(s)
	}
}

// WithSecret acquires a scratch secret buffer of n bytes, passes it to fn,
// and zeroizes it unconditionally once fn returns — including on panic —
// so a key never outlives the scope that needed it.
func WithSecret(n int, fn func(buf []byte) error) error {
	buf := make([]byte, n)
	defer Zeroize(buf)
	return fn(buf)
}
