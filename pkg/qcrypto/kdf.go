// kdf.go derives symmetric keys from an ML-KEM shared secret using
// HKDF-SHA256, matching KEMBridge's original key-derivation module: a single
// HKDF expand with no salt, domain-separated by a textual context label.
package qcrypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/kembridge/kembridge-core/internal/constants"
	qerrors "github.com/kembridge/kembridge-core/internal/errors"
)

// DerivedKeys holds the two keys produced by envelope key derivation: one
// for the AEAD and one for the HMAC integrity tag laid over it.
type DerivedKeys struct {
	EncryptionKey     []byte // AESKeySize bytes
	AuthenticationKey []byte // HMACKeySize bytes
}

// Zeroize erases both derived keys.
func (dk *DerivedKeys) Zeroize() {
	if dk == nil {
		return
	}
	Zeroize(dk.EncryptionKey)
	Zeroize(dk.AuthenticationKey)
}

// CreateContext builds the domain-separation info string used as HKDF's
// "info" parameter: "KEMBridge-v{version}-{purpose}".
func CreateContext(purpose string, version int) string {
	return fmt.Sprintf("%s%d-%s", constants.EnvelopeKDFInfoPrefix, version, purpose)
}

// DeriveEncryptionKey derives a single 32-byte AES-256 key from a shared
// secret using HKDF-SHA256 with no salt and the given context as info.
func DeriveEncryptionKey(sharedSecret []byte, context string) ([]byte, error) {
	if len(sharedSecret) != constants.MLKEMSharedSecretSize {
		return nil, qerrors.ErrInvalidKeySize
	}

	reader := hkdf.New(sha256.New, sharedSecret, nil, []byte(context))
	key := make([]byte, constants.AESKeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, qerrors.NewCryptoError("DeriveEncryptionKey", err)
	}
	return key, nil
}

// DeriveMultipleKeys derives a combined AEAD key and HMAC key from a shared
// secret in a single HKDF expansion, matching the wire-level key-derivation
// step of the hybrid envelope: the first AESKeySize bytes become the
// encryption key, the next HMACKeySize bytes become the authentication key.
func DeriveMultipleKeys(sharedSecret []byte, context string) (*DerivedKeys, error) {
	if len(sharedSecret) != constants.MLKEMSharedSecretSize {
		return nil, qerrors.ErrInvalidKeySize
	}

	reader := hkdf.New(sha256.New, sharedSecret, nil, []byte(context))
	combined := make([]byte, constants.HKDFOutputSize)
	if _, err := io.ReadFull(reader, combined); err != nil {
		return nil, qerrors.NewCryptoError("DeriveMultipleKeys", err)
	}

	dk := &DerivedKeys{
		EncryptionKey:     make([]byte, constants.AESKeySize),
		AuthenticationKey: make([]byte, constants.HMACKeySize),
	}
	copy(dk.EncryptionKey, combined[:constants.AESKeySize])
	copy(dk.AuthenticationKey, combined[constants.AESKeySize:])
	Zeroize(combined)

	return dk, nil
}

// Context label constants for the envelope's standard usages.
const (
	ContextBridgeTransaction = "bridge-transaction"
	ContextKeyExchange       = "key-exchange"
	ContextSessionKeys       = "session-keys"
)

// ContextBridgeTransactionLabel returns the standard context label for
// envelopes protecting bridge swap transaction payloads.
func ContextBridgeTransactionLabel() string {
	return CreateContext(ContextBridgeTransaction, int(constants.EnvelopeVersion))
}

// ContextKeyExchangeLabel returns the standard context label for envelopes
// exchanged during quantum key provisioning.
func ContextKeyExchangeLabel() string {
	return CreateContext(ContextKeyExchange, int(constants.EnvelopeVersion))
}

// ContextSessionKeysLabel returns the standard context label for envelopes
// wrapping session-bound secrets.
func ContextSessionKeysLabel() string {
	return CreateContext(ContextSessionKeys, int(constants.EnvelopeVersion))
}
