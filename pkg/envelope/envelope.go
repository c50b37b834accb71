// Package envelope implements the hybrid envelope engine (C2): composing the
// ML-KEM-1024 KEM, HKDF-SHA256, AES-256-GCM, and HMAC-SHA256 primitives from
// pkg/qcrypto into a single sealed payload that every bridge artifact
// (swap payloads, key-exchange messages, session secrets) is carried in.
package envelope

import (
	"time"

	"github.com/kembridge/kembridge-core/internal/constants"
	qerrors "github.com/kembridge/kembridge-core/internal/errors"
	"github.com/kembridge/kembridge-core/pkg/qcrypto"
)

// HybridEnvelope is the sealed wire object combining KEM ciphertext, AEAD
// payload, and HMAC integrity tag under a context label. KeyID and CreatedAt
// are carried alongside the envelope by its store (e.g. a swap row's
// quantum_key_id column); they are not part of the wire-format bytes
// produced by Encode, which writes only the six fields a peer needs to
// open the envelope once it already knows which key to use.
type HybridEnvelope struct {
	KeyID                  string
	EncapsulatedCiphertext []byte // 1568 bytes
	AEADNonce              []byte // 12 bytes
	AEADCiphertext         []byte
	AEADTag                []byte // 16 bytes
	IntegrityMAC           []byte // 32 bytes
	ContextLabel           string // ASCII, <= MaxContextLabelSize
	CreatedAt              time.Time
}

// Seal encapsulates a fresh shared secret under pub, derives AEAD and HMAC
// keys from it via HKDF-SHA256 bound to contextLabel, encrypts plaintext,
// and computes the integrity MAC over the whole envelope. keyID is recorded
// on the returned envelope for the caller to persist; it plays no role in
// the cryptographic computation.
func Seal(pub *qcrypto.MLKEMPublicKey, keyID, contextLabel string, plaintext []byte) (*HybridEnvelope, error) {
	if len(contextLabel) == 0 || len(contextLabel) > constants.MaxContextLabelSize {
		return nil, qerrors.Wrap(qerrors.InvalidInput, "envelope.Seal", qerrors.ErrContextLabelTooLong)
	}

	ct, sharedSecret, err := qcrypto.MLKEMEncapsulate(pub)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "envelope.Seal", err)
	}
	defer qcrypto.Zeroize(sharedSecret)

	info := constants.EnvelopeKDFInfoPrefix + contextLabel
	dk, err := qcrypto.DeriveMultipleKeys(sharedSecret, info)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "envelope.Seal", err)
	}
	defer dk.Zeroize()

	nonce, err := qcrypto.SecureRandomBytes(constants.AESNonceSize)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "envelope.Seal", err)
	}

	aead, err := qcrypto.NewAEAD(constants.CipherSuiteAES256GCM, dk.EncryptionKey)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "envelope.Seal", err)
	}

	sealed, err := aead.SealWithNonce(nonce, plaintext, []byte(contextLabel))
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "envelope.Seal", err)
	}
	aeadCiphertext := sealed[:len(sealed)-constants.AESTagSize]
	aeadTag := sealed[len(sealed)-constants.AESTagSize:]

	mac, err := qcrypto.GenerateMAC(dk.AuthenticationKey, macInput(ct, nonce, aeadCiphertext, aeadTag, contextLabel))
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "envelope.Seal", err)
	}

	return &HybridEnvelope{
		KeyID:                  keyID,
		EncapsulatedCiphertext: ct,
		AEADNonce:              nonce,
		AEADCiphertext:         aeadCiphertext,
		AEADTag:                aeadTag,
		IntegrityMAC:           mac,
		ContextLabel:           contextLabel,
		CreatedAt:              time.Now().UTC(),
	}, nil
}

// Open decapsulates env.EncapsulatedCiphertext with priv, re-derives the
// AEAD and HMAC keys, verifies the integrity MAC, decrypts, and checks the
// context label against contextLabelExpected. Field-length violations fail
// with InvalidInput (ErrEnvelopeMalformed) and key-derivation faults with
// Internal. Decapsulation, MAC and AEAD failures all collapse to
// IntegrityFailed, so the caller never learns which of those checks
// tripped; a label other than contextLabelExpected fails with
// ErrContextMismatch.
func Open(priv *qcrypto.MLKEMPrivateKey, contextLabelExpected string, env *HybridEnvelope) ([]byte, error) {
	if err := validateLengths(env); err != nil {
		return nil, err
	}

	sharedSecret, err := qcrypto.MLKEMDecapsulate(priv, env.EncapsulatedCiphertext)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.IntegrityFailed, "envelope.Open", qerrors.ErrDecapsulationFailed)
	}
	defer qcrypto.Zeroize(sharedSecret)

	info := constants.EnvelopeKDFInfoPrefix + env.ContextLabel
	dk, err := qcrypto.DeriveMultipleKeys(sharedSecret, info)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "envelope.Open", err)
	}
	defer dk.Zeroize()

	expectedMAC, err := qcrypto.GenerateMAC(dk.AuthenticationKey, macInput(
		env.EncapsulatedCiphertext, env.AEADNonce, env.AEADCiphertext, env.AEADTag, env.ContextLabel))
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "envelope.Open", err)
	}
	if !qcrypto.ConstantTimeCompare(expectedMAC, env.IntegrityMAC) {
		return nil, qerrors.Wrap(qerrors.IntegrityFailed, "envelope.Open", qerrors.ErrMACMismatch)
	}

	aead, err := qcrypto.NewAEAD(constants.CipherSuiteAES256GCM, dk.EncryptionKey)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "envelope.Open", err)
	}

	sealed := append(append([]byte(nil), env.AEADCiphertext...), env.AEADTag...)
	plaintext, err := aead.OpenWithNonce(env.AEADNonce, sealed, []byte(env.ContextLabel))
	if err != nil {
		return nil, qerrors.Wrap(qerrors.IntegrityFailed, "envelope.Open", qerrors.ErrAuthenticationFailed)
	}

	if contextLabelExpected != env.ContextLabel {
		qcrypto.Zeroize(plaintext)
		return nil, qerrors.Wrap(qerrors.InvalidInput, "envelope.Open", qerrors.ErrContextMismatch)
	}

	return plaintext, nil
}

func validateLengths(env *HybridEnvelope) error {
	switch {
	case len(env.EncapsulatedCiphertext) != constants.MLKEMCiphertextSize,
		len(env.AEADNonce) != constants.AESNonceSize,
		len(env.AEADTag) != constants.AESTagSize,
		len(env.IntegrityMAC) != constants.HMACTagSize,
		len(env.ContextLabel) == 0,
		len(env.ContextLabel) > constants.MaxContextLabelSize:
		return qerrors.Wrap(qerrors.InvalidInput, "envelope.validateLengths", qerrors.ErrEnvelopeMalformed)
	}
	return nil
}

func macInput(kemCt, nonce, aeadCt, tag []byte, contextLabel string) []byte {
	buf := make([]byte, 0, len(kemCt)+len(nonce)+len(aeadCt)+len(tag)+len(contextLabel))
	buf = append(buf, kemCt...)
	buf = append(buf, nonce...)
	buf = append(buf, aeadCt...)
	buf = append(buf, tag...)
	buf = append(buf, []byte(contextLabel)...)
	return buf
}
