package auth

import (
	"crypto/ed25519"
	"encoding/hex"
	"strings"

	qerrors "github.com/kembridge/kembridge-core/internal/errors"
	"github.com/mr-tron/base58"
)

// verifyNEARSignature checks an Ed25519 signature over the raw message
// against the account's registered public key. NEAR public keys are
// presented as "ed25519:<base58>"; signatures may be base58 or hex.
func verifyNEARSignature(accountPublicKey, message, signature string) error {
	pub, err := decodeNEARPublicKey(accountPublicKey)
	if err != nil {
		return qerrors.Wrap(qerrors.Unauthorized, "auth.verifyNEARSignature", qerrors.ErrSignatureInvalid)
	}
	sig, err := decodeNEARSignature(signature)
	if err != nil {
		return qerrors.Wrap(qerrors.Unauthorized, "auth.verifyNEARSignature", qerrors.ErrSignatureInvalid)
	}
	if !ed25519.Verify(pub, []byte(message), sig) {
		return qerrors.Wrap(qerrors.Unauthorized, "auth.verifyNEARSignature", qerrors.ErrSignatureInvalid)
	}
	return nil
}

func decodeNEARPublicKey(s string) (ed25519.PublicKey, error) {
	s = strings.TrimPrefix(s, "ed25519:")
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, qerrors.ErrSignatureInvalid
	}
	return ed25519.PublicKey(raw), nil
}

func decodeNEARSignature(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "ed25519:")
	if raw, err := base58.Decode(s); err == nil && len(raw) == ed25519.SignatureSize {
		return raw, nil
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(raw) != ed25519.SignatureSize {
		return nil, qerrors.ErrSignatureInvalid
	}
	return raw, nil
}
