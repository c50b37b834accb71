package auth

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	qerrors "github.com/kembridge/kembridge-core/internal/errors"
	"golang.org/x/crypto/sha3"
)

const ethPersonalPrefix = "\x19Ethereum Signed Message:\n"

func keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// ethSignedMessageHash reproduces geth's personal_sign digest: the message
// is prefixed with its own decimal length before hashing, so a signed
// transaction can never be replayed as a signed login message.
func ethSignedMessageHash(message string) []byte {
	prefixed := ethPersonalPrefix + strconv.Itoa(len(message)) + message
	return keccak256([]byte(prefixed))
}

// verifyEthereumSignature recovers the signer's address from a 65-byte
// (r,s,v) signature over message and compares it case-insensitively to
// wallet.
func verifyEthereumSignature(wallet, message, signatureHex string) error {
	sigBytes, err := decodeHexSignature(signatureHex)
	if err != nil {
		return qerrors.Wrap(qerrors.Unauthorized, "auth.verifyEthereumSignature", qerrors.ErrSignatureInvalid)
	}
	if len(sigBytes) != 65 {
		return qerrors.Wrap(qerrors.Unauthorized, "auth.verifyEthereumSignature", qerrors.ErrSignatureInvalid)
	}

	r := sigBytes[0:32]
	s := sigBytes[32:64]
	v := sigBytes[64]
	if v >= 27 {
		v -= 27
	}

	// secp256k1's RecoverCompact expects a leading recovery-id byte offset
	// by 27, followed by r||s — the compact signature format.
	compact := make([]byte, 65)
	compact[0] = v + 27
	copy(compact[1:33], r)
	copy(compact[33:65], s)

	digest := ethSignedMessageHash(message)

	pub, _, err := ecdsa.RecoverCompact(compact, digest)
	if err != nil {
		return qerrors.Wrap(qerrors.Unauthorized, "auth.verifyEthereumSignature", qerrors.ErrSignatureInvalid)
	}

	recovered := deriveEthAddress(pub)
	if !strings.EqualFold(normalizeHex(recovered), normalizeHex(wallet)) {
		return qerrors.Wrap(qerrors.Unauthorized, "auth.verifyEthereumSignature", qerrors.ErrSignatureInvalid)
	}
	return nil
}

func deriveEthAddress(pub *secp256k1.PublicKey) string {
	uncompressed := pub.SerializeUncompressed() // 0x04 || X(32) || Y(32)
	hash := keccak256(uncompressed[1:])
	return "0x" + hex.EncodeToString(hash[12:])
}

func normalizeHex(s string) string {
	return strings.TrimPrefix(strings.ToLower(s), "0x")
}

func decodeHexSignature(sig string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(sig, "0x"))
}
