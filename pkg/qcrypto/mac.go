// mac.go implements HMAC-SHA256 integrity protection, the outer authenticity
// layer the hybrid envelope applies over the AEAD ciphertext and its
// metadata, matching the original integrity-protection module's
// generate/verify pair.
package qcrypto

import (
	"crypto/hmac"
	"crypto/sha256"

	"github.com/kembridge/kembridge-core/internal/constants"
	qerrors "github.com/kembridge/kembridge-core/internal/errors"
)

// GenerateMAC computes an HMAC-SHA256 tag over data using key.
func GenerateMAC(key, data []byte) ([]byte, error) {
	if len(key) != constants.HMACKeySize {
		return nil, qerrors.ErrInvalidKeySize
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil), nil
}

// VerifyMAC recomputes the HMAC-SHA256 tag over data and compares it to tag
// in constant time.
func VerifyMAC(key, data, tag []byte) error {
	expected, err := GenerateMAC(key, data)
	if err != nil {
		return err
	}
	if !hmac.Equal(expected, tag) {
		return qerrors.ErrMACMismatch
	}
	return nil
}

// HashSHA256 returns the SHA-256 digest of data.
func HashSHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}
