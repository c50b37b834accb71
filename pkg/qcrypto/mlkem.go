// mlkem.go implements the ML-KEM-1024 key encapsulation mechanism (NIST FIPS
// 203, NIST Category 5 security), the quantum-resistant half of KEMBridge's
// hybrid envelope.
package qcrypto

import (
	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"

	"github.com/kembridge/kembridge-core/internal/constants"
	qerrors "github.com/kembridge/kembridge-core/internal/errors"
)

// MLKEMPublicKey wraps an ML-KEM-1024 encapsulation key.
type MLKEMPublicKey struct {
	key *mlkem1024.PublicKey
}

// MLKEMPrivateKey wraps an ML-KEM-1024 decapsulation key.
type MLKEMPrivateKey struct {
	key *mlkem1024.PrivateKey
}

// MLKEMKeyPair is an ML-KEM-1024 key pair.
type MLKEMKeyPair struct {
	EncapsulationKey *MLKEMPublicKey
	DecapsulationKey *MLKEMPrivateKey
}

// GenerateMLKEMKeyPair generates a new ML-KEM-1024 key pair using the OS
// CSPRNG.
func GenerateMLKEMKeyPair() (*MLKEMKeyPair, error) {
	pk, sk, err := mlkem1024.GenerateKeyPair(Reader)
	if err != nil {
		return nil, qerrors.NewCryptoError("MLKEMKeyPair.Generate", err)
	}

	return &MLKEMKeyPair{
		EncapsulationKey: &MLKEMPublicKey{key: pk},
		DecapsulationKey: &MLKEMPrivateKey{key: sk},
	}, nil
}

// MLKEMEncapsulate performs key encapsulation against a recipient's
// encapsulation key, producing a ciphertext and the shared secret derived
// from it.
func MLKEMEncapsulate(ek *MLKEMPublicKey) (ciphertext, sharedSecret []byte, err error) {
	if ek == nil || ek.key == nil {
		return nil, nil, qerrors.ErrInvalidPublicKey
	}

	ct := make([]byte, mlkem1024.CiphertextSize)
	ss := make([]byte, mlkem1024.SharedKeySize)

	seed := make([]byte, mlkem1024.EncapsulationSeedSize)
	if err := SecureRandom(seed); err != nil {
		return nil, nil, qerrors.NewCryptoError("MLKEMEncapsulate", err)
	}

	ek.key.EncapsulateTo(ct, ss, seed)

	return ct, ss, nil
}

// MLKEMDecapsulate recovers the shared secret from a ciphertext using the
// recipient's decapsulation key.
func MLKEMDecapsulate(dk *MLKEMPrivateKey, ciphertext []byte) ([]byte, error) {
	if dk == nil || dk.key == nil {
		return nil, qerrors.ErrInvalidPrivateKey
	}

	if len(ciphertext) != constants.MLKEMCiphertextSize {
		return nil, qerrors.ErrInvalidCiphertext
	}

	ss := make([]byte, mlkem1024.SharedKeySize)
	dk.key.DecapsulateTo(ss, ciphertext)

	return ss, nil
}

// Bytes returns the packed encoding of the public key.
func (pk *MLKEMPublicKey) Bytes() []byte {
	if pk == nil || pk.key == nil {
		return nil
	}
	buf := make([]byte, mlkem1024.PublicKeySize)
	pk.key.Pack(buf)
	return buf
}

// Bytes returns the packed encoding of the private key. Callers must
// Zeroize the returned slice once it has been persisted under the process
// master key.
func (sk *MLKEMPrivateKey) Bytes() []byte {
	if sk == nil || sk.key == nil {
		return nil
	}
	buf := make([]byte, mlkem1024.PrivateKeySize)
	sk.key.Pack(buf)
	return buf
}

// PublicKeyBytes returns the packed encapsulation key of the pair.
func (kp *MLKEMKeyPair) PublicKeyBytes() []byte {
	return kp.EncapsulationKey.Bytes()
}

// ParseMLKEMPublicKey decodes a packed ML-KEM-1024 public key.
func ParseMLKEMPublicKey(data []byte) (*MLKEMPublicKey, error) {
	if len(data) != constants.MLKEMPublicKeySize {
		return nil, qerrors.ErrInvalidPublicKey
	}

	pk := new(mlkem1024.PublicKey)
	if err := pk.Unpack(data); err != nil {
		return nil, qerrors.NewCryptoError("ParseMLKEMPublicKey", err)
	}

	return &MLKEMPublicKey{key: pk}, nil
}

// ParseMLKEMPrivateKey decodes a packed ML-KEM-1024 private key, as
// recovered from key-manager storage after master-key unwrapping.
func ParseMLKEMPrivateKey(data []byte) (*MLKEMPrivateKey, error) {
	if len(data) != constants.MLKEMPrivateKeySize {
		return nil, qerrors.ErrInvalidPrivateKey
	}

	sk := new(mlkem1024.PrivateKey)
	if err := sk.Unpack(data); err != nil {
		return nil, qerrors.NewCryptoError("ParseMLKEMPrivateKey", err)
	}

	return &MLKEMPrivateKey{key: sk}, nil
}

// Zeroize drops the key pair's references to private key material.
func (kp *MLKEMKeyPair) Zeroize() {
	kp.DecapsulationKey = nil
	kp.EncapsulationKey = nil
}

// Zeroize drops this key's reference to its private key material. The
// underlying mlkem1024.PrivateKey has no in-place wipe; dropping the
// pointer lets the garbage collector reclaim it and prevents further use
// through this handle.
func (sk *MLKEMPrivateKey) Zeroize() {
	if sk == nil {
		return
	}
	sk.key = nil
}
