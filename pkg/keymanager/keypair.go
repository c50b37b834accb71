package keymanager

import (
	"time"

	"github.com/kembridge/kembridge-core/internal/constants"
)

// QuantumKeyPair is the persisted record for one ML-KEM key pair. Rows are
// append-only except for Active, Compromised, RotatedAt, and RotationReason: a row is never
// deleted while any envelope still references its KeyID, since a retired
// key must remain unwrappable until a retention boundary is reached.
type QuantumKeyPair struct {
	KeyID         string `gorm:"primaryKey"`
	OwnerID       string `gorm:"index:idx_owner_category"`
	UsageCategory constants.UsageCategory `gorm:"index:idx_owner_category"`
	Generation    int

	PublicKey []byte // 1568 bytes, raw ML-KEM-1024 encapsulation key

	WrappedPrivateKey []byte // AES-256-GCM sealed ML-KEM private key
	WrapNonce         []byte // 12-byte nonce used for WrappedPrivateKey

	Active      bool `gorm:"index"`
	Compromised bool

	CreatedAt      time.Time
	RotatedAt      *time.Time
	RotationReason string
	ExpiresAt      *time.Time
}

// TableName pins the gorm table name independent of struct renames.
func (QuantumKeyPair) TableName() string { return "quantum_key_pairs" }
