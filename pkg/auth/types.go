// Package auth implements wallet-signature authentication: nonce issuance,
// Ethereum and NEAR signature verification, user upsert, and JWT session
// issuance (spec.md §4.5).
package auth

import (
	"time"

	"github.com/kembridge/kembridge-core/internal/constants"
)

// ChainType mirrors constants.ChainType for the two wallet kinds this
// package verifies signatures for.
type ChainType = constants.ChainType

// Nonce is the server-side record of an issued authentication challenge.
// It is consumed exactly once by Verify.
type Nonce struct {
	Wallet    string
	Chain     ChainType
	Value     string // hex-encoded random bytes
	Message   string // deterministic message_to_sign
	ExpiresAt time.Time
}

// User maps a wallet address on a given chain to a stable user identity.
type User struct {
	UserID        string `gorm:"primaryKey"`
	WalletAddress string `gorm:"uniqueIndex:idx_wallet_chain"`
	ChainType     ChainType `gorm:"uniqueIndex:idx_wallet_chain"`
	Tier          constants.UserTier
	CreatedAt     time.Time
	LastLoginAt   time.Time
}

func (User) TableName() string { return "auth_users" }

// NonceResponse is returned by IssueNonce.
type NonceResponse struct {
	Nonce     string
	Message   string
	ExpiresAt time.Time
}

// SessionResponse is returned by Verify on success.
type SessionResponse struct {
	Token     string
	ExpiresAt time.Time
	UserID    string
}
