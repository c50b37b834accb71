package auth

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kembridge/kembridge-core/internal/constants"
	qerrors "github.com/kembridge/kembridge-core/internal/errors"
	"github.com/kembridge/kembridge-core/pkg/qcrypto"
)

// buildMessage deterministically reconstructs the message a wallet is asked
// to sign from its inputs, so Verify can recompute it byte-for-byte and
// compare against what was actually signed rather than trusting the caller's
// copy.
func buildMessage(wallet string, chain constants.ChainType, nonce string, expiresAt time.Time) string {
	return fmt.Sprintf(
		"%s wants you to sign in with wallet %s\nChain: %s\nNonce: %s\nExpires: %s",
		constants.ProtocolName, wallet, chain, nonce, expiresAt.UTC().Format(time.RFC3339),
	)
}

// IssueNonce generates a fresh challenge for (wallet, chain), persists it
// with a 5-minute TTL, and returns the nonce, the message to sign, and its
// expiry.
func (a *Authenticator) IssueNonce(ctx context.Context, wallet string, chain constants.ChainType) (*NonceResponse, error) {
	if a.limiter != nil && !a.limiter.Allow(wallet) {
		return nil, qerrors.Wrap(qerrors.RateLimited, "auth.Authenticator.IssueNonce", qerrors.ErrRateLimited)
	}

	raw, err := qcrypto.SecureRandomBytes(constants.AuthNonceSize)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "auth.Authenticator.IssueNonce", err)
	}
	nonceHex := hex.EncodeToString(raw)
	expiresAt := time.Now().UTC().Add(constants.AuthNonceTTLSeconds * time.Second)
	message := buildMessage(wallet, chain, nonceHex, expiresAt)

	n := &Nonce{
		Wallet:    wallet,
		Chain:     chain,
		Value:     nonceHex,
		Message:   message,
		ExpiresAt: expiresAt,
	}
	if err := a.nonces.Put(ctx, n); err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "auth.Authenticator.IssueNonce", err)
	}

	if a.observer != nil {
		a.observer.OnNonceIssued(wallet, string(chain))
	}

	return &NonceResponse{Nonce: nonceHex, Message: message, ExpiresAt: expiresAt}, nil
}
