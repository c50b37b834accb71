package auth

import (
	"context"
	"strings"
	"time"

	"github.com/kembridge/kembridge-core/internal/constants"
	qerrors "github.com/kembridge/kembridge-core/internal/errors"
	"github.com/kembridge/kembridge-core/pkg/metrics"
	"github.com/kembridge/kembridge-core/pkg/ratelimit"
)

// Authenticator implements C5's issue_nonce / verify / JWT validation and
// refresh.
type Authenticator struct {
	nonces   NonceStore
	users    UserStore
	jwt      *jwtSigner
	observer *metrics.BridgeObserver
	limiter  *ratelimit.TokenBucketLimiter
}

// NewAuthenticator builds an Authenticator over nonces and users, signing
// sessions with jwtSecret (HS256).
func NewAuthenticator(nonces NonceStore, users UserStore, jwtSecret []byte) (*Authenticator, error) {
	signer, err := newJWTSigner(jwtSecret)
	if err != nil {
		return nil, err
	}
	return &Authenticator{nonces: nonces, users: users, jwt: signer}, nil
}

// SetObserver attaches a BridgeObserver that records nonce-issuance and
// authentication metrics.
func (a *Authenticator) SetObserver(o *metrics.BridgeObserver) {
	a.observer = o
}

// SetRateLimiter attaches a per-wallet token bucket gating IssueNonce.
// Callers exceeding the limit receive ErrRateLimited.
func (a *Authenticator) SetRateLimiter(l *ratelimit.TokenBucketLimiter) {
	a.limiter = l
}

// Verify consumes the stored nonce for (wallet, chain), checks its
// expiry, verifies signature over the reconstructed message_to_sign, upserts
// the user record, and issues a session JWT.
func (a *Authenticator) Verify(ctx context.Context, wallet string, chain constants.ChainType, nonceValue, signature string) (*SessionResponse, error) {
	var endVerify func(error)
	if a.observer != nil {
		ctx, endVerify = a.observer.OnAuthVerify(ctx, wallet, string(chain))
	}
	session, err := a.verify(ctx, wallet, chain, nonceValue, signature)
	if endVerify != nil {
		endVerify(err)
	}
	return session, err
}

func (a *Authenticator) verify(ctx context.Context, wallet string, chain constants.ChainType, nonceValue, signature string) (*SessionResponse, error) {
	stored, err := a.nonces.TakeAndDelete(ctx, wallet, chain, nonceValue)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(stored.Wallet, wallet) || stored.Chain != chain || stored.Value != nonceValue {
		return nil, qerrors.Wrap(qerrors.Unauthorized, "auth.Authenticator.Verify", qerrors.ErrNonceNotFound)
	}
	if time.Now().UTC().After(stored.ExpiresAt) {
		return nil, qerrors.Wrap(qerrors.Unauthorized, "auth.Authenticator.Verify", qerrors.ErrNonceExpired)
	}

	message := buildMessage(wallet, chain, stored.Value, stored.ExpiresAt)
	if message != stored.Message {
		return nil, qerrors.Wrap(qerrors.Unauthorized, "auth.Authenticator.Verify", qerrors.ErrNonceNotFound)
	}

	if err := verifySignature(chain, wallet, message, signature); err != nil {
		return nil, err
	}

	tier := deriveUserTier(wallet)
	user, err := a.users.FindOrCreate(ctx, wallet, chain, tier)
	if err != nil {
		return nil, err
	}

	token, exp, err := a.jwt.issue(user.UserID, wallet, chain)
	if err != nil {
		return nil, err
	}

	return &SessionResponse{Token: token, ExpiresAt: exp, UserID: user.UserID}, nil
}

// ValidateToken checks a bearer token's signature, issuer, audience, and
// expiry, returning its claims.
func (a *Authenticator) ValidateToken(token string) (*Claims, error) {
	return a.jwt.validate(token)
}

// RefreshToken re-issues a token for the same subject with a fresh expiry.
func (a *Authenticator) RefreshToken(token string) (string, time.Time, error) {
	return a.jwt.refresh(token)
}

func verifySignature(chain constants.ChainType, wallet, message, signature string) error {
	switch chain {
	case constants.ChainEthereum:
		return verifyEthereumSignature(wallet, message, signature)
	case constants.ChainNear:
		return verifyNEARSignature(wallet, message, signature)
	default:
		return qerrors.Wrap(qerrors.InvalidInput, "auth.verifySignature", qerrors.ErrUnsupportedChain)
	}
}

// deriveUserTier is the deterministic-from-wallet tier stub spec §4.5 says
// implementers SHOULD layer a real policy source on top of. Kept verbatim
// as a placeholder policy hook, not a production authorization decision.
func deriveUserTier(wallet string) constants.UserTier {
	lower := strings.ToLower(wallet)
	switch {
	case strings.HasPrefix(lower, "0x000"), strings.HasPrefix(lower, "admin"):
		return constants.UserTierAdmin
	case len(wallet) > 42, strings.HasSuffix(lower, "premium"):
		return constants.UserTierPremium
	default:
		return constants.UserTierFree
	}
}
