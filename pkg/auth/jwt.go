package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kembridge/kembridge-core/internal/constants"
	qerrors "github.com/kembridge/kembridge-core/internal/errors"
)

const (
	jwtIssuer   = "kembridge-auth"
	jwtAudience = "kembridge-api"
)

// Claims is the JWT payload spec §4.5 names: sub, wallet_address,
// chain_type, iat, exp, iss, aud.
type Claims struct {
	WalletAddress string `json:"wallet_address"`
	ChainType     string `json:"chain_type"`
	jwt.RegisteredClaims
}

// jwtSigner issues and validates HS256 session tokens under a single
// service secret. Held as its own type (rather than a raw []byte on
// Authenticator) so the secret's zero-value can't be indistinguishable from
// "configured but empty."
type jwtSigner struct {
	secret []byte
}

func newJWTSigner(secret []byte) (*jwtSigner, error) {
	if len(secret) == 0 {
		return nil, qerrors.Wrap(qerrors.Internal, "auth.newJWTSigner", qerrors.ErrMasterKeyMissing)
	}
	return &jwtSigner{secret: secret}, nil
}

func (s *jwtSigner) issue(userID, wallet string, chain constants.ChainType) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(constants.SessionTTLSeconds * time.Second)
	claims := Claims{
		WalletAddress: wallet,
		ChainType:     string(chain),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Issuer:    jwtIssuer,
			Audience:  jwt.ClaimStrings{jwtAudience},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, qerrors.Wrap(qerrors.Internal, "auth.jwtSigner.issue", err)
	}
	return signed, exp, nil
}

func (s *jwtSigner) validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, qerrors.ErrTokenInvalid
		}
		return s.secret, nil
	}, jwt.WithIssuer(jwtIssuer), jwt.WithAudience(jwtAudience), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, qerrors.Wrap(qerrors.Unauthorized, "auth.jwtSigner.validate", qerrors.ErrTokenInvalid)
	}
	return claims, nil
}

// refresh re-issues a token for the same subject with a fresh expiry,
// without requiring the caller to re-authenticate with a wallet signature.
func (s *jwtSigner) refresh(tokenString string) (string, time.Time, error) {
	claims, err := s.validate(tokenString)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.issue(claims.Subject, claims.WalletAddress, constants.ChainType(claims.ChainType))
}
