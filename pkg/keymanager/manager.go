package keymanager

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/kembridge/kembridge-core/internal/constants"
	qerrors "github.com/kembridge/kembridge-core/internal/errors"
	"github.com/kembridge/kembridge-core/pkg/metrics"
	"github.com/kembridge/kembridge-core/pkg/qcrypto"
)

// Manager implements the C3 operations: generate, rotate, mark_compromised,
// check_rotation_needed, export_public_base64, public_of, and
// unwrap_private (as WithUnwrappedPrivate — see its doc comment).
type Manager struct {
	store    Store
	master   *MasterKey
	observer *metrics.BridgeObserver
}

// NewManager builds a Manager over store, wrapping and unwrapping private
// keys under master.
func NewManager(store Store, master *MasterKey) *Manager {
	return &Manager{store: store, master: master}
}

// SetObserver attaches a BridgeObserver that records key generation and
// rotation metrics.
func (m *Manager) SetObserver(o *metrics.BridgeObserver) {
	m.observer = o
}

// Generate creates a new ML-KEM-1024 key pair for (ownerID, category),
// wraps the private half under the process master key with the category
// as AAD, advances the generation counter, deactivates any previously
// active pair for the same owner and category, and persists the new row
// as active. The whole sequence runs inside the store's owner lock so
// concurrent generate/rotate calls for the same (owner, category) cannot
// both observe "no active key" and both insert one.
func (m *Manager) Generate(ctx context.Context, ownerID string, category constants.UsageCategory, ttl *time.Duration) (*QuantumKeyPair, error) {
	return m.generate(ctx, ownerID, category, ttl, "")
}

func (m *Manager) generate(ctx context.Context, ownerID string, category constants.UsageCategory, ttl *time.Duration, deactivateReason string) (*QuantumKeyPair, error) {
	var result *QuantumKeyPair
	genStart := time.Now()

	err := m.store.WithinOwnerLock(ctx, ownerID, category, func(tx Store) error {
		kp, err := qcrypto.GenerateMLKEMKeyPair()
		if err != nil {
			return qerrors.Wrap(qerrors.Internal, "keymanager.Manager.Generate", err)
		}
		defer kp.Zeroize()

		privBytes := kp.DecapsulationKey.Bytes()
		defer qcrypto.Zeroize(privBytes)

		nonce, sealed, err := m.master.Wrap(privBytes, []byte(category))
		if err != nil {
			return err
		}

		maxGen, err := tx.MaxGeneration(ctx, ownerID, category)
		if err != nil {
			return err
		}

		if prev, err := tx.FindActive(ctx, ownerID, category); err == nil {
			if err := tx.Deactivate(ctx, prev.KeyID, time.Now().UTC(), deactivateReason); err != nil {
				return qerrors.Wrap(qerrors.Internal, "keymanager.Manager.Generate", err)
			}
		} else if qerrors.KindOf(err) != qerrors.NotFound {
			return err
		}

		row := &QuantumKeyPair{
			KeyID:             uuid.NewString(),
			OwnerID:           ownerID,
			UsageCategory:     category,
			Generation:        maxGen + 1,
			PublicKey:         kp.EncapsulationKey.Bytes(),
			WrappedPrivateKey: sealed,
			WrapNonce:         nonce,
			Active:            true,
			CreatedAt:         time.Now().UTC(),
		}
		if ttl != nil {
			expiry := row.CreatedAt.Add(*ttl)
			row.ExpiresAt = &expiry
		}

		if err := tx.Create(ctx, row); err != nil {
			return qerrors.Wrap(qerrors.Internal, "keymanager.Manager.Generate", err)
		}

		result = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	if m.observer != nil {
		m.observer.OnKeyGenerated(result.KeyID, time.Since(genStart))
	}
	return result, nil
}

// ActiveOrGenerate returns the currently active key pair for (ownerID,
// category), generating one if none exists yet. This is the binding
// behavior spec §4.4's init_swap describes: "preferring an existing active
// one for usage_category=bridge, else generates."
func (m *Manager) ActiveOrGenerate(ctx context.Context, ownerID string, category constants.UsageCategory) (*QuantumKeyPair, error) {
	active, err := m.store.FindActive(ctx, ownerID, category)
	if err == nil {
		return active, nil
	}
	if qerrors.KindOf(err) != qerrors.NotFound {
		return nil, err
	}
	return m.Generate(ctx, ownerID, category, nil)
}

// PublicOf returns the raw 1568-byte ML-KEM public key for keyID.
func (m *Manager) PublicOf(ctx context.Context, keyID string) ([]byte, error) {
	kp, err := m.store.Get(ctx, keyID)
	if err != nil {
		return nil, err
	}
	return kp.PublicKey, nil
}

// ExportPublicBase64 returns a stable base64 (standard, padded) encoding of
// the public key, for handing to peers over text-based wire formats.
func (m *Manager) ExportPublicBase64(ctx context.Context, keyID string) (string, error) {
	pub, err := m.PublicOf(ctx, keyID)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(pub), nil
}

// WithUnwrappedPrivate is the scoped acquisition spec §4.3 calls
// unwrap_private: it unwraps the private key, invokes fn synchronously, and
// zeroizes the plaintext private key buffer before returning, on every exit
// path including a panic recovered by fn's own caller. fn MUST NOT suspend
// (no I/O, no channel receive) — keeping the decrypted key off any
// await/suspension boundary, per the concurrency model's prohibition.
// Refuses with IntegrityFailed if the key is flagged compromised.
func (m *Manager) WithUnwrappedPrivate(ctx context.Context, keyID string, fn func(priv *qcrypto.MLKEMPrivateKey) error) error {
	kp, err := m.store.Get(ctx, keyID)
	if err != nil {
		return err
	}
	if kp.Compromised {
		return qerrors.Wrap(qerrors.IntegrityFailed, "keymanager.Manager.WithUnwrappedPrivate", qerrors.ErrKeyCompromised)
	}

	plaintext, err := m.master.Unwrap(kp.WrapNonce, kp.WrappedPrivateKey, []byte(kp.UsageCategory))
	if err != nil {
		return err
	}
	defer qcrypto.Zeroize(plaintext)

	priv, err := qcrypto.ParseMLKEMPrivateKey(plaintext)
	if err != nil {
		return qerrors.Wrap(qerrors.Internal, "keymanager.Manager.WithUnwrappedPrivate", err)
	}
	defer priv.Zeroize()

	return fn(priv)
}

// Rotate generates a fresh key pair in the same (owner, category) as
// keyID, which atomically becomes the new active pair while keyID's row
// is deactivated. Returns the new key's ID.
func (m *Manager) Rotate(ctx context.Context, keyID, reason string) (string, error) {
	kp, err := m.store.Get(ctx, keyID)
	if err != nil {
		return "", err
	}

	newKP, err := m.generate(ctx, kp.OwnerID, kp.UsageCategory, nil, reason)
	if err != nil {
		return "", qerrors.Wrap(qerrors.Internal, "keymanager.Manager.Rotate", err)
	}
	if m.observer != nil {
		m.observer.OnKeyRotation(keyID, newKP.KeyID)
	}
	return newKP.KeyID, nil
}

// MarkCompromised flags keyID compromised and deactivates it. Subsequent
// WithUnwrappedPrivate calls against it fail.
func (m *Manager) MarkCompromised(ctx context.Context, keyID string) error {
	if _, err := m.store.Get(ctx, keyID); err != nil {
		return err
	}
	return m.store.SetCompromised(ctx, keyID)
}

// CheckRotationNeeded returns the IDs of active keys older than
// thresholdDays.
func (m *Manager) CheckRotationNeeded(ctx context.Context, thresholdDays int) ([]string, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -thresholdDays)
	rows, err := m.store.ListActiveOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.KeyID)
	}
	return ids, nil
}
