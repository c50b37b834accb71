package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kembridge/kembridge-core/internal/constants"
	qerrors "github.com/kembridge/kembridge-core/internal/errors"
	"gorm.io/gorm"
)

func newUserID() string { return uuid.NewString() }

// nonceRow is the durable form of a Nonce. It is a separate type from Nonce
// (rather than tagging Nonce directly) so the wire-level Nonce stays free of
// persistence concerns.
type nonceRow struct {
	Wallet    string `gorm:"primaryKey"`
	Chain     string `gorm:"primaryKey"`
	Value     string `gorm:"primaryKey"`
	Message   string
	ExpiresAt time.Time
}

func (nonceRow) TableName() string { return "auth_nonces" }

// NonceStore persists issued nonces and supports the fetch-and-delete
// consumption spec §4.5 requires ("atomically fetch-and-delete the stored
// nonce (exactly-once)"). (wallet, nonce_value) is globally unique, so
// TakeAndDelete takes the claimed nonce value and only ever removes the
// matching row, leaving any other outstanding nonce for the same wallet
// untouched.
type NonceStore interface {
	Put(ctx context.Context, n *Nonce) error
	TakeAndDelete(ctx context.Context, wallet string, chain ChainType, nonceValue string) (*Nonce, error)
}

// UserStore maps (wallet, chain) to a stable user identity.
type UserStore interface {
	FindOrCreate(ctx context.Context, wallet string, chain ChainType, tier constants.UserTier) (*User, error)
}

// ---- gorm-backed stores -------------------------------------------------

type GormNonceStore struct{ db *gorm.DB }

func NewGormNonceStore(db *gorm.DB) *GormNonceStore { return &GormNonceStore{db: db} }

func (s *GormNonceStore) AutoMigrate() error { return s.db.AutoMigrate(&nonceRow{}) }

func (s *GormNonceStore) Put(ctx context.Context, n *Nonce) error {
	row := nonceRow{Wallet: n.Wallet, Chain: string(n.Chain), Value: n.Value, Message: n.Message, ExpiresAt: n.ExpiresAt}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *GormNonceStore) TakeAndDelete(ctx context.Context, wallet string, chain ChainType, nonceValue string) (*Nonce, error) {
	var found *Nonce
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row nonceRow
		if err := tx.Where("wallet = ? AND chain = ? AND value = ?", wallet, string(chain), nonceValue).First(&row).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return qerrors.Wrap(qerrors.Unauthorized, "auth.GormNonceStore.TakeAndDelete", qerrors.ErrNonceNotFound)
			}
			return qerrors.Wrap(qerrors.Internal, "auth.GormNonceStore.TakeAndDelete", err)
		}
		res := tx.Where("wallet = ? AND chain = ? AND value = ?", wallet, string(chain), nonceValue).Delete(&nonceRow{})
		if res.Error != nil {
			return qerrors.Wrap(qerrors.Internal, "auth.GormNonceStore.TakeAndDelete", res.Error)
		}
		if res.RowsAffected == 0 {
			// Raced with another consumer between the read and the delete.
			return qerrors.Wrap(qerrors.Unauthorized, "auth.GormNonceStore.TakeAndDelete", qerrors.ErrNonceNotFound)
		}
		found = &Nonce{Wallet: row.Wallet, Chain: ChainType(row.Chain), Value: row.Value, Message: row.Message, ExpiresAt: row.ExpiresAt}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

type GormUserStore struct{ db *gorm.DB }

func NewGormUserStore(db *gorm.DB) *GormUserStore { return &GormUserStore{db: db} }

func (s *GormUserStore) AutoMigrate() error { return s.db.AutoMigrate(&User{}) }

func (s *GormUserStore) FindOrCreate(ctx context.Context, wallet string, chain ChainType, tier constants.UserTier) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("wallet_address = ? AND chain_type = ?", wallet, string(chain)).First(&user).Error
		now := time.Now().UTC()
		if err == gorm.ErrRecordNotFound {
			user = User{
				UserID:        newUserID(),
				WalletAddress: wallet,
				ChainType:     chain,
				Tier:          constants.UserTier(tier),
				CreatedAt:     now,
				LastLoginAt:   now,
			}
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}
		user.LastLoginAt = now
		return tx.Model(&user).Updates(map[string]interface{}{"last_login_at": now}).Error
	})
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "auth.GormUserStore.FindOrCreate", err)
	}
	return &user, nil
}

// ---- in-memory stores (tests) -------------------------------------------

type MemoryNonceStore struct {
	mu   sync.Mutex
	rows map[string]*Nonce
}

func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{rows: make(map[string]*Nonce)}
}

// nonceKey identifies a user by (wallet, chain) only — used by
// MemoryUserStore, which is not keyed by nonce value.
func nonceKey(wallet string, chain ChainType) string { return string(chain) + ":" + wallet }

// nonceRowKey identifies an individual outstanding nonce by (wallet, chain,
// value), matching (wallet_address, nonce_value)'s uniqueness so consuming
// one nonce never deletes another still-outstanding one for the same wallet.
func nonceRowKey(wallet string, chain ChainType, value string) string {
	return nonceKey(wallet, chain) + ":" + value
}

func (s *MemoryNonceStore) Put(ctx context.Context, n *Nonce) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.rows[nonceRowKey(n.Wallet, n.Chain, n.Value)] = &cp
	return nil
}

func (s *MemoryNonceStore) TakeAndDelete(ctx context.Context, wallet string, chain ChainType, nonceValue string) (*Nonce, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := nonceRowKey(wallet, chain, nonceValue)
	n, ok := s.rows[key]
	if !ok {
		return nil, qerrors.Wrap(qerrors.Unauthorized, "auth.MemoryNonceStore.TakeAndDelete", qerrors.ErrNonceNotFound)
	}
	delete(s.rows, key)
	cp := *n
	return &cp, nil
}

type MemoryUserStore struct {
	mu    sync.Mutex
	byKey map[string]*User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{byKey: make(map[string]*User)}
}

func (s *MemoryUserStore) FindOrCreate(ctx context.Context, wallet string, chain ChainType, tier constants.UserTier) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := nonceKey(wallet, chain)
	now := time.Now().UTC()
	if u, ok := s.byKey[key]; ok {
		u.LastLoginAt = now
		cp := *u
		return &cp, nil
	}
	u := &User{
		UserID:        newUserID(),
		WalletAddress: wallet,
		ChainType:     chain,
		Tier:          constants.UserTier(tier),
		CreatedAt:     now,
		LastLoginAt:   now,
	}
	s.byKey[key] = u
	cp := *u
	return &cp, nil
}
