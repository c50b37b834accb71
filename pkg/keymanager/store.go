package keymanager

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/kembridge/kembridge-core/internal/constants"
	qerrors "github.com/kembridge/kembridge-core/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the persistence contract the Manager drives. WithinOwnerLock
// brackets generate/rotate in the row-level transactional lock the
// at-most-one-active invariant requires; every other method is a plain
// read or a single-row write.
type Store interface {
	// WithinOwnerLock runs fn inside a transaction holding a row-level
	// (or, for stores with no such concept, a process-level) lock scoped
	// to (ownerID, category), serializing concurrent generate/rotate calls
	// for the same owner and category.
	WithinOwnerLock(ctx context.Context, ownerID string, category constants.UsageCategory, fn func(tx Store) error) error

	Create(ctx context.Context, kp *QuantumKeyPair) error
	Get(ctx context.Context, keyID string) (*QuantumKeyPair, error)
	FindActive(ctx context.Context, ownerID string, category constants.UsageCategory) (*QuantumKeyPair, error)
	MaxGeneration(ctx context.Context, ownerID string, category constants.UsageCategory) (int, error)
	Deactivate(ctx context.Context, keyID string, rotatedAt time.Time, reason string) error
	SetCompromised(ctx context.Context, keyID string) error
	ListActiveOlderThan(ctx context.Context, cutoff time.Time) ([]*QuantumKeyPair, error)
}

// ---- gorm-backed store -----------------------------------------------

// GormStore is the production Store backed by Postgres via gorm, grounded
// on the teacher's use of gorm.io/gorm elsewhere in the stack's ambient
// config layer. Row-level locking uses SELECT ... FOR UPDATE via
// clause.Locking inside a repeatable-read transaction.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an established gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates or updates the quantum_key_pairs table.
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&QuantumKeyPair{})
}

func (s *GormStore) WithinOwnerLock(ctx context.Context, ownerID string, category constants.UsageCategory, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock any existing active row for this (owner, category) so a
		// concurrent generate/rotate blocks until this transaction commits.
		// If no row exists yet the lock is a no-op and Postgres falls back
		// to serializing on the unique constraint at insert time.
		var existing QuantumKeyPair
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("owner_id = ? AND usage_category = ? AND active = ?", ownerID, category, true).
			First(&existing).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return err
		}
		return fn(&GormStore{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
}

func (s *GormStore) Create(ctx context.Context, kp *QuantumKeyPair) error {
	return s.db.WithContext(ctx).Create(kp).Error
}

func (s *GormStore) Get(ctx context.Context, keyID string) (*QuantumKeyPair, error) {
	var kp QuantumKeyPair
	err := s.db.WithContext(ctx).Where("key_id = ?", keyID).First(&kp).Error
	if err == gorm.ErrRecordNotFound {
		return nil, qerrors.Wrap(qerrors.NotFound, "keymanager.GormStore.Get", qerrors.ErrKeyNotFound)
	}
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "keymanager.GormStore.Get", err)
	}
	return &kp, nil
}

func (s *GormStore) FindActive(ctx context.Context, ownerID string, category constants.UsageCategory) (*QuantumKeyPair, error) {
	var kp QuantumKeyPair
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND usage_category = ? AND active = ?", ownerID, category, true).
		First(&kp).Error
	if err == gorm.ErrRecordNotFound {
		return nil, qerrors.Wrap(qerrors.NotFound, "keymanager.GormStore.FindActive", qerrors.ErrKeyNotFound)
	}
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "keymanager.GormStore.FindActive", err)
	}
	return &kp, nil
}

func (s *GormStore) MaxGeneration(ctx context.Context, ownerID string, category constants.UsageCategory) (int, error) {
	var max int
	row := s.db.WithContext(ctx).Model(&QuantumKeyPair{}).
		Where("owner_id = ? AND usage_category = ?", ownerID, category).
		Select("COALESCE(MAX(generation), 0)").Row()
	if err := row.Scan(&max); err != nil {
		return 0, qerrors.Wrap(qerrors.Internal, "keymanager.GormStore.MaxGeneration", err)
	}
	return max, nil
}

func (s *GormStore) Deactivate(ctx context.Context, keyID string, rotatedAt time.Time, reason string) error {
	return s.db.WithContext(ctx).Model(&QuantumKeyPair{}).
		Where("key_id = ?", keyID).
		Updates(map[string]interface{}{"active": false, "rotated_at": rotatedAt, "rotation_reason": reason}).Error
}

func (s *GormStore) SetCompromised(ctx context.Context, keyID string) error {
	return s.db.WithContext(ctx).Model(&QuantumKeyPair{}).
		Where("key_id = ?", keyID).
		Updates(map[string]interface{}{"compromised": true, "active": false}).Error
}

func (s *GormStore) ListActiveOlderThan(ctx context.Context, cutoff time.Time) ([]*QuantumKeyPair, error) {
	var kps []*QuantumKeyPair
	err := s.db.WithContext(ctx).
		Where("active = ? AND created_at < ?", true, cutoff).
		Find(&kps).Error
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "keymanager.GormStore.ListActiveOlderThan", err)
	}
	return kps, nil
}

// ---- in-memory store (tests, local development) -----------------------

// MemoryStore is an in-process Store used by tests and by the standalone
// demo binary. WithinOwnerLock is a per-(owner,category) sync.Mutex,
// serving the same serialization role a Postgres row lock plays in
// production.
type MemoryStore struct {
	mu    sync.Mutex
	rows  map[string]*QuantumKeyPair
	locks map[string]*sync.Mutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:  make(map[string]*QuantumKeyPair),
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *MemoryStore) lockFor(ownerID string, category constants.UsageCategory) *sync.Mutex {
	key := ownerID + "|" + string(category)
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func (s *MemoryStore) WithinOwnerLock(ctx context.Context, ownerID string, category constants.UsageCategory, fn func(tx Store) error) error {
	l := s.lockFor(ownerID, category)
	l.Lock()
	defer l.Unlock()
	return fn(s)
}

func (s *MemoryStore) Create(ctx context.Context, kp *QuantumKeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *kp
	s.rows[kp.KeyID] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, keyID string) (*QuantumKeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kp, ok := s.rows[keyID]
	if !ok {
		return nil, qerrors.Wrap(qerrors.NotFound, "keymanager.MemoryStore.Get", qerrors.ErrKeyNotFound)
	}
	cp := *kp
	return &cp, nil
}

func (s *MemoryStore) FindActive(ctx context.Context, ownerID string, category constants.UsageCategory) (*QuantumKeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kp := range s.rows {
		if kp.OwnerID == ownerID && kp.UsageCategory == category && kp.Active {
			cp := *kp
			return &cp, nil
		}
	}
	return nil, qerrors.Wrap(qerrors.NotFound, "keymanager.MemoryStore.FindActive", qerrors.ErrKeyNotFound)
}

func (s *MemoryStore) MaxGeneration(ctx context.Context, ownerID string, category constants.UsageCategory) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := 0
	for _, kp := range s.rows {
		if kp.OwnerID == ownerID && kp.UsageCategory == category && kp.Generation > max {
			max = kp.Generation
		}
	}
	return max, nil
}

func (s *MemoryStore) Deactivate(ctx context.Context, keyID string, rotatedAt time.Time, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kp, ok := s.rows[keyID]
	if !ok {
		return qerrors.Wrap(qerrors.NotFound, "keymanager.MemoryStore.Deactivate", qerrors.ErrKeyNotFound)
	}
	kp.Active = false
	t := rotatedAt
	kp.RotatedAt = &t
	kp.RotationReason = reason
	return nil
}

func (s *MemoryStore) SetCompromised(ctx context.Context, keyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kp, ok := s.rows[keyID]
	if !ok {
		return qerrors.Wrap(qerrors.NotFound, "keymanager.MemoryStore.SetCompromised", qerrors.ErrKeyNotFound)
	}
	kp.Compromised = true
	kp.Active = false
	return nil
}

func (s *MemoryStore) ListActiveOlderThan(ctx context.Context, cutoff time.Time) ([]*QuantumKeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*QuantumKeyPair
	for _, kp := range s.rows {
		if kp.Active && kp.CreatedAt.Before(cutoff) {
			cp := *kp
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KeyID < out[j].KeyID })
	return out, nil
}
