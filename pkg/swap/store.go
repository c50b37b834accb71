package swap

import (
	"context"
	"database/sql"
	"sync"
	"time"

	qerrors "github.com/kembridge/kembridge-core/internal/errors"
	"gorm.io/gorm"
)

// Store is the persistence contract for swap operations. Claim is the
// transactional compare-and-set that gates every transition: it succeeds
// only if the row's (State, UpdatedAt) still match what the caller last
// observed, guaranteeing no two concurrent executors advance the same
// swap_id past the same step.
type Store interface {
	Create(ctx context.Context, op *Operation) error
	Get(ctx context.Context, swapID string) (*Operation, error)

	// Claim applies mutate to the in-memory copy of the row (already
	// validated by the FSM) and persists it, but only if the row's current
	// (State, UpdatedAt) still equal expectedState/expectedUpdatedAt. On a
	// mismatch it returns ErrSwapAlreadyClaimed so the caller can reread
	// and retry or treat the step as already advanced.
	Claim(ctx context.Context, swapID string, expectedState State, expectedUpdatedAt time.Time, mutate func(op *Operation) error) (*Operation, error)

	// ListExpirable returns non-terminal, non-expired-state operations
	// whose ExpiresAt has passed, for the expiry sweep.
	ListExpirable(ctx context.Context, now time.Time) ([]*Operation, error)
}

// ---- gorm-backed store -----------------------------------------------

// GormStore is the production Store, backed by Postgres with
// repeatable-read transactions per spec §5.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

func (s *GormStore) AutoMigrate() error { return s.db.AutoMigrate(&Operation{}) }

func (s *GormStore) Create(ctx context.Context, op *Operation) error {
	return s.db.WithContext(ctx).Create(op).Error
}

func (s *GormStore) Get(ctx context.Context, swapID string) (*Operation, error) {
	var op Operation
	err := s.db.WithContext(ctx).Where("swap_id = ?", swapID).First(&op).Error
	if err == gorm.ErrRecordNotFound {
		return nil, qerrors.Wrap(qerrors.NotFound, "swap.GormStore.Get", qerrors.ErrSwapNotFound)
	}
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "swap.GormStore.Get", err)
	}
	return &op, nil
}

func (s *GormStore) Claim(ctx context.Context, swapID string, expectedState State, expectedUpdatedAt time.Time, mutate func(op *Operation) error) (*Operation, error) {
	var result *Operation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var op Operation
		if err := tx.Where("swap_id = ?", swapID).First(&op).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return qerrors.Wrap(qerrors.NotFound, "swap.GormStore.Claim", qerrors.ErrSwapNotFound)
			}
			return qerrors.Wrap(qerrors.Internal, "swap.GormStore.Claim", err)
		}
		if op.State != expectedState || !op.UpdatedAt.Equal(expectedUpdatedAt) {
			return qerrors.Wrap(qerrors.Conflict, "swap.GormStore.Claim", qerrors.ErrSwapAlreadyClaimed)
		}
		if err := mutate(&op); err != nil {
			return err
		}
		op.UpdatedAt = time.Now().UTC()

		// Updates (not Save) so the WHERE clause actually gates the write:
		// gorm's Save ignores a chained Where when the primary key is set,
		// which would silently defeat the compare-and-set.
		res := tx.Model(&Operation{}).
			Where("swap_id = ? AND state = ? AND updated_at = ?", swapID, expectedState, expectedUpdatedAt).
			Updates(map[string]interface{}{
				"state":           op.State,
				"history":         op.History,
				"source_tx_id":    op.SourceTxID,
				"dest_tx_id":      op.DestTxID,
				"refund_tx_id":    op.RefundTxID,
				"last_error":      op.LastError,
				"last_attempt_at": op.LastAttemptAt,
				"updated_at":      op.UpdatedAt,
			})
		if res.Error != nil {
			return qerrors.Wrap(qerrors.Internal, "swap.GormStore.Claim", res.Error)
		}
		if res.RowsAffected == 0 {
			return qerrors.Wrap(qerrors.Conflict, "swap.GormStore.Claim", qerrors.ErrSwapAlreadyClaimed)
		}
		result = &op
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *GormStore) ListExpirable(ctx context.Context, now time.Time) ([]*Operation, error) {
	var ops []*Operation
	err := s.db.WithContext(ctx).
		Where("expires_at < ? AND state NOT IN ?", now, []State{StateExpired, StateLockFailed, StateCompleted, StateRefunded, StateRefundFailed}).
		Find(&ops).Error
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "swap.GormStore.ListExpirable", err)
	}
	return ops, nil
}

// ---- in-memory store (tests) -------------------------------------------

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]*Operation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]*Operation)}
}

func (s *MemoryStore) Create(ctx context.Context, op *Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *op
	s.rows[op.SwapID] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, swapID string) (*Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.rows[swapID]
	if !ok {
		return nil, qerrors.Wrap(qerrors.NotFound, "swap.MemoryStore.Get", qerrors.ErrSwapNotFound)
	}
	cp := *op
	cp.History = append([]StateTransition(nil), op.History...)
	return &cp, nil
}

func (s *MemoryStore) Claim(ctx context.Context, swapID string, expectedState State, expectedUpdatedAt time.Time, mutate func(op *Operation) error) (*Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.rows[swapID]
	if !ok {
		return nil, qerrors.Wrap(qerrors.NotFound, "swap.MemoryStore.Claim", qerrors.ErrSwapNotFound)
	}
	if op.State != expectedState || !op.UpdatedAt.Equal(expectedUpdatedAt) {
		return nil, qerrors.Wrap(qerrors.Conflict, "swap.MemoryStore.Claim", qerrors.ErrSwapAlreadyClaimed)
	}

	working := *op
	working.History = append([]StateTransition(nil), op.History...)
	if err := mutate(&working); err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now().UTC()

	s.rows[swapID] = &working
	cp := working
	return &cp, nil
}

func (s *MemoryStore) ListExpirable(ctx context.Context, now time.Time) ([]*Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Operation
	for _, op := range s.rows {
		if op.State.Terminal() || op.State == StateExpired {
			continue
		}
		if op.ExpiresAt.Before(now) {
			cp := *op
			out = append(out, &cp)
		}
	}
	return out, nil
}
