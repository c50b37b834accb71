package swap

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/kembridge/kembridge-core/internal/constants"
	qerrors "github.com/kembridge/kembridge-core/internal/errors"
	"github.com/kembridge/kembridge-core/pkg/envelope"
	"github.com/kembridge/kembridge-core/pkg/keymanager"
	"github.com/kembridge/kembridge-core/pkg/metrics"
	"github.com/kembridge/kembridge-core/pkg/qcrypto"
	"github.com/kembridge/kembridge-core/pkg/ratelimit"
)

// routingPayload is the plaintext sealed into every swap's envelope. It
// exists purely as the envelope's cargo; the coordinator never reasons
// about it beyond sealing and, when needed by an auditor, opening it.
type routingPayload struct {
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
	Amount      string `json:"amount"`
	FromChain   string `json:"from_chain"`
	ToChain     string `json:"to_chain"`
}

// InitResult is the immediate response to init_swap.
type InitResult struct {
	SwapID               string
	State                State
	EstimatedTimeMinutes int
}

// Coordinator implements C4's init_swap / execute_swap / get_swap.
type Coordinator struct {
	store    Store
	keys     *keymanager.Manager
	adapters map[string]ChainAdapter
	observer *metrics.BridgeObserver
	limiter  *ratelimit.TokenBucketLimiter
}

// NewCoordinator builds a Coordinator over store and keys, dispatching
// chain-specific work to adapters keyed by chain name (e.g. "ethereum",
// "near").
func NewCoordinator(store Store, keys *keymanager.Manager, adapters map[string]ChainAdapter) *Coordinator {
	return &Coordinator{store: store, keys: keys, adapters: adapters}
}

// SetObserver attaches a BridgeObserver that records metrics and structured
// logs for every swap lifecycle event and adapter call.
func (c *Coordinator) SetObserver(o *metrics.BridgeObserver) {
	c.observer = o
}

// SetRateLimiter attaches a per-user token bucket gating init_swap. Callers
// exceeding the limit receive ErrRateLimited.
func (c *Coordinator) SetRateLimiter(l *ratelimit.TokenBucketLimiter) {
	c.limiter = l
}

// InitSwap validates the request, binds a quantum key, seals the routing
// envelope, and persists the operation in StateInitialized. Execution is
// driven by subsequent ExecuteSwap calls.
func (c *Coordinator) InitSwap(ctx context.Context, userID, fromChain, toChain, amount, recipient string) (*InitResult, error) {
	if c.limiter != nil && !c.limiter.Allow(userID) {
		return nil, qerrors.Wrap(qerrors.RateLimited, "swap.Coordinator.InitSwap", qerrors.ErrRateLimited)
	}
	if _, ok := c.adapters[fromChain]; !ok {
		return nil, qerrors.Wrap(qerrors.InvalidInput, "swap.Coordinator.InitSwap", qerrors.ErrUnsupportedChain)
	}
	toAdapter, ok := c.adapters[toChain]
	if !ok {
		return nil, qerrors.Wrap(qerrors.InvalidInput, "swap.Coordinator.InitSwap", qerrors.ErrUnsupportedChain)
	}
	if fromChain == toChain {
		return nil, qerrors.Wrap(qerrors.InvalidInput, "swap.Coordinator.InitSwap", qerrors.ErrUnsupportedChain)
	}
	if !toAdapter.ValidateAddress(recipient) {
		return nil, qerrors.New(qerrors.InvalidInput, "swap.Coordinator.InitSwap")
	}
	amountValue, ok := new(big.Int).SetString(amount, 10)
	if !ok || amountValue.Sign() <= 0 {
		return nil, qerrors.New(qerrors.InvalidInput, "swap.Coordinator.InitSwap")
	}

	kp, err := c.keys.ActiveOrGenerate(ctx, "", constants.UsageCategoryBridge)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "swap.Coordinator.InitSwap", err)
	}
	pub, err := qcrypto.ParseMLKEMPublicKey(kp.PublicKey)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "swap.Coordinator.InitSwap", err)
	}

	swapID := uuid.NewString()

	payload, err := json.Marshal(routingPayload{
		FromAddress: userID,
		ToAddress:   recipient,
		Amount:      amount,
		FromChain:   fromChain,
		ToChain:     toChain,
	})
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "swap.Coordinator.InitSwap", err)
	}

	env, err := envelope.Seal(pub, kp.KeyID, "swap:"+swapID, payload)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "swap.Coordinator.InitSwap", err)
	}
	wire, err := envelope.Encode(env)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "swap.Coordinator.InitSwap", err)
	}

	now := time.Now().UTC()
	op := &Operation{
		SwapID:         swapID,
		UserID:         userID,
		FromChain:      fromChain,
		ToChain:        toChain,
		Amount:         amount,
		Recipient:      recipient,
		QuantumKeyID:   kp.KeyID,
		SealedEnvelope: wire,
		State:          StateInitialized,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(constants.DefaultSwapTimeoutMinutes * time.Minute),
		History:        []StateTransition{{From: "", To: StateInitialized, At: now, Note: "init_swap"}},
	}
	if err := c.store.Create(ctx, op); err != nil {
		return nil, qerrors.Wrap(qerrors.Internal, "swap.Coordinator.InitSwap", err)
	}

	if c.observer != nil {
		c.observer.OnSwapInitiated(swapID, fromChain, toChain)
	}

	return &InitResult{
		SwapID:               swapID,
		State:                StateInitialized,
		EstimatedTimeMinutes: constants.DefaultEstimatedTimeMinutes,
	}, nil
}

// AuditRoutingPayload opens swapID's sealed envelope and returns its
// routing payload in plaintext, restricted to Admin callers. A decapsulation
// failure or a tampered AEAD/MAC check is reported to the observer as an
// envelope integrity failure before the classified error is returned.
func (c *Coordinator) AuditRoutingPayload(ctx context.Context, swapID string, callerTier constants.UserTier) (*routingPayload, error) {
	if callerTier != constants.UserTierAdmin {
		return nil, qerrors.Wrap(qerrors.NotFound, "swap.Coordinator.AuditRoutingPayload", qerrors.ErrSwapNotFound)
	}
	op, err := c.store.Get(ctx, swapID)
	if err != nil {
		return nil, err
	}
	env, err := envelope.Decode(op.SealedEnvelope)
	if err != nil {
		if c.observer != nil {
			c.observer.OnEnvelopeIntegrityFailure("malformed wire encoding")
		}
		return nil, err
	}

	var payload routingPayload
	err = c.keys.WithUnwrappedPrivate(ctx, op.QuantumKeyID, func(priv *qcrypto.MLKEMPrivateKey) error {
		plaintext, err := envelope.Open(priv, "swap:"+swapID, env)
		if err != nil {
			return err
		}
		return json.Unmarshal(plaintext, &payload)
	})
	if err != nil {
		if c.observer != nil && qerrors.KindOf(err) == qerrors.IntegrityFailed {
			c.observer.OnEnvelopeIntegrityFailure(err.Error())
		}
		return nil, err
	}
	return &payload, nil
}

// GetSwap returns the operation for swapID, rejecting callers that are
// neither the operation's owner nor an Admin. A mismatch and a genuinely
// missing row return the same NotFound kind so the caller cannot
// distinguish "doesn't exist" from "not yours."
func (c *Coordinator) GetSwap(ctx context.Context, swapID, callerUserID string, callerTier constants.UserTier) (*Operation, error) {
	op, err := c.store.Get(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if op.UserID != callerUserID && callerTier != constants.UserTierAdmin {
		return nil, qerrors.Wrap(qerrors.NotFound, "swap.Coordinator.GetSwap", qerrors.ErrSwapNotFound)
	}
	return op, nil
}

// ExecuteSwap advances swapID's state machine by at most one confirmed
// transition. It is safe to call repeatedly: a call against a terminal
// state is a no-op that returns the current record, and a call that only
// observes an adapter timeout leaves the row exactly where it was (plus a
// recorded attempt timestamp) for the next call to retry.
func (c *Coordinator) ExecuteSwap(ctx context.Context, swapID string) (*Operation, error) {
	op, err := c.store.Get(ctx, swapID)
	if err != nil {
		return nil, err
	}

	if op.State.Terminal() {
		return op, nil
	}

	if expirable(op.State) && time.Now().UTC().After(op.ExpiresAt) {
		expired, err := c.claim(ctx, op, StateExpired, "swap expired")
		if err != nil {
			if qerrors.KindOf(err) == qerrors.Conflict {
				return c.store.Get(ctx, swapID)
			}
			return nil, err
		}
		return expired, nil
	}

	switch op.State {
	case StateInitialized:
		return c.claim(ctx, op, StateSourceLocking, "begin lock")

	case StateSourceLocking:
		return c.runLock(ctx, op)

	case StateSourceLocked:
		return c.claim(ctx, op, StateDestinationReleasing, "begin release")

	case StateDestinationReleasing:
		return c.runRelease(ctx, op)

	case StateReleaseFailed, StateExpired:
		return c.claim(ctx, op, StateRefunding, "begin refund")

	case StateRefunding:
		return c.runRefund(ctx, op)

	default:
		return op, nil
	}
}

func (c *Coordinator) claim(ctx context.Context, op *Operation, to State, note string) (*Operation, error) {
	return c.claimWith(ctx, op, to, note, nil)
}

func (c *Coordinator) claimWith(ctx context.Context, op *Operation, to State, note string, extra func(*Operation)) (*Operation, error) {
	from := op.State
	tr, err := apply(op, to, note)
	if err != nil {
		return nil, err
	}
	updated, err := c.store.Claim(ctx, op.SwapID, op.State, op.UpdatedAt, func(o *Operation) error {
		o.State = to
		o.History = append(o.History, *tr)
		if extra != nil {
			extra(o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if c.observer != nil {
		c.observer.OnSwapStateTransition(op.SwapID, string(from), string(to))
		if to.Terminal() {
			c.observer.OnSwapTerminal(op.SwapID, string(to), updated.UpdatedAt.Sub(op.CreatedAt))
		}
	}
	return updated, nil
}

func (c *Coordinator) recordAttempt(ctx context.Context, op *Operation, errMsg string) (*Operation, error) {
	return c.store.Claim(ctx, op.SwapID, op.State, op.UpdatedAt, func(o *Operation) error {
		now := time.Now().UTC()
		o.LastAttemptAt = &now
		o.LastError = errMsg
		return nil
	})
}

func pastGraceWindow(op *Operation) bool {
	if op.LastAttemptAt == nil {
		return false
	}
	return time.Since(*op.LastAttemptAt) > time.Duration(constants.RecoveryGraceWindowSeconds)*time.Second
}

func withAdapterTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(constants.AdapterCallTimeoutSeconds)*time.Second)
}

func (c *Coordinator) runLock(ctx context.Context, op *Operation) (*Operation, error) {
	if pastGraceWindow(op) {
		return c.claimWith(ctx, op, StateLockFailed, "lock not confirmed within recovery grace window", func(o *Operation) {
			o.LastError = "adapter lock unconfirmed past grace window"
		})
	}

	adapter, ok := c.adapters[op.FromChain]
	if !ok {
		return nil, qerrors.Wrap(qerrors.Internal, "swap.Coordinator.runLock", qerrors.ErrAdapterUnavailable)
	}

	callCtx, cancel := withAdapterTimeout(ctx)
	defer cancel()

	var endCall func(error)
	if c.observer != nil {
		callCtx, endCall = c.observer.OnAdapterCall(callCtx, metrics.SpanSwapLock, op.FromChain)
	}

	txID, err := adapter.Lock(callCtx, op.UserID, op.Amount, op.ToChain, op.QuantumKeyID, op.UserID, op.IdempotencyKey(stepLock))
	if endCall != nil {
		endCall(err)
	}
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			attempted, recErr := c.recordAttempt(ctx, op, "adapter timeout on lock")
			if recErr != nil {
				return nil, recErr
			}
			return attempted, qerrors.Wrap(qerrors.AdapterTimeout, "swap.Coordinator.runLock", err)
		}
		return c.claimWith(ctx, op, StateLockFailed, "source adapter error", func(o *Operation) {
			o.LastError = err.Error()
		})
	}

	return c.claimWith(ctx, op, StateSourceLocked, "source adapter confirmed", func(o *Operation) {
		o.SourceTxID = txID
	})
}

func (c *Coordinator) runRelease(ctx context.Context, op *Operation) (*Operation, error) {
	if pastGraceWindow(op) {
		return c.claimWith(ctx, op, StateReleaseFailed, "release not confirmed within recovery grace window", func(o *Operation) {
			o.LastError = "adapter release unconfirmed past grace window"
		})
	}

	adapter, ok := c.adapters[op.ToChain]
	if !ok {
		return nil, qerrors.Wrap(qerrors.Internal, "swap.Coordinator.runRelease", qerrors.ErrAdapterUnavailable)
	}

	callCtx, cancel := withAdapterTimeout(ctx)
	defer cancel()

	var endCall func(error)
	if c.observer != nil {
		callCtx, endCall = c.observer.OnAdapterCall(callCtx, metrics.SpanSwapRelease, op.ToChain)
	}

	txID, err := adapter.Release(callCtx, op.Recipient, op.Amount, op.SourceTxID, op.QuantumKeyID, op.IdempotencyKey(stepRelease))
	if endCall != nil {
		endCall(err)
	}
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			attempted, recErr := c.recordAttempt(ctx, op, "adapter timeout on release")
			if recErr != nil {
				return nil, recErr
			}
			return attempted, qerrors.Wrap(qerrors.AdapterTimeout, "swap.Coordinator.runRelease", err)
		}
		return c.claimWith(ctx, op, StateReleaseFailed, "destination adapter error", func(o *Operation) {
			o.LastError = err.Error()
		})
	}

	return c.claimWith(ctx, op, StateCompleted, "destination adapter confirmed", func(o *Operation) {
		o.DestTxID = txID
	})
}

func (c *Coordinator) runRefund(ctx context.Context, op *Operation) (*Operation, error) {
	if pastGraceWindow(op) {
		return c.claimWith(ctx, op, StateRefundFailed, "refund not confirmed within recovery grace window", func(o *Operation) {
			o.LastError = "adapter refund unconfirmed past grace window"
		})
	}

	adapter, ok := c.adapters[op.FromChain]
	if !ok {
		return nil, qerrors.Wrap(qerrors.Internal, "swap.Coordinator.runRefund", qerrors.ErrAdapterUnavailable)
	}

	callCtx, cancel := withAdapterTimeout(ctx)
	defer cancel()

	var endCall func(error)
	if c.observer != nil {
		callCtx, endCall = c.observer.OnAdapterCall(callCtx, metrics.SpanSwapRefund, op.FromChain)
	}

	txID, err := adapter.Refund(callCtx, op.UserID, op.Amount, op.SourceTxID, op.IdempotencyKey(stepRefund))
	if endCall != nil {
		endCall(err)
	}
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			attempted, recErr := c.recordAttempt(ctx, op, "adapter timeout on refund")
			if recErr != nil {
				return nil, recErr
			}
			return attempted, qerrors.Wrap(qerrors.AdapterTimeout, "swap.Coordinator.runRefund", err)
		}
		return c.claimWith(ctx, op, StateRefundFailed, "source adapter refund error", func(o *Operation) {
			o.LastError = err.Error()
		})
	}

	return c.claimWith(ctx, op, StateRefunded, "source adapter refund confirmed", func(o *Operation) {
		o.RefundTxID = txID
	})
}
