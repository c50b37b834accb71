package swap

import (
	"time"

	qerrors "github.com/kembridge/kembridge-core/internal/errors"
)

// transitions is the exact table from spec §4.4. A (from, to) pair absent
// from this map is not a legal transition under any circumstance.
var transitions = map[State]map[State]bool{
	StateInitialized:          {StateSourceLocking: true},
	StateSourceLocking:        {StateSourceLocked: true, StateLockFailed: true},
	StateSourceLocked:         {StateDestinationReleasing: true},
	StateDestinationReleasing: {StateCompleted: true, StateReleaseFailed: true},
	StateReleaseFailed:        {StateRefunding: true},
	StateExpired:              {StateRefunding: true},
	StateRefunding:            {StateRefunded: true, StateRefundFailed: true},
}

// validTransition reports whether moving from "from" to "to" is a legal
// single step of the FSM.
func validTransition(from, to State) bool {
	targets, ok := transitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// expirable reports whether a non-terminal state can be preempted by a
// timeout transition into StateExpired regardless of the transitions table
// (every non-terminal, non-Expired, non-Refunding state is eligible — a
// swap already refunding or already expired does not re-expire).
func expirable(s State) bool {
	if s.Terminal() {
		return false
	}
	return s != StateExpired && s != StateRefunding
}

// apply validates and performs one FSM step, returning the updated history
// entry. It does not persist anything; callers call this inside a
// transactional claim.
func apply(op *Operation, to State, note string) (*StateTransition, error) {
	from := op.State
	if !validTransition(from, to) && !(to == StateExpired && expirable(from)) {
		return nil, qerrors.Wrap(qerrors.Conflict, "swap.apply", qerrors.ErrInvalidTransition)
	}
	return &StateTransition{From: from, To: to, At: time.Now().UTC(), Note: note}, nil
}
