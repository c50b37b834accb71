package swap

// Step labels used to derive a per-operation, per-step idempotency key
// (Operation.IdempotencyKey) so a retried adapter call after a timeout or
// crash recovery is recognized as the same request rather than a new one.
const (
	stepLock    = "lock"
	stepRelease = "release"
	stepRefund  = "refund"
)
