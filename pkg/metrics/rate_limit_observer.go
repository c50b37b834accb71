package metrics

import "github.com/kembridge/kembridge-core/pkg/ratelimit"

// RateLimitObserver implements ratelimit.Observer and records rate limit
// events for a single scope ("nonce" or "swap").
type RateLimitObserver struct {
	collector *Collector
	logger    *Logger
	scope     string
}

var _ ratelimit.Observer = (*RateLimitObserver)(nil)

// NewRateLimitObserver creates a rate limit observer that records metrics
// and logs events for the given scope.
func NewRateLimitObserver(collector *Collector, logger *Logger, scope string) *RateLimitObserver {
	if collector == nil {
		collector = Global()
	}
	if logger == nil {
		logger = GetLogger()
	}

	return &RateLimitObserver{
		collector: collector,
		logger:    logger.Named("rate_limit"),
		scope:     scope,
	}
}

// OnLimited implements ratelimit.Observer.
func (o *RateLimitObserver) OnLimited(key string) {
	switch o.scope {
	case "nonce":
		o.collector.RecordNonceRateLimit()
	case "swap":
		o.collector.RecordSwapRateLimit()
	}
	o.logger.Warn("rate limit exceeded", Fields{"scope": o.scope, "key": key})
}
