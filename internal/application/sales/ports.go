package sales

import "context"

// CacheInvalidator drops cached read models derived from an owner's sales.
// Implementations are best effort: they log failures and never report them.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, ownerID int64)
}

// Metrics records outcomes of sale mutations
type Metrics interface {
	// ObserveMutation counts one create/update/delete with its outcome code
	// (the domain error code, or "ok").
	ObserveMutation(operation, outcome string)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, int64) {}

type noopMetrics struct{}

func (noopMetrics) ObserveMutation(string, string) {}
