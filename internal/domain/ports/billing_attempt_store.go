package ports

import (
	"context"

	"github.com/debitflow/sdd-reconciler/internal/domain"
)

// BillingAttemptStore defines the persistence boundary for billing attempts.
//
// The store must serialize the read-modify-write sequence per transaction_id:
// two concurrent notifications for the same attempt must not produce a lost
// update. The postgres implementation uses a single-statement compare-and-swap
// for status transitions and a row lock for the chargeback meta append.
type BillingAttemptStore interface {
	// FindByTransactionID retrieves the attempt correlated to a gateway
	// transaction identifier. Returns domain.ErrAttemptNotFound (wrapped in a
	// DomainError) when no attempt owns the id.
	FindByTransactionID(ctx context.Context, transactionID string) (*domain.BillingAttempt, error)

	// UpdateStatus transitions the attempt to the given status. The update is
	// a no-op when the stored status already matches; the bool reports whether
	// a row actually changed.
	UpdateStatus(ctx context.Context, transactionID string, status domain.BillingAttemptStatus) (bool, error)

	// ApplyChargeback atomically overwrites the attempt status to chargebacked
	// and appends the event to the attempt's meta, preserving all other meta
	// annotations. Returns the updated attempt, or domain.ErrAttemptNotFound.
	ApplyChargeback(ctx context.Context, transactionID string, event domain.ChargebackEvent) (*domain.BillingAttempt, error)
}
