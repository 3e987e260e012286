// Package reconcile applies inbound gateway notifications to locally tracked
// billing attempts. It never creates attempts; that belongs to the outbound
// charging flow. Every operation is idempotent: replaying a notification
// produces no additional writes beyond the first application.
package reconcile

import (
	"context"

	"github.com/debitflow/sdd-reconciler/internal/domain"
	"github.com/debitflow/sdd-reconciler/internal/domain/ports"
	"go.uber.org/zap"
)

// Service is the reconciliation core shared by the webhook dispatcher and the
// batch replay trigger
type Service struct {
	store  ports.BillingAttemptStore
	logger *zap.Logger
}

// NewService creates a reconciliation service
func NewService(store ports.BillingAttemptStore, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// SettlementResult reports what a settlement notification did
type SettlementResult struct {
	// Message is surfaced to the gateway in the response envelope
	Message string
	// Updated is true when a status transition was written
	Updated bool
}

// ApplySettlement reconciles a settlement notification (sdd_sale and friends)
// against the billing attempt owning the notification's unique_id.
//
// A transaction the gateway reports but we never tracked is not an error: the
// gateway also notifies about test traffic and out-of-scope accounts. An
// unmapped gateway status, or a status equal to the stored one, leaves the
// attempt untouched.
func (s *Service) ApplySettlement(ctx context.Context, uniqueID, gatewayStatus string) (*SettlementResult, error) {
	if uniqueID == "" {
		notificationsTotal.WithLabelValues(typeSettlement, outcomeRejected).Inc()
		return nil, domain.NewMissingFieldError("unique_id")
	}

	attempt, err := s.store.FindByTransactionID(ctx, uniqueID)
	if err != nil {
		if domain.IsNotFoundError(err) {
			s.logger.Info("Settlement notification for untracked transaction",
				zap.String("transaction_id", uniqueID),
				zap.String("gateway_status", gatewayStatus),
			)
			notificationsTotal.WithLabelValues(typeSettlement, outcomeUntracked).Inc()
			return &SettlementResult{Message: "Transaction not tracked"}, nil
		}
		return nil, err
	}

	mapped, ok := domain.MapGatewayStatus(gatewayStatus)
	if !ok {
		s.logger.Info("Settlement notification with unmapped gateway status",
			zap.String("transaction_id", uniqueID),
			zap.String("gateway_status", gatewayStatus),
		)
		notificationsTotal.WithLabelValues(typeSettlement, outcomeSkipped).Inc()
		return &SettlementResult{Message: "Status not mapped"}, nil
	}

	if mapped == attempt.Status {
		notificationsTotal.WithLabelValues(typeSettlement, outcomeNoop).Inc()
		return &SettlementResult{Message: "Status unchanged"}, nil
	}

	changed, err := s.store.UpdateStatus(ctx, uniqueID, mapped)
	if err != nil {
		return nil, err
	}
	if !changed {
		// A concurrent delivery won the race; same end state either way.
		notificationsTotal.WithLabelValues(typeSettlement, outcomeNoop).Inc()
		return &SettlementResult{Message: "Status unchanged"}, nil
	}

	s.logger.Info("Billing attempt status updated",
		zap.String("transaction_id", uniqueID),
		zap.String("old_status", string(attempt.Status)),
		zap.String("new_status", string(mapped)),
		zap.Int32("attempt_number", attempt.AttemptNumber),
	)
	notificationsTotal.WithLabelValues(typeSettlement, outcomeApplied).Inc()
	settlementTransitionsTotal.WithLabelValues(string(attempt.Status), string(mapped)).Inc()

	return &SettlementResult{Updated: true, Message: "Status updated"}, nil
}
