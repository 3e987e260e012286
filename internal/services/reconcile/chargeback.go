package reconcile

import (
	"context"
	"time"

	"github.com/debitflow/sdd-reconciler/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ApplyChargeback correlates a chargeback notification with the billing attempt
// owning original_transaction_unique_id and applies the reversal: status is
// overwritten to chargebacked regardless of prior state (chargebacks are
// authoritative and the gateway does not guarantee ordering), and a typed
// evidence record is appended to the attempt's meta. Replays of the same
// chargeback unique_id re-apply idempotently without duplicating evidence.
func (s *Service) ApplyChargeback(ctx context.Context, n *domain.WebhookNotification) (*domain.BillingAttempt, error) {
	if n.OriginalTransactionUniqueID == "" {
		// Chargebacks are rare and high-value; a malformed one gets the full
		// payload logged for manual triage, unlike settlement notifications.
		s.logger.Error("Chargeback notification missing original_transaction_unique_id",
			zap.String("transaction_type", n.TransactionType),
			zap.String("unique_id", n.UniqueID),
			zap.String("amount", n.Amount.String()),
			zap.String("currency", n.Currency),
			zap.String("reason", n.Reason),
			zap.String("status", n.Status),
		)
		notificationsTotal.WithLabelValues(typeChargeback, outcomeRejected).Inc()
		return nil, domain.NewMissingFieldError("original_transaction_unique_id")
	}

	event := domain.ChargebackEvent{
		UniqueID:   n.UniqueID,
		Currency:   n.Currency,
		Reason:     n.Reason,
		ReceivedAt: time.Now().UTC(),
	}
	cbAmount := n.AmountDecimal()
	if cbAmount != nil {
		event.Amount = *cbAmount
	}

	attempt, err := s.store.ApplyChargeback(ctx, n.OriginalTransactionUniqueID, event)
	if err != nil {
		if domain.IsNotFoundError(err) {
			// Either a data gap or a race with attempt creation; operators
			// should see it, the gateway should not retry forever.
			s.logger.Warn("Chargeback references unknown transaction",
				zap.String("original_transaction_unique_id", n.OriginalTransactionUniqueID),
				zap.String("chargeback_unique_id", n.UniqueID),
			)
			notificationsTotal.WithLabelValues(typeChargeback, outcomeUntracked).Inc()
		}
		return nil, err
	}

	s.logger.Info("Chargeback applied",
		zap.String("transaction_id", attempt.TransactionID),
		zap.String("chargeback_unique_id", n.UniqueID),
		zap.String("reason", n.Reason),
		zap.String("amount", event.Amount.String()),
		zap.String("currency", n.Currency),
	)
	notificationsTotal.WithLabelValues(typeChargeback, outcomeApplied).Inc()
	chargebacksAppliedTotal.Inc()

	s.checkAmountAnomaly(attempt, cbAmount, n.UniqueID)

	return attempt, nil
}

// checkAmountAnomaly flags chargebacks whose amount falls into a different
// billing model than the original charge. The tier boundaries are a
// load-bearing business invariant; a chargeback crossing them is a fraud
// signal, not a processing failure.
func (s *Service) checkAmountAnomaly(attempt *domain.BillingAttempt, cbAmount *decimal.Decimal, chargebackID string) {
	originalModel := domain.ClassifyAmount(&attempt.Amount)
	chargebackModel := domain.ClassifyAmount(cbAmount)

	if cbAmount != nil && originalModel != chargebackModel {
		s.logger.Warn("Chargeback amount crosses billing model boundary",
			zap.String("transaction_id", attempt.TransactionID),
			zap.String("chargeback_unique_id", chargebackID),
			zap.String("original_amount", attempt.Amount.String()),
			zap.String("original_model", string(originalModel)),
			zap.String("chargeback_amount", cbAmount.String()),
			zap.String("chargeback_model", string(chargebackModel)),
		)
		chargebackAnomaliesTotal.Inc()
	}
}
