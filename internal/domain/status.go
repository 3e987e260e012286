package domain

// Gateway transaction_type values the settlement path recognizes.
const (
	TransactionTypeChargeback       = "chargeback"
	TransactionTypeSDDSale          = "sdd_sale"
	TransactionTypeSDDRecurringSale = "sdd_recurring_sale"
)

// settlementTypes are the notification types reconciled against billing attempts.
// The gateway may introduce new types at any time; anything outside this set is
// acknowledged without processing.
var settlementTypes = map[string]bool{
	TransactionTypeSDDSale:          true,
	TransactionTypeSDDRecurringSale: true,
}

// IsSettlementType reports whether a transaction_type carries a settlement outcome.
func IsSettlementType(transactionType string) bool {
	return settlementTypes[transactionType]
}

// gatewayStatusMap translates the gateway's status vocabulary into billing
// attempt statuses. Chargebacked is deliberately absent: it is reachable only
// through the chargeback path, never through a settlement notification.
var gatewayStatusMap = map[string]BillingAttemptStatus{
	"approved":      BillingAttemptStatusApproved,
	"declined":      BillingAttemptStatusDeclined,
	"error":         BillingAttemptStatusError,
	"voided":        BillingAttemptStatusVoided,
	"pending":       BillingAttemptStatusPending,
	"pending_async": BillingAttemptStatusPending,
}

// MapGatewayStatus translates a gateway status into the internal vocabulary.
// The second return value is false when the gateway status has no mapping, in
// which case the attempt must be left untouched.
func MapGatewayStatus(gatewayStatus string) (BillingAttemptStatus, bool) {
	status, ok := gatewayStatusMap[gatewayStatus]
	return status, ok
}
