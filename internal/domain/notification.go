package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// WebhookNotification is the transient, flat payload delivered by the gateway.
// It is never persisted as-is; only the fields below are consumed. Amount is a
// json.Number so both numeric and numeric-string deliveries decode.
type WebhookNotification struct {
	TransactionType             string      `json:"transaction_type"`
	UniqueID                    string      `json:"unique_id"`
	Signature                   string      `json:"signature"`
	OriginalTransactionUniqueID string      `json:"original_transaction_unique_id"`
	Amount                      json.Number `json:"amount"`
	Currency                    string      `json:"currency"`
	Reason                      string      `json:"reason"`
	Status                      string      `json:"status"`
}

// AmountDecimal parses the notification amount. Returns nil when the field is
// absent or not a valid number; a malformed amount is not a hard input error,
// it just carries no anomaly signal.
func (n *WebhookNotification) AmountDecimal() *decimal.Decimal {
	if n.Amount == "" {
		return nil
	}
	d, err := decimal.NewFromString(n.Amount.String())
	if err != nil {
		return nil
	}
	return &d
}
