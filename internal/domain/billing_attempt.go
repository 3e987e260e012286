package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingAttemptStatus represents the reconciled lifecycle state of a billing attempt
type BillingAttemptStatus string

const (
	BillingAttemptStatusPending      BillingAttemptStatus = "pending"      // Created by the outbound charging flow, outcome unknown
	BillingAttemptStatusApproved     BillingAttemptStatus = "approved"     // Gateway settled the debit
	BillingAttemptStatusDeclined     BillingAttemptStatus = "declined"     // Gateway declined the debit
	BillingAttemptStatusError        BillingAttemptStatus = "error"        // Gateway reported a processing error
	BillingAttemptStatusVoided       BillingAttemptStatus = "voided"       // Debit cancelled before settlement
	BillingAttemptStatusChargebacked BillingAttemptStatus = "chargebacked" // Reversed by the debtor's bank
)

// metaChargebacksKey is the meta entry that holds the ordered chargeback evidence records.
const metaChargebacksKey = "chargeback"

// BillingAttempt represents a single SDD debit attempt tracked locally.
// Attempts are created by the outbound charging flow in pending state; the
// reconciliation core only ever transitions or annotates an existing record.
type BillingAttempt struct {
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
	ProcessedAt   *time.Time                 `json:"processed_at"`
	UniqueID      *string                    `json:"unique_id"`
	BIC           *string                    `json:"bic"`
	ErrorCode     *string                    `json:"error_code"`
	ErrorMessage  *string                    `json:"error_message"`
	DebtorID      *string                    `json:"debtor_id"`
	UploadID      *string                    `json:"upload_id"`
	Meta          map[string]json.RawMessage `json:"meta"`
	TransactionID string                     `json:"transaction_id"`
	Currency      string                     `json:"currency"`
	Status        BillingAttemptStatus       `json:"status"`
	Amount        decimal.Decimal            `json:"amount"`
	AttemptNumber int32                      `json:"attempt_number"`
	ID            uuid.UUID                  `json:"id"`
}

// ChargebackEvent is one chargeback evidence record appended to an attempt's meta.
type ChargebackEvent struct {
	ReceivedAt time.Time       `json:"received_at"`
	UniqueID   string          `json:"unique_id"`
	Currency   string          `json:"currency,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
}

// IsSettled returns true if the gateway has reported a final settlement outcome
func (a *BillingAttempt) IsSettled() bool {
	switch a.Status {
	case BillingAttemptStatusApproved,
		BillingAttemptStatusDeclined,
		BillingAttemptStatusError,
		BillingAttemptStatusVoided:
		return true
	}
	return false
}

// IsChargebacked returns true if the attempt has been reversed
func (a *BillingAttempt) IsChargebacked() bool {
	return a.Status == BillingAttemptStatusChargebacked
}

// GetUniqueID safely retrieves the secondary correlation key
func (a *BillingAttempt) GetUniqueID() string {
	if a.UniqueID != nil {
		return *a.UniqueID
	}
	return ""
}

// Chargebacks decodes the chargeback evidence records stored in meta.
// Returns an empty slice when no chargeback has been recorded.
func (a *BillingAttempt) Chargebacks() ([]ChargebackEvent, error) {
	if a.Meta == nil {
		return nil, nil
	}
	raw, ok := a.Meta[metaChargebacksKey]
	if !ok {
		return nil, nil
	}
	var events []ChargebackEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("decode chargeback meta: %w", err)
	}
	return events, nil
}

// AppendChargeback records a chargeback event in meta without destroying any
// other annotations. Events are keyed by the chargeback's own unique_id: a
// replay of an already recorded chargeback replaces that record in place, so
// redelivery never duplicates evidence.
func (a *BillingAttempt) AppendChargeback(event ChargebackEvent) error {
	events, err := a.Chargebacks()
	if err != nil {
		return err
	}

	replaced := false
	for i := range events {
		if events[i].UniqueID == event.UniqueID {
			events[i] = event
			replaced = true
			break
		}
	}
	if !replaced {
		events = append(events, event)
	}

	raw, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode chargeback meta: %w", err)
	}
	if a.Meta == nil {
		a.Meta = make(map[string]json.RawMessage)
	}
	a.Meta[metaChargebacksKey] = raw
	return nil
}
