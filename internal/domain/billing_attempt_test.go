package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/debitflow/sdd-reconciler/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillingAttempt_IsSettled(t *testing.T) {
	settled := []domain.BillingAttemptStatus{
		domain.BillingAttemptStatusApproved,
		domain.BillingAttemptStatusDeclined,
		domain.BillingAttemptStatusError,
		domain.BillingAttemptStatusVoided,
	}
	for _, status := range settled {
		a := &domain.BillingAttempt{Status: status}
		assert.True(t, a.IsSettled(), "status %s should be settled", status)
	}

	for _, status := range []domain.BillingAttemptStatus{
		domain.BillingAttemptStatusPending,
		domain.BillingAttemptStatusChargebacked,
	} {
		a := &domain.BillingAttempt{Status: status}
		assert.False(t, a.IsSettled(), "status %s should not be settled", status)
	}
}

func TestBillingAttempt_GetUniqueID(t *testing.T) {
	uniqueID := "txn-123"
	a := &domain.BillingAttempt{UniqueID: &uniqueID}
	assert.Equal(t, "txn-123", a.GetUniqueID())

	a = &domain.BillingAttempt{}
	assert.Equal(t, "", a.GetUniqueID())
}

func TestBillingAttempt_AppendChargeback(t *testing.T) {
	a := &domain.BillingAttempt{}

	event := domain.ChargebackEvent{
		UniqueID:   "cb-1",
		Amount:     decimal.RequireFromString("4.95"),
		Currency:   "EUR",
		Reason:     "debtor_dispute",
		ReceivedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, a.AppendChargeback(event))

	events, err := a.Chargebacks()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "cb-1", events[0].UniqueID)
	assert.True(t, events[0].Amount.Equal(decimal.RequireFromString("4.95")))
	assert.Equal(t, "debtor_dispute", events[0].Reason)
}

func TestBillingAttempt_AppendChargeback_ReplayReplacesInPlace(t *testing.T) {
	a := &domain.BillingAttempt{}

	first := domain.ChargebackEvent{UniqueID: "cb-1", Reason: "debtor_dispute"}
	require.NoError(t, a.AppendChargeback(first))

	second := domain.ChargebackEvent{UniqueID: "cb-2", Reason: "insufficient_funds"}
	require.NoError(t, a.AppendChargeback(second))

	// Redelivery of cb-1 carries an updated reason; it must replace, not append
	replay := domain.ChargebackEvent{UniqueID: "cb-1", Reason: "fraud"}
	require.NoError(t, a.AppendChargeback(replay))

	events, err := a.Chargebacks()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "cb-1", events[0].UniqueID)
	assert.Equal(t, "fraud", events[0].Reason)
	assert.Equal(t, "cb-2", events[1].UniqueID)
}

func TestBillingAttempt_AppendChargeback_PreservesOtherMeta(t *testing.T) {
	a := &domain.BillingAttempt{
		Meta: map[string]json.RawMessage{
			"mandate_reference": json.RawMessage(`"MNDT-42"`),
		},
	}

	require.NoError(t, a.AppendChargeback(domain.ChargebackEvent{UniqueID: "cb-1"}))

	assert.Equal(t, json.RawMessage(`"MNDT-42"`), a.Meta["mandate_reference"])
	events, err := a.Chargebacks()
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestBillingAttempt_Chargebacks_Empty(t *testing.T) {
	a := &domain.BillingAttempt{}

	events, err := a.Chargebacks()
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestBillingAttempt_Chargebacks_CorruptMeta(t *testing.T) {
	a := &domain.BillingAttempt{
		Meta: map[string]json.RawMessage{
			"chargeback": json.RawMessage(`{"not":"an array"}`),
		},
	}

	_, err := a.Chargebacks()
	assert.Error(t, err)
}
