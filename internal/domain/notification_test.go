package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/debitflow/sdd-reconciler/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotification_AmountDecimal_NumericAndString(t *testing.T) {
	// The gateway is inconsistent: amount arrives as a JSON number or a string
	for _, payload := range []string{
		`{"transaction_type":"chargeback","amount":4.95}`,
		`{"transaction_type":"chargeback","amount":"4.95"}`,
	} {
		var n domain.WebhookNotification
		require.NoError(t, json.Unmarshal([]byte(payload), &n))

		got := n.AmountDecimal()
		require.NotNil(t, got, "payload: %s", payload)
		assert.True(t, got.Equal(decimal.RequireFromString("4.95")))
	}
}

func TestWebhookNotification_AmountDecimal_Absent(t *testing.T) {
	var n domain.WebhookNotification
	require.NoError(t, json.Unmarshal([]byte(`{"transaction_type":"sdd_sale"}`), &n))

	assert.Nil(t, n.AmountDecimal())
}

func TestWebhookNotification_AmountDecimal_Malformed(t *testing.T) {
	n := domain.WebhookNotification{Amount: json.Number("not-a-number")}

	assert.Nil(t, n.AmountDecimal())
}
