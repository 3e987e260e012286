package cron_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/debitflow/sdd-reconciler/internal/domain"
	"github.com/debitflow/sdd-reconciler/internal/handlers/cron"
	"github.com/debitflow/sdd-reconciler/internal/services/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testCronSecret = "cron-secret"

// MockBillingAttemptStore mocks the billing attempt store
type MockBillingAttemptStore struct {
	mock.Mock
}

func (m *MockBillingAttemptStore) FindByTransactionID(ctx context.Context, transactionID string) (*domain.BillingAttempt, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillingAttempt), args.Error(1)
}

func (m *MockBillingAttemptStore) UpdateStatus(ctx context.Context, transactionID string, status domain.BillingAttemptStatus) (bool, error) {
	args := m.Called(ctx, transactionID, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockBillingAttemptStore) ApplyChargeback(ctx context.Context, transactionID string, event domain.ChargebackEvent) (*domain.BillingAttempt, error) {
	args := m.Called(ctx, transactionID, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillingAttempt), args.Error(1)
}

func newReplayHandler(mockStore *MockBillingAttemptStore) *cron.ChargebackReplayHandler {
	reconciler := reconcile.NewService(mockStore, zap.NewNop())
	return cron.NewChargebackReplayHandler(reconciler, zap.NewNop(), testCronSecret)
}

func replayRequest(t *testing.T, body interface{}, authorize func(*http.Request)) *http.Request {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/cron/replay-chargebacks", strings.NewReader(string(raw)))
	req.Header.Set("Content-Type", "application/json")
	if authorize != nil {
		authorize(req)
	}
	return req
}

func withCronHeader(req *http.Request) {
	req.Header.Set("X-Cron-Secret", testCronSecret)
}

func chargebackedAttempt(transactionID string) *domain.BillingAttempt {
	return &domain.BillingAttempt{
		TransactionID: transactionID,
		Status:        domain.BillingAttemptStatusChargebacked,
	}
}

func notFoundErr(transactionID string) error {
	return domain.WrapError(domain.ErrorCodeAttemptNotFound, "billing attempt not found", domain.ErrAttemptNotFound).
		WithDetail("transaction_id", transactionID)
}

func TestReplayChargebacks_BatchOutcomes(t *testing.T) {
	mockStore := new(MockBillingAttemptStore)
	h := newReplayHandler(mockStore)

	mockStore.On("ApplyChargeback", mock.Anything, "txn-1", mock.AnythingOfType("domain.ChargebackEvent")).
		Return(chargebackedAttempt("txn-1"), nil)
	mockStore.On("ApplyChargeback", mock.Anything, "txn-missing", mock.AnythingOfType("domain.ChargebackEvent")).
		Return(nil, notFoundErr("txn-missing"))

	body := map[string]interface{}{
		"reports": []map[string]interface{}{
			{"unique_id": "cb-1", "original_transaction_unique_id": "txn-1", "amount": "49.99", "reason": "debtor_dispute"},
			{"unique_id": "cb-2", "original_transaction_unique_id": "txn-missing", "amount": "4.95"},
			{"unique_id": "cb-3"}, // missing original_transaction_unique_id
		},
	}

	rec := httptest.NewRecorder()
	h.ReplayChargebacks(rec, replayRequest(t, body, withCronHeader))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp cron.ReplayChargebacksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Processed)
	assert.Equal(t, 1, resp.Applied)
	assert.Equal(t, 1, resp.Missing)
	assert.Equal(t, 1, resp.Invalid)
	assert.Empty(t, resp.Errors)
	mockStore.AssertExpectations(t)
}

func TestReplayChargebacks_BearerTokenAccepted(t *testing.T) {
	mockStore := new(MockBillingAttemptStore)
	h := newReplayHandler(mockStore)

	body := map[string]interface{}{"reports": []map[string]interface{}{}}

	rec := httptest.NewRecorder()
	h.ReplayChargebacks(rec, replayRequest(t, body, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+testCronSecret)
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReplayChargebacks_Unauthorized(t *testing.T) {
	mockStore := new(MockBillingAttemptStore)
	h := newReplayHandler(mockStore)

	body := map[string]interface{}{"reports": []map[string]interface{}{}}

	rec := httptest.NewRecorder()
	h.ReplayChargebacks(rec, replayRequest(t, body, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ReplayChargebacks(rec, replayRequest(t, body, func(req *http.Request) {
		req.Header.Set("X-Cron-Secret", "wrong-secret")
	}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReplayChargebacks_EmptySecretRejectsAll(t *testing.T) {
	mockStore := new(MockBillingAttemptStore)
	reconciler := reconcile.NewService(mockStore, zap.NewNop())
	h := cron.NewChargebackReplayHandler(reconciler, zap.NewNop(), "")

	body := map[string]interface{}{"reports": []map[string]interface{}{}}

	rec := httptest.NewRecorder()
	h.ReplayChargebacks(rec, replayRequest(t, body, func(req *http.Request) {
		req.Header.Set("X-Cron-Secret", "")
	}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReplayChargebacks_MethodNotAllowed(t *testing.T) {
	mockStore := new(MockBillingAttemptStore)
	h := newReplayHandler(mockStore)

	req := httptest.NewRequest(http.MethodGet, "/cron/replay-chargebacks", nil)
	withCronHeader(req)
	rec := httptest.NewRecorder()

	h.ReplayChargebacks(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestReplayChargebacks_InvalidBody(t *testing.T) {
	mockStore := new(MockBillingAttemptStore)
	h := newReplayHandler(mockStore)

	req := httptest.NewRequest(http.MethodPost, "/cron/replay-chargebacks", strings.NewReader("{not json"))
	withCronHeader(req)
	rec := httptest.NewRecorder()

	h.ReplayChargebacks(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReplayChargebacks_StoreErrorMarksBatchFailed(t *testing.T) {
	mockStore := new(MockBillingAttemptStore)
	h := newReplayHandler(mockStore)

	dbErr := domain.WrapError(domain.ErrorCodeDatabaseError, "query failed", nil)
	mockStore.On("ApplyChargeback", mock.Anything, "txn-1", mock.AnythingOfType("domain.ChargebackEvent")).
		Return(nil, dbErr)

	body := map[string]interface{}{
		"reports": []map[string]interface{}{
			{"unique_id": "cb-1", "original_transaction_unique_id": "txn-1"},
		},
	}

	rec := httptest.NewRecorder()
	h.ReplayChargebacks(rec, replayRequest(t, body, withCronHeader))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp cron.ReplayChargebacksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Len(t, resp.Errors, 1)
}
