package cron

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/debitflow/sdd-reconciler/internal/domain"
	"github.com/debitflow/sdd-reconciler/internal/services/reconcile"
	"go.uber.org/zap"
)

// ChargebackReplayHandler handles the scheduled batch trigger that replays
// historical chargeback reports through the reconciliation core. It reuses
// Service.ApplyChargeback unchanged, so live webhook delivery and batch
// replay cannot drift apart.
type ChargebackReplayHandler struct {
	reconciler *reconcile.Service
	logger     *zap.Logger
	cronSecret string
}

// NewChargebackReplayHandler creates a chargeback replay cron handler
func NewChargebackReplayHandler(reconciler *reconcile.Service, logger *zap.Logger, cronSecret string) *ChargebackReplayHandler {
	return &ChargebackReplayHandler{
		reconciler: reconciler,
		logger:     logger,
		cronSecret: cronSecret,
	}
}

// ChargebackReport is one archived chargeback record to replay
type ChargebackReport struct {
	UniqueID                    string      `json:"unique_id"`
	OriginalTransactionUniqueID string      `json:"original_transaction_unique_id"`
	Amount                      json.Number `json:"amount"`
	Currency                    string      `json:"currency"`
	Reason                      string      `json:"reason"`
}

// ReplayChargebacksRequest represents the request body for chargeback replay
type ReplayChargebacksRequest struct {
	Reports []ChargebackReport `json:"reports"`
}

// ReplayChargebacksResponse represents the replay outcome per batch
type ReplayChargebacksResponse struct {
	Success     bool     `json:"success"`
	Processed   int      `json:"processed"`
	Applied     int      `json:"applied"`
	Missing     int      `json:"missing"`
	Invalid     int      `json:"invalid"`
	Errors      []string `json:"errors,omitempty"`
	ProcessedAt string   `json:"processed_at"`
}

// ReplayChargebacks handles the POST /cron/replay-chargebacks endpoint.
// Called by the scheduler with batches pulled from the gateway's chargeback
// report export. Replaying an already applied chargeback is a no-op by design.
func (h *ChargebackReplayHandler) ReplayChargebacks(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Chargeback replay cron job triggered",
		zap.String("remote_addr", r.RemoteAddr),
	)

	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "only POST method is allowed")
		return
	}

	if !h.authenticateRequest(r) {
		h.logger.Warn("Unauthorized cron request",
			zap.String("remote_addr", r.RemoteAddr),
		)
		h.respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ReplayChargebacksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp := ReplayChargebacksResponse{
		Success:     true,
		Processed:   len(req.Reports),
		ProcessedAt: time.Now().Format(time.RFC3339),
	}

	for _, report := range req.Reports {
		n := &domain.WebhookNotification{
			TransactionType:             domain.TransactionTypeChargeback,
			UniqueID:                    report.UniqueID,
			OriginalTransactionUniqueID: report.OriginalTransactionUniqueID,
			Amount:                      report.Amount,
			Currency:                    report.Currency,
			Reason:                      report.Reason,
		}

		_, err := h.reconciler.ApplyChargeback(r.Context(), n)
		switch {
		case err == nil:
			resp.Applied++
		case domain.IsNotFoundError(err):
			resp.Missing++
		case domain.IsValidationError(err):
			resp.Invalid++
		default:
			resp.Success = false
			resp.Errors = append(resp.Errors, err.Error())
		}
	}

	h.logger.Info("Chargeback replay completed",
		zap.Int("processed", resp.Processed),
		zap.Int("applied", resp.Applied),
		zap.Int("missing", resp.Missing),
		zap.Int("invalid", resp.Invalid),
		zap.Int("errors", len(resp.Errors)),
	)

	statusCode := http.StatusOK
	if !resp.Success {
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode replay response", zap.Error(err))
	}
}

// authenticateRequest verifies the cron request is authorized
func (h *ChargebackReplayHandler) authenticateRequest(r *http.Request) bool {
	if h.cronSecret == "" {
		return false
	}

	cronSecret := r.Header.Get("X-Cron-Secret")
	if cronSecret != "" && subtle.ConstantTimeCompare([]byte(cronSecret), []byte(h.cronSecret)) == 1 {
		return true
	}

	authHeader := r.Header.Get("Authorization")
	return subtle.ConstantTimeCompare([]byte(authHeader), []byte("Bearer "+h.cronSecret)) == 1
}

// respondError sends an error response
func (h *ChargebackReplayHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := map[string]interface{}{
		"success": false,
		"error":   message,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}
