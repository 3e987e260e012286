// Package webhook is the inbound boundary for gateway notifications.
//
// The gateway is an external, untrusted sender: deliveries may be duplicated,
// reordered, malformed, or forged. Every branch of the dispatcher answers with
// the same JSON envelope and never leaks internal diagnostics to the caller.
package webhook

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/debitflow/sdd-reconciler/internal/domain"
	"github.com/debitflow/sdd-reconciler/internal/services/reconcile"
	"github.com/debitflow/sdd-reconciler/internal/signature"
	"go.uber.org/zap"
)

// Handler dispatches gateway webhook notifications to the reconciliation core
type Handler struct {
	verifier   *signature.Verifier
	reconciler *reconcile.Service
	logger     *zap.Logger
}

// NewHandler creates a webhook dispatcher
func NewHandler(verifier *signature.Verifier, reconciler *reconcile.Service, logger *zap.Logger) *Handler {
	return &Handler{
		verifier:   verifier,
		reconciler: reconciler,
		logger:     logger,
	}
}

// envelope is the uniform response body for every dispatcher branch
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandleNotification processes POST /webhooks/gateway.
// Ordered steps: authenticate, classify transaction_type, route, respond.
func (h *Handler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	// Any unanticipated fault is logged with full context server-side and
	// surfaced only as an opaque internal error.
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("Panic while handling webhook notification",
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
			h.respondInternalError(w)
		}
	}()

	if r.Method != http.MethodPost {
		h.logger.Warn("Webhook endpoint received non-POST request",
			zap.String("method", r.Method),
		)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var n domain.WebhookNotification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		h.logger.Warn("Failed to decode webhook payload", zap.Error(err))
		h.respondJSON(w, http.StatusBadRequest, envelope{
			Status: "error",
			Error:  "Malformed payload",
		})
		return
	}

	if !h.verifier.Verify(n.UniqueID, n.Signature) {
		// Minimal audit record only: echoing signed material into logs would
		// hand an attacker an oracle on repeated probing attempts.
		h.logger.Warn("Webhook signature verification failed",
			zap.String("transaction_type", n.TransactionType),
			zap.String("unique_id", n.UniqueID),
		)
		h.respondJSON(w, http.StatusUnauthorized, envelope{
			Status: "error",
			Error:  "Invalid signature",
		})
		return
	}

	h.logger.Info("Webhook notification received",
		zap.String("transaction_type", n.TransactionType),
		zap.String("unique_id", n.UniqueID),
	)

	switch {
	case n.TransactionType == domain.TransactionTypeChargeback:
		h.handleChargeback(w, r, &n)
	case domain.IsSettlementType(n.TransactionType):
		h.handleSettlement(w, r, &n)
	default:
		// New notification types appear without warning; unknown is not an error.
		h.respondJSON(w, http.StatusOK, envelope{
			Status:  "ok",
			Message: "Type not handled",
		})
	}
}

func (h *Handler) handleSettlement(w http.ResponseWriter, r *http.Request, n *domain.WebhookNotification) {
	result, err := h.reconciler.ApplySettlement(r.Context(), n.UniqueID, n.Status)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, envelope{Status: "ok", Message: result.Message})
}

func (h *Handler) handleChargeback(w http.ResponseWriter, r *http.Request, n *domain.WebhookNotification) {
	if _, err := h.reconciler.ApplyChargeback(r.Context(), n); err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, envelope{Status: "ok"})
}

// respondDomainError maps the error taxonomy onto HTTP statuses. Validation
// messages are surfaced verbatim (they are field-specific by construction);
// anything unclassified is logged fully and answered opaquely.
func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidationError(err):
		message := "Missing required field"
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			message = domainErr.Message
		}
		h.respondJSON(w, http.StatusBadRequest, envelope{
			Status: "error",
			Error:  message,
		})
	case domain.IsNotFoundError(err):
		h.respondJSON(w, http.StatusNotFound, envelope{
			Status: "error",
			Error:  "Transaction not found",
		})
	default:
		h.logger.Error("Internal error handling webhook notification", zap.Error(err))
		h.respondInternalError(w)
	}
}

func (h *Handler) respondInternalError(w http.ResponseWriter) {
	h.respondJSON(w, http.StatusInternalServerError, envelope{
		Status: "error",
		Error:  "Internal server error",
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, statusCode int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode webhook response", zap.Error(err))
	}
}
