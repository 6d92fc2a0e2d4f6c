package handlers

import (
	"io"
	"net/http"

	"github.com/fictshop/payment-webhooks/internal/application/services"
	"github.com/fictshop/payment-webhooks/internal/domain"
	"github.com/fictshop/payment-webhooks/internal/gateway"
)

// HandlePush receives the processor's asynchronous XML push notifications.
// The sender treats any 2xx as acknowledgement; no response body is required.
// Parse failures are logged at critical severity and the request is dropped
// without an error page.
func (h *Handlers) HandlePush(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		h.logger.Debug("push: request is not post", "method", r.Method)
		return
	}

	if ct := r.Header.Get("Content-Type"); ct != "application/xml" {
		h.logger.Debug("push: content-type is not application/xml", "content_type", ct)
	}

	if ts, retries := r.Header.Get("X-Push-Timestamp"), r.Header.Get("X-Push-Retries"); ts != "" && retries != "" {
		h.logger.Debug("push: delivery metadata", "timestamp", ts, "retries", retries)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("push: cannot read request body", "error", err)
		return
	}

	n, err := gateway.ParsePush(body)
	if err != nil {
		h.logger.Error("push: cannot parse document into notification", "error", err)
		return
	}

	h.recordAudit(ctx, n)

	if !n.IsSuccess() || !n.IsOrderCreating() {
		return
	}

	order, err := h.locator.Find(ctx, n.TransactionID)
	if err != nil {
		h.logger.Error("push: order lookup failed",
			"transaction_id", n.TransactionID,
			"error", err,
		)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if order == nil {
		h.logger.Debug("push: order does not exist for transaction",
			"transaction_id", n.TransactionID,
		)
		order, err = h.materializer.Materialize(ctx, n)
		if err != nil {
			h.logger.Error("push: cannot submit the quote",
				"transaction_id", n.TransactionID,
				"error", err,
			)
			if domain.IsErrorCode(err, domain.ErrCodePersistFailed) {
				// non-2xx makes the processor redeliver; an order that
				// failed to store can still be created on the retry.
				w.WriteHeader(http.StatusInternalServerError)
			}
			return
		}
	}

	if !n.IsReceipt() {
		return
	}

	outcome, err := h.reconciler.Reconcile(ctx, order, n)
	if err != nil {
		h.logger.Error("push: reconciliation failed",
			"transaction_id", n.TransactionID,
			"payment_reference_id", n.PaymentReferenceID,
			"error", err,
		)
		if domain.IsErrorCode(err, domain.ErrCodePersistFailed) {
			// non-2xx makes the processor redeliver; the ledger keeps the
			// retry idempotent.
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	if outcome == services.ReconcileAlreadyProcessed {
		h.logger.Debug("push: payment event already exists",
			"payment_reference_id", n.PaymentReferenceID,
		)
	}
}
