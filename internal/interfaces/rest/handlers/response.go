package handlers

import (
	"fmt"
	"net/http"

	"github.com/fictshop/payment-webhooks/internal/domain"
	"github.com/fictshop/payment-webhooks/internal/gateway"
)

// HandleResponse is the synchronous redirect target the processor calls right
// after the customer pays. The processor navigates the browser to whatever
// URL the body contains, so the handler always answers with the plain-text
// redirect URL; internal failure detail never reaches the browser.
func (h *Handlers) HandleResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	redirectURL := h.redirectURL()

	// a customer (or crawler) hitting the endpoint directly goes straight
	// back to the cart; no notification processing occurs.
	if r.Method != http.MethodPost {
		h.logger.Warn("response: request is not post; redirecting to cart",
			"method", r.Method,
			"remote_addr", r.RemoteAddr,
		)
		http.Redirect(w, r, h.cartURL(), http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain")

	if err := r.ParseForm(); err != nil {
		h.logger.Error("response: cannot parse form payload", "error", err)
		fmt.Fprint(w, redirectURL)
		return
	}

	n, err := gateway.ParseForm(r.PostForm)
	if err != nil {
		h.logger.Error("response: cannot initialize notification from post request", "error", err)
		fmt.Fprint(w, redirectURL)
		return
	}

	if err := gateway.VerifySecurityHash(n, h.security.SharedSecret); err != nil {
		h.logger.Error("response: received request with an invalid hash, possible manipulation",
			"remote_addr", r.RemoteAddr,
			"reference_hash", n.SecurityHash,
			"transaction_id", n.TransactionID,
		)
		fmt.Fprint(w, redirectURL)
		return
	}

	// only authenticated notifications reach the audit trail.
	h.recordAudit(ctx, n)

	if n.IsError() {
		h.logger.Debug("response: processor reported an error outcome",
			"transaction_id", n.TransactionID,
			"return", n.RawFields[domain.FieldReturn],
			"return_code", n.RawFields[domain.FieldReturnCode],
			"reason", n.RawFields[domain.FieldReason],
			"status_code", n.RawFields[domain.FieldStatusCode],
		)
		fmt.Fprint(w, redirectURL)
		return
	}

	// pending payments still confirm the purchase; the materializer parks
	// the fresh order under payment review.
	if n.IsSuccess() || n.IsPending() {
		order, err := h.locator.Find(ctx, n.TransactionID)
		if err != nil {
			h.logger.Error("response: order lookup failed",
				"transaction_id", n.TransactionID,
				"error", err,
			)
			fmt.Fprint(w, redirectURL)
			return
		}
		if order == nil {
			if _, err := h.materializer.Materialize(ctx, n); err != nil {
				h.logger.Error("response: cannot submit the quote",
					"transaction_id", n.TransactionID,
					"error", err,
				)
				fmt.Fprint(w, redirectURL)
				return
			}
		}
	}

	h.logger.Debug("response: returning redirect url", "redirect_url", redirectURL)
	fmt.Fprint(w, redirectURL)
}
