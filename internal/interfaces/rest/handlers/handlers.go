// Package handlers exposes the two processor-facing callback endpoints: the
// asynchronous server-to-server push channel and the synchronous browser
// redirect response channel.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/fictshop/payment-webhooks/internal/application"
	"github.com/fictshop/payment-webhooks/internal/application/services"
	"github.com/fictshop/payment-webhooks/internal/config"
	"github.com/fictshop/payment-webhooks/internal/domain"
)

// Reconciler applies a verified success notification to an order.
type Reconciler interface {
	Reconcile(ctx context.Context, order *domain.Order, n *domain.Notification) (services.ReconcileOutcome, error)
}

// Materializer converts a quote into an order exactly once.
type Materializer interface {
	Materialize(ctx context.Context, n *domain.Notification) (*domain.Order, error)
}

// Locator resolves a transaction id to an existing order, if any.
type Locator interface {
	Find(ctx context.Context, transactionID string) (*domain.Order, error)
}

type Handlers struct {
	locator      Locator
	materializer Materializer
	reconciler   Reconciler
	audit        application.AuditRepository
	security     config.SecurityConfig
	shop         config.ShopConfig
	logger       *slog.Logger
}

func NewHandlers(
	locator Locator,
	materializer Materializer,
	reconciler Reconciler,
	audit application.AuditRepository,
	security config.SecurityConfig,
	shop config.ShopConfig,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		locator:      locator,
		materializer: materializer,
		reconciler:   reconciler,
		audit:        audit,
		security:     security,
		shop:         shop,
		logger:       logger,
	}
}

// Register wires the channel endpoints onto the mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/webhooks/push", h.HandlePush)
	mux.HandleFunc("/webhooks/response", h.HandleResponse)
}

// redirectURL is the forced-secure, session-independent storefront route the
// processor navigates the customer's browser to after payment.
func (h *Handlers) redirectURL() string {
	return h.shopURL(h.shop.RedirectRoute)
}

func (h *Handlers) cartURL() string {
	return h.shopURL(h.shop.CartRoute)
}

func (h *Handlers) shopURL(route string) string {
	base, err := url.Parse(h.shop.BaseURL)
	if err != nil {
		return strings.TrimSuffix(h.shop.BaseURL, "/") + route
	}
	base.Scheme = "https"
	base.Path = strings.TrimSuffix(base.Path, "/") + route
	return base.String()
}

// recordAudit persists the raw field set for forensics; failures never stop
// notification processing.
func (h *Handlers) recordAudit(ctx context.Context, n *domain.Notification) {
	if err := h.audit.Record(ctx, n.Channel, n.TransactionID, n.RawFields); err != nil {
		h.logger.Error("failed to record notification audit",
			"channel", n.Channel,
			"transaction_id", n.TransactionID,
			"error", err,
		)
	}
}
