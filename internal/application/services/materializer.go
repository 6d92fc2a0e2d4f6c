package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fictshop/payment-webhooks/internal/application"
	"github.com/fictshop/payment-webhooks/internal/domain"
	"github.com/google/uuid"
)

// OrderMaterializer converts a pending quote into a confirmed order exactly
// once per transaction id. Concurrent or repeated invocations for the same
// transaction observe the order created by the first caller.
type OrderMaterializer struct {
	orders   application.OrderRepository
	quotes   application.QuoteRepository
	notifier application.Notifier
	logger   *slog.Logger
}

func NewOrderMaterializer(
	orders application.OrderRepository,
	quotes application.QuoteRepository,
	notifier application.Notifier,
	logger *slog.Logger,
) *OrderMaterializer {
	return &OrderMaterializer{
		orders:   orders,
		quotes:   quotes,
		notifier: notifier,
		logger:   logger,
	}
}

// Materialize creates the order for the notification's transaction id from
// its pending quote. The notification's outcome is mapped onto the fresh
// order's status, the quote is deactivated, and confirmation mails go out.
// Mail dispatch failures are logged and swallowed; they never unwind the
// created order.
func (s *OrderMaterializer) Materialize(ctx context.Context, n *domain.Notification) (*domain.Order, error) {
	quote, err := s.quotes.FindByID(ctx, n.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("load quote %s: %w", n.TransactionID, err)
	}
	if quote == nil {
		return nil, domain.NewQuoteNotFoundError(n.TransactionID)
	}
	if err := quote.CanSubmit(); err != nil {
		return nil, err
	}

	order, err := domain.NewOrder(uuid.New().String(), quote.ReservedOrderID, quote.ID, quote)
	if err != nil {
		return nil, err
	}
	order.Invoices = []domain.Invoice{{
		ID:         uuid.New().String(),
		OrderID:    order.ID,
		State:      domain.InvoiceOpen,
		GrandTotal: quote.GrandTotal,
	}}
	if err := order.ApplyOutcome(n.Outcome); err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, application.ErrDuplicateOrder) {
			// another delivery won the race; hand back its order.
			existing, findErr := s.orders.FindByTransactionID(ctx, quote.ID)
			if findErr != nil {
				return nil, fmt.Errorf("load order after duplicate create: %w", findErr)
			}
			if existing == nil {
				return nil, fmt.Errorf("order for transaction %s vanished after duplicate create", quote.ID)
			}
			return existing, nil
		}
		return nil, domain.NewPersistFailedError(err)
	}

	if err := s.quotes.Deactivate(ctx, quote.ID); err != nil {
		s.logger.Error("failed to deactivate quote after order creation",
			"quote_id", quote.ID,
			"order_id", order.ID,
			"error", err,
		)
	}

	s.sendOrderMail(ctx, order)
	s.sendInvoiceMails(ctx, order)

	if order.EmailSent {
		if err := s.orders.Update(ctx, order); err != nil {
			s.logger.Error("failed to record sent confirmation mail",
				"order_id", order.ID,
				"error", err,
			)
		}
	}

	return order, nil
}

func (s *OrderMaterializer) sendOrderMail(ctx context.Context, order *domain.Order) {
	if order.EmailSent {
		return
	}
	if err := s.notifier.SendOrderConfirmation(ctx, order); err != nil {
		s.logger.Error("cannot send order confirmation mail",
			"order_id", order.ID,
			"increment_id", order.IncrementID,
			"error", err,
		)
		return
	}
	order.EmailSent = true
}

func (s *OrderMaterializer) sendInvoiceMails(ctx context.Context, order *domain.Order) {
	for i := range order.Invoices {
		invoice := &order.Invoices[i]
		if err := s.notifier.SendInvoice(ctx, order, invoice); err != nil {
			s.logger.Error("cannot send invoice mail",
				"order_id", order.ID,
				"invoice_id", invoice.ID,
				"error", err,
			)
		}
	}
}
