package testhelpers

import (
	"context"
	"testing"

	"github.com/fictshop/payment-webhooks/internal/domain"
	"github.com/fictshop/payment-webhooks/internal/infrastructure/persistence/postgres"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// NewQuote returns a submittable quote whose ID doubles as the processor's
// transaction id.
func NewQuote(total string) *domain.Quote {
	return &domain.Quote{
		ID:                "txn-" + uuid.New().String(),
		ReservedOrderID:   "1000" + uuid.New().String()[:8],
		CustomerEmail:     "buyer@example.com",
		PaymentMethodCode: "DD",
		GrandTotal:        decimal.RequireFromString(total),
		Currency:          "EUR",
		IsActive:          true,
	}
}

// CreateStoredQuote persists a fresh quote and returns it.
func CreateStoredQuote(t *testing.T, ctx context.Context, quotes *postgres.QuoteRepository, total string) *domain.Quote {
	t.Helper()
	quote := NewQuote(total)
	require.NoError(t, quotes.Create(ctx, quote))
	return quote
}

// CreateStoredOrder persists a new order with one open invoice for the
// quote's grand total and returns it.
func CreateStoredOrder(t *testing.T, ctx context.Context, orders *postgres.OrderRepository, quote *domain.Quote) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(uuid.New().String(), quote.ReservedOrderID, quote.ID, quote)
	require.NoError(t, err)
	order.Invoices = []domain.Invoice{{
		ID:         uuid.New().String(),
		OrderID:    order.ID,
		State:      domain.InvoiceOpen,
		GrandTotal: quote.GrandTotal,
	}}
	require.NoError(t, orders.Create(ctx, order))
	return order
}

// ReceiptNotification returns a success receipt for the given transaction id.
func ReceiptNotification(transactionID, amount string) *domain.Notification {
	return &domain.Notification{
		TransactionID:      transactionID,
		PaymentReferenceID: "uniq-" + uuid.New().String(),
		ParentReferenceID:  "ref-" + uuid.New().String(),
		PaymentMethodCode:  "PP",
		PaymentTypeCode:    domain.TypeReceipt,
		Outcome:            domain.OutcomeSuccess,
		Amount:             decimal.RequireFromString(amount),
		Currency:           "EUR",
		Channel:            domain.ChannelPush,
	}
}
