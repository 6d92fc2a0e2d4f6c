package application

import (
	"context"
	"time"

	"github.com/fictshop/payment-webhooks/internal/domain"
)

// OrderRepository is the port for the storefront's order persistence.
// Lookups by transaction id return (nil, nil) when no order exists yet;
// a brand-new purchase is an expected state, not an error.
type OrderRepository interface {
	// Create inserts the order and its invoices. The correlation key
	// (transaction id) carries a unique constraint; a concurrent insert for
	// the same key fails with ErrDuplicateOrder.
	Create(ctx context.Context, order *domain.Order) error
	FindByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error)
	// FindByTransactionIDForUpdate locks the order row for the duration of
	// the surrounding transaction.
	FindByTransactionIDForUpdate(ctx context.Context, transactionID string) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
}

// QuoteRepository is the port for pending quotes.
type QuoteRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Quote, error)
	// Deactivate marks the quote as submitted so it cannot convert twice.
	Deactivate(ctx context.Context, id string) error
}

// LedgerRepository is the port for the append-only processed-event ledger.
type LedgerRepository interface {
	// Append writes one ledger row. Appending an already-recorded payment
	// reference id fails with ErrDuplicateEvent.
	Append(ctx context.Context, event *domain.ProcessedPaymentEvent) error
	Exists(ctx context.Context, paymentReferenceID string) (bool, error)
}

// AuditRepository stores the raw field set of every inbound notification.
type AuditRepository interface {
	Record(ctx context.Context, channel domain.Channel, transactionID string, rawFields map[string]string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Notifier is the port for the storefront's outbound customer mail. Failures
// are logged by callers and never escalate into reconciliation failures.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, order *domain.Order) error
	SendInvoice(ctx context.Context, order *domain.Order, invoice *domain.Invoice) error
}

// TxRepositories bundles the repositories bound to one database transaction.
type TxRepositories struct {
	Orders OrderRepository
	Quotes QuoteRepository
	Ledger LedgerRepository
}

// UnitOfWork executes fn atomically: every repository write inside fn commits
// together or not at all.
type UnitOfWork interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}
