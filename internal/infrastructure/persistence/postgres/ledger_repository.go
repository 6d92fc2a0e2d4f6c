package postgres

import (
	"context"
	"fmt"

	"github.com/fictshop/payment-webhooks/internal/application"
	"github.com/fictshop/payment-webhooks/internal/domain"
)

// LedgerRepository is the append-only processed-event ledger. The primary key
// on payment_reference_id is the idempotency guard: a duplicate append fails
// with ErrDuplicateEvent and the caller treats the event as already handled.
type LedgerRepository struct {
	q Executor
}

func NewLedgerRepository(db *DB) *LedgerRepository {
	return &LedgerRepository{q: db.Pool}
}

func (r *LedgerRepository) Append(ctx context.Context, event *domain.ProcessedPaymentEvent) error {
	query := `
		INSERT INTO processed_payment_events (
			payment_reference_id, order_id, transaction_id,
			amount, currency, channel, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, now())
	`

	_, err := r.q.Exec(ctx, query,
		event.PaymentReferenceID,
		event.OrderID,
		event.TransactionID,
		event.Amount,
		event.Currency,
		string(event.Channel),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return application.ErrDuplicateEvent
		}
		return fmt.Errorf("failed to append payment event: %w", err)
	}
	return nil
}

func (r *LedgerRepository) Exists(ctx context.Context, paymentReferenceID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_payment_events WHERE payment_reference_id = $1)`,
		paymentReferenceID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check payment event: %w", err)
	}
	return exists, nil
}
