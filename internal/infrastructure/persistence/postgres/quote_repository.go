package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fictshop/payment-webhooks/internal/domain"
	"github.com/jackc/pgx/v5"
)

type QuoteRepository struct {
	q Executor
}

func NewQuoteRepository(db *DB) *QuoteRepository {
	return &QuoteRepository{q: db.Pool}
}

// FindByID retrieves a quote. Returns (nil, nil) when none exists.
func (r *QuoteRepository) FindByID(ctx context.Context, id string) (*domain.Quote, error) {
	query := `
		SELECT id, reserved_order_id, customer_email, payment_method_code,
		       grand_total, currency, is_active, created_at
		FROM quotes WHERE id = $1
	`

	var m QuoteModel
	err := r.q.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.ReservedOrderID, &m.CustomerEmail, &m.PaymentMethodCode,
		&m.GrandTotal, &m.Currency, &m.IsActive, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan quote: %w", err)
	}

	return toDomainQuote(m), nil
}

// Create inserts a quote. Used by the storefront side and by tests.
func (r *QuoteRepository) Create(ctx context.Context, quote *domain.Quote) error {
	query := `
		INSERT INTO quotes (
			id, reserved_order_id, customer_email, payment_method_code,
			grand_total, currency, is_active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`

	_, err := r.q.Exec(ctx, query,
		quote.ID,
		quote.ReservedOrderID,
		quote.CustomerEmail,
		quote.PaymentMethodCode,
		quote.GrandTotal,
		quote.Currency,
		quote.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to create quote: %w", err)
	}
	return nil
}

// Deactivate marks the quote as submitted so it cannot convert twice.
func (r *QuoteRepository) Deactivate(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `UPDATE quotes SET is_active = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate quote: %w", err)
	}
	return nil
}
