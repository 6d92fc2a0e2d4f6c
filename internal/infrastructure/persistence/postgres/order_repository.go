package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fictshop/payment-webhooks/internal/application"
	"github.com/fictshop/payment-webhooks/internal/domain"
	"github.com/jackc/pgx/v5"
)

// OrderRepository persists orders and their invoices. Status-history comments
// and payment transactions are append-only child tables: a reconstituted
// order starts with empty history/transaction slices and Update inserts
// whatever entries were appended during the request.
type OrderRepository struct {
	q Executor
}

func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{q: db.Pool}
}

// Create inserts the order with its invoices and child rows in one
// transaction: either the whole aggregate lands or nothing does. Inside a
// coordinated transaction the insert joins it through a savepoint.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin order creation: %w", err)
	}
	defer tx.Rollback(ctx)

	bound := &OrderRepository{q: tx}
	if err := bound.create(ctx, order); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order creation: %w", err)
	}
	return nil
}

func (r *OrderRepository) create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, increment_id, transaction_id, status,
			grand_total, total_due, total_paid, currency,
			customer_email, email_sent, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	`

	_, err := r.q.Exec(ctx, query,
		order.ID,
		order.IncrementID,
		order.TransactionID,
		string(order.Status),
		order.GrandTotal,
		order.TotalDue,
		order.TotalPaid,
		order.Currency,
		order.CustomerEmail,
		order.EmailSent,
		order.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return application.ErrDuplicateOrder
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	for _, inv := range order.Invoices {
		if err := r.insertInvoice(ctx, order.ID, inv); err != nil {
			return err
		}
	}
	if err := r.appendChildren(ctx, order); err != nil {
		return err
	}

	return nil
}

// FindByTransactionID retrieves the order correlated with the transaction id,
// with its invoices. Returns (nil, nil) when no order exists yet.
func (r *OrderRepository) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error) {
	return r.findByTransactionID(ctx, transactionID, false)
}

// FindByTransactionIDForUpdate retrieves the order with a row-level lock.
func (r *OrderRepository) FindByTransactionIDForUpdate(ctx context.Context, transactionID string) (*domain.Order, error) {
	return r.findByTransactionID(ctx, transactionID, true)
}

func (r *OrderRepository) findByTransactionID(ctx context.Context, transactionID string, forUpdate bool) (*domain.Order, error) {
	query := `
		SELECT id, increment_id, transaction_id, status,
		       grand_total, total_due, total_paid, currency,
		       customer_email, email_sent, created_at, updated_at
		FROM orders WHERE transaction_id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var m OrderModel
	err := r.q.QueryRow(ctx, query, transactionID).Scan(
		&m.ID, &m.IncrementID, &m.TransactionID, &m.Status,
		&m.GrandTotal, &m.TotalDue, &m.TotalPaid, &m.Currency,
		&m.CustomerEmail, &m.EmailSent, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	invoices, err := r.loadInvoices(ctx, m.ID)
	if err != nil {
		return nil, err
	}

	return toDomainOrder(m, invoices), nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = $1, total_due = $2, total_paid = $3,
		    email_sent = $4, updated_at = now()
		WHERE id = $5
	`

	result, err := r.q.Exec(ctx, query,
		string(order.Status),
		order.TotalDue,
		order.TotalPaid,
		order.EmailSent,
		order.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("order not found")
	}

	for _, inv := range order.Invoices {
		_, err := r.q.Exec(ctx,
			`UPDATE invoices SET state = $1 WHERE id = $2`,
			string(inv.State), inv.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update invoice state: %w", err)
		}
	}

	return r.appendChildren(ctx, order)
}

func (r *OrderRepository) insertInvoice(ctx context.Context, orderID string, inv domain.Invoice) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO invoices (id, order_id, state, grand_total, created_at)
		VALUES ($1, $2, $3, $4, now())
	`, inv.ID, orderID, string(inv.State), inv.GrandTotal)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *OrderRepository) loadInvoices(ctx context.Context, orderID string) ([]InvoiceModel, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, state, grand_total, created_at
		FROM invoices WHERE order_id = $1
		ORDER BY created_at ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query invoices by order_id: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (InvoiceModel, error) {
		var m InvoiceModel
		err := row.Scan(&m.ID, &m.OrderID, &m.State, &m.GrandTotal, &m.CreatedAt)
		return m, err
	})
}

// appendChildren writes the status-history comments and payment transactions
// accumulated on the order during this request.
func (r *OrderRepository) appendChildren(ctx context.Context, order *domain.Order) error {
	for _, comment := range order.StatusHistory {
		_, err := r.q.Exec(ctx, `
			INSERT INTO order_status_history (order_id, status, comment, created_at)
			VALUES ($1, $2, $3, $4)
		`, order.ID, string(comment.Status), comment.Comment, comment.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to append status history: %w", err)
		}
	}
	order.StatusHistory = nil

	for _, txn := range order.Transactions {
		_, err := r.q.Exec(ctx, `
			INSERT INTO payment_transactions (order_id, transaction_id, parent_transaction_id, type, is_closed, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (order_id, transaction_id) DO NOTHING
		`, order.ID, txn.TransactionID, txn.ParentTransactionID, string(txn.Type), txn.IsClosed, txn.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to append payment transaction: %w", err)
		}
	}
	order.Transactions = nil

	return nil
}
