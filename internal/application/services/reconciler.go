package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fictshop/payment-webhooks/internal/application"
	"github.com/fictshop/payment-webhooks/internal/domain"
)

// ReconcileOutcome is the definite result of applying a notification to an
// order's payment state.
type ReconcileOutcome string

const (
	// ReconcileApplied means the payment was recorded and the order mutated.
	ReconcileApplied ReconcileOutcome = "APPLIED"
	// ReconcileAlreadyProcessed means the payment reference id was seen
	// before; nothing was mutated. This is a safe no-op, not a failure.
	ReconcileAlreadyProcessed ReconcileOutcome = "ALREADY_PROCESSED"
)

// PaymentReconciler applies verified success notifications to an order's
// payment and invoice state. The idempotency check, the order mutation and
// the ledger append run in one database transaction: there is never a window
// where money is recorded but the duplicate guard is missing, or the other
// way around.
type PaymentReconciler struct {
	uow    application.UnitOfWork
	logger *slog.Logger
}

func NewPaymentReconciler(uow application.UnitOfWork, logger *slog.Logger) *PaymentReconciler {
	return &PaymentReconciler{uow: uow, logger: logger}
}

// Reconcile records the notification's paid amount against the order. Callers
// invoke it only for success-outcome notifications whose payment type moves
// money (receipts).
func (s *PaymentReconciler) Reconcile(ctx context.Context, order *domain.Order, n *domain.Notification) (ReconcileOutcome, error) {
	if n.PaymentReferenceID == "" {
		return "", domain.NewMissingRequiredFieldError(domain.FieldUniqueID)
	}

	outcome := ReconcileApplied

	err := s.uow.WithinTransaction(ctx, func(ctx context.Context, repos application.TxRepositories) error {
		// row lock serializes concurrent deliveries for the same order.
		locked, err := repos.Orders.FindByTransactionIDForUpdate(ctx, order.TransactionID)
		if err != nil {
			return fmt.Errorf("lock order for transaction %s: %w", order.TransactionID, err)
		}
		if locked == nil {
			return fmt.Errorf("order for transaction %s disappeared before reconcile", order.TransactionID)
		}

		seen, err := repos.Ledger.Exists(ctx, n.PaymentReferenceID)
		if err != nil {
			return fmt.Errorf("check ledger for %s: %w", n.PaymentReferenceID, err)
		}
		if seen {
			outcome = ReconcileAlreadyProcessed
			return nil
		}

		target, err := locked.RecordCapture(n.Amount, n.Currency, n.PaymentReferenceID, n.ParentReferenceID)
		if err != nil {
			return err
		}

		if err := repos.Ledger.Append(ctx, &domain.ProcessedPaymentEvent{
			PaymentReferenceID: n.PaymentReferenceID,
			OrderID:            locked.ID,
			TransactionID:      n.TransactionID,
			Amount:             n.Amount,
			Currency:           n.Currency,
			Channel:            n.Channel,
		}); err != nil {
			// a concurrent delivery slipped in between the existence check
			// and our append; returning the error rolls the mutation back
			// and the duplicate is converted below.
			return fmt.Errorf("append ledger event %s: %w", n.PaymentReferenceID, err)
		}

		if err := repos.Orders.Update(ctx, locked); err != nil {
			return fmt.Errorf("persist order %s: %w", locked.ID, err)
		}

		*order = *locked

		s.logger.Info("payment reconciled",
			"order_id", locked.ID,
			"payment_reference_id", n.PaymentReferenceID,
			"amount", n.Amount.StringFixed(2),
			"currency", n.Currency,
			"status", target,
		)
		return nil
	})
	if err != nil {
		if errors.Is(err, application.ErrDuplicateEvent) {
			outcome = ReconcileAlreadyProcessed
		} else {
			var domainErr *domain.DomainError
			if errors.As(err, &domainErr) {
				return "", err
			}
			return "", domain.NewPersistFailedError(err)
		}
	}

	if outcome == ReconcileAlreadyProcessed {
		s.logger.Debug("duplicate payment event ignored",
			"payment_reference_id", n.PaymentReferenceID,
			"transaction_id", n.TransactionID,
		)
	}

	return outcome, nil
}
