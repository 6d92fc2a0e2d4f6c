package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProcessedPaymentEvent is one row of the append-only idempotency ledger.
// Existence of a row for a payment reference id is the sole duplicate guard:
// a notification whose reference id already has a row is a safe no-op.
type ProcessedPaymentEvent struct {
	PaymentReferenceID string
	OrderID            string
	TransactionID      string
	Amount             decimal.Decimal
	Currency           string
	Channel            Channel
	CreatedAt          time.Time
}
