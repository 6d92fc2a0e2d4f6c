package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a pending, not-yet-confirmed order. Its ID doubles as the
// correlation key the processor echoes back as the transaction id.
type Quote struct {
	ID                string
	ReservedOrderID   string
	CustomerEmail     string
	PaymentMethodCode string
	GrandTotal        decimal.Decimal
	Currency          string
	IsActive          bool
	CreatedAt         time.Time
}

// CanSubmit reports whether the quote is still convertible into an order.
func (q *Quote) CanSubmit() error {
	if !q.IsActive {
		return NewQuoteInvalidError(q.ID, "quote is no longer active")
	}
	if !q.GrandTotal.IsPositive() {
		return NewQuoteInvalidError(q.ID, "quote has no billable total")
	}
	if q.Currency == "" {
		return NewQuoteInvalidError(q.ID, "quote has no currency")
	}
	return nil
}
