package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the current state of an order in its lifecycle
type OrderStatus string

const (
	StatusNew           OrderStatus = "NEW"
	StatusPaymentReview OrderStatus = "PAYMENT_REVIEW"
	StatusProcessing    OrderStatus = "PROCESSING"
	StatusComplete      OrderStatus = "COMPLETE"
	StatusCanceled      OrderStatus = "CANCELED"
)

// InvoiceState is the payment state of a single invoice on an order.
type InvoiceState string

const (
	InvoiceOpen InvoiceState = "OPEN"
	InvoicePaid InvoiceState = "PAID"
)

type Invoice struct {
	ID         string
	OrderID    string
	State      InvoiceState
	GrandTotal decimal.Decimal
	CreatedAt  time.Time
}

// TransactionType classifies a payment transaction attached to an order.
type TransactionType string

const (
	TransactionCapture TransactionType = "CAPTURE"
)

// PaymentTransaction is one processor-side transaction recorded against the
// order's payment, keyed by the processor's unique payment reference id.
type PaymentTransaction struct {
	TransactionID       string
	ParentTransactionID string
	Type                TransactionType
	IsClosed            bool
	CreatedAt           time.Time
}

type StatusComment struct {
	Status    OrderStatus
	Comment   string
	CreatedAt time.Time
}

type Order struct {
	ID          string
	IncrementID string
	// TransactionID is the correlation key shared with the quote and every
	// processor notification for this purchase.
	TransactionID string
	Status        OrderStatus
	GrandTotal    decimal.Decimal
	TotalDue      decimal.Decimal
	TotalPaid     decimal.Decimal
	Currency      string
	CustomerEmail string
	EmailSent     bool

	Invoices      []Invoice
	Transactions  []PaymentTransaction
	StatusHistory []StatusComment

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewOrder(id, incrementID, transactionID string, quote *Quote) (*Order, error) {
	if id == "" {
		return nil, NewMissingRequiredFieldError("order ID")
	}
	if transactionID == "" {
		return nil, NewMissingRequiredFieldError("transaction ID")
	}

	return &Order{
		ID:            id,
		IncrementID:   incrementID,
		TransactionID: transactionID,
		Status:        StatusNew,
		GrandTotal:    quote.GrandTotal,
		TotalDue:      quote.GrandTotal,
		TotalPaid:     decimal.Zero,
		Currency:      quote.Currency,
		CustomerEmail: quote.CustomerEmail,
		CreatedAt:     time.Now(),
	}, nil
}

func (o *Order) transition(target OrderStatus) error {
	if err := o.canTransitionTo(target); err != nil {
		return err
	}
	o.Status = target
	return nil
}

// defines the order statuses that can be transitioned to; the success path
// is monotonic and never regresses once the order is complete.
func (o *Order) canTransitionTo(target OrderStatus) error {
	if o.Status == target {
		return nil
	}
	switch o.Status {
	case StatusNew:
		return o.allow(target, StatusPaymentReview, StatusProcessing, StatusCanceled)
	case StatusPaymentReview:
		return o.allow(target, StatusProcessing, StatusCanceled)
	case StatusProcessing:
		// out-of-band pushes (chargebacks, delayed partial receipts) may put
		// a processing order back under review; only Complete is final.
		return o.allow(target, StatusComplete, StatusPaymentReview)
	}
	return NewInvalidTransitionError(o.Status, target)
}

func (o *Order) allow(target OrderStatus, allowed ...OrderStatus) error {
	if slices.Contains(allowed, target) {
		return nil
	}
	return NewInvalidTransitionError(o.Status, target)
}

// AddStatusHistoryComment appends a comment to the order's status history.
func (o *Order) AddStatusHistoryComment(status OrderStatus, comment string) {
	o.StatusHistory = append(o.StatusHistory, StatusComment{
		Status:    status,
		Comment:   comment,
		CreatedAt: time.Now(),
	})
}

// RecordCapture applies a received payment to the order: accumulates the paid
// amount, derives the target status from the remaining due, marks every open
// invoice paid once nothing is due, and attaches a closed capture transaction
// referencing the processor's payment event.
//
// A remaining due of exactly zero counts as fully paid.
func (o *Order) RecordCapture(paid decimal.Decimal, currency, transactionID, parentTransactionID string) (OrderStatus, error) {
	dueLeft := o.TotalDue.Sub(paid)

	target := StatusProcessing
	comment := "purchase complete"
	if dueLeft.IsPositive() {
		target = StatusPaymentReview
		comment = fmt.Sprintf("partly paid (%s %s)", paid.StringFixed(2), currency)
	}

	if err := o.transition(target); err != nil {
		return o.Status, err
	}

	if !dueLeft.IsPositive() {
		for i := range o.Invoices {
			o.Invoices[i].State = InvoicePaid
		}
	}

	o.TotalPaid = o.TotalPaid.Add(paid)
	o.TotalDue = dueLeft
	o.AddStatusHistoryComment(target, comment)
	o.Transactions = append(o.Transactions, PaymentTransaction{
		TransactionID:       transactionID,
		ParentTransactionID: parentTransactionID,
		Type:                TransactionCapture,
		IsClosed:            true,
		CreatedAt:           time.Now(),
	})

	return target, nil
}

// ApplyOutcome maps a notification outcome onto the order status the way the
// storefront expects right after checkout: confirmed payments move the order
// to processing, pending ones park it in payment review, failed ones cancel.
func (o *Order) ApplyOutcome(outcome Outcome) error {
	switch outcome {
	case OutcomeSuccess:
		if err := o.transition(StatusProcessing); err != nil {
			return err
		}
		o.AddStatusHistoryComment(StatusProcessing, "payment confirmed by processor")
	case OutcomePending:
		if err := o.transition(StatusPaymentReview); err != nil {
			return err
		}
		o.AddStatusHistoryComment(StatusPaymentReview, "payment pending at processor")
	case OutcomeError:
		if err := o.transition(StatusCanceled); err != nil {
			return err
		}
		o.AddStatusHistoryComment(StatusCanceled, "payment failed at processor")
	}
	return nil
}

// Reconstitute - Special constructor for loading from DB
func ReconstituteOrder(
	id, incrementID, transactionID string,
	status OrderStatus,
	grandTotal, totalDue, totalPaid decimal.Decimal,
	currency, customerEmail string,
	emailSent bool,
	createdAt, updatedAt time.Time,
) *Order {
	return &Order{
		ID:            id,
		IncrementID:   incrementID,
		TransactionID: transactionID,
		Status:        status,
		GrandTotal:    grandTotal,
		TotalDue:      totalDue,
		TotalPaid:     totalPaid,
		Currency:      currency,
		CustomerEmail: customerEmail,
		EmailSent:     emailSent,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}
