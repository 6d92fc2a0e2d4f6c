// Package domain encodes the entities of the payment notification flow:
// inbound notifications, orders, quotes and the processed-event ledger.
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Outcome is the result of the payment attempt a notification reports.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeError   Outcome = "ERROR"
	OutcomePending Outcome = "PENDING"
)

// Channel identifies which callback endpoint delivered a notification.
type Channel string

const (
	ChannelPush     Channel = "PUSH"
	ChannelResponse Channel = "RESPONSE"
)

// Payment type codes as they appear in the second segment of PAYMENT_CODE.
const (
	TypeDebit            = "DB"
	TypePreauthorization = "PA"
	TypeCapture          = "CP"
	TypeReceipt          = "RC"
	TypeFinalize         = "FI"
	TypeRefund           = "RF"
	TypeReversal         = "RV"
)

// Canonical wire field names shared by both channels. The Response channel
// sends them as form keys; the Push parser flattens its XML document into the
// same names so RawFields looks identical regardless of transport.
const (
	FieldTransactionID = "IDENTIFICATION_TRANSACTIONID"
	FieldUniqueID      = "IDENTIFICATION_UNIQUEID"
	FieldReferenceID   = "IDENTIFICATION_REFERENCEID"
	FieldPaymentCode   = "PAYMENT_CODE"
	FieldResult        = "PROCESSING_RESULT"
	FieldStatusCode    = "PROCESSING_STATUS_CODE"
	FieldReturn        = "PROCESSING_RETURN"
	FieldReturnCode    = "PROCESSING_RETURN_CODE"
	FieldReason        = "PROCESSING_REASON"
	FieldAmount        = "PRESENTATION_AMOUNT"
	FieldCurrency      = "PRESENTATION_CURRENCY"
	FieldSecretHash    = "CRITERION_SECRET_HASH"
)

// Notification is one inbound payment event, parsed and immutable. It is
// created per request and discarded after handling; RawFields keeps the full
// original field set for audit regardless of which fields were interpreted.
type Notification struct {
	TransactionID      string
	PaymentReferenceID string
	ParentReferenceID  string
	PaymentMethodCode  string
	PaymentTypeCode    string
	Outcome            Outcome
	Amount             decimal.Decimal
	Currency           string
	SecurityHash       string
	Channel            Channel
	RawFields          map[string]string
	ReceivedAt         time.Time
}

// SplitPaymentCode splits a wire payment code like "DD.DB" into its method
// and type segments. Codes without a separator yield an empty type.
func SplitPaymentCode(code string) (method, paymentType string) {
	method, paymentType, _ = strings.Cut(code, ".")
	return method, paymentType
}

// IsOrderCreating reports whether this notification's payment type is one
// that confirms a purchase and therefore may materialize an order.
func (n *Notification) IsOrderCreating() bool {
	switch n.PaymentTypeCode {
	case TypeDebit, TypePreauthorization, TypeReceipt:
		return true
	default:
		return false
	}
}

// IsReceipt reports whether the notification carries money movement that
// must be reconciled against the order's due amount.
func (n *Notification) IsReceipt() bool {
	return n.PaymentTypeCode == TypeReceipt
}

func (n *Notification) IsSuccess() bool {
	return n.Outcome == OutcomeSuccess
}

func (n *Notification) IsError() bool {
	return n.Outcome == OutcomeError
}

func (n *Notification) IsPending() bool {
	return n.Outcome == OutcomePending
}
