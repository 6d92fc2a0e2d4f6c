package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeMalformedNotification = "MALFORMED_NOTIFICATION"
	ErrCodeUnknownEncoding       = "UNKNOWN_ENCODING"
	ErrCodeHashMismatch          = "HASH_MISMATCH"
	ErrCodeQuoteInvalid          = "QUOTE_INVALID"
	ErrCodeQuoteNotFound         = "QUOTE_NOT_FOUND"
	ErrCodePersistFailed         = "PERSIST_FAILED"
	ErrCodeInvalidTransition     = "INVALID_TRANSITION"
	ErrCodeMissingRequiredField  = "MISSING_REQUIRED_FIELD"
	ErrCodeInvalidAmount         = "INVALID_AMOUNT"
)

func NewMalformedNotificationError(reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMalformedNotification,
		Message: fmt.Sprintf("malformed notification: %s", reason),
	}
}

func NewMissingRequiredFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewHashMismatchError(referenceHash string) *DomainError {
	return &DomainError{
		Code:    ErrCodeHashMismatch,
		Message: fmt.Sprintf("security hash does not match reference hash %s", referenceHash),
	}
}

func NewQuoteInvalidError(quoteID, reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeQuoteInvalid,
		Message: fmt.Sprintf("quote %s cannot become an order: %s", quoteID, reason),
	}
}

func NewQuoteNotFoundError(transactionID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeQuoteNotFound,
		Message: fmt.Sprintf("no quote found for transaction %s", transactionID),
	}
}

func NewUnknownEncodingError(encoding string) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnknownEncoding,
		Message: fmt.Sprintf("unsupported document encoding %q", encoding),
	}
}

func NewPersistFailedError(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodePersistFailed,
		Message: "failed to persist reconciliation result",
		Err:     err,
	}
}

func NewInvalidTransitionError(from, to OrderStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

func NewInvalidAmountError(raw string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("invalid presentation amount %q", raw),
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
