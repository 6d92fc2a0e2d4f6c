package application

import "errors"

var (
	// ErrDuplicateOrder signals that the correlation key's unique constraint
	// rejected an insert because another caller created the order first.
	ErrDuplicateOrder = errors.New("order already exists for transaction")

	// ErrDuplicateEvent signals that the ledger already holds a row for the
	// payment reference id.
	ErrDuplicateEvent = errors.New("payment event already recorded")
)
