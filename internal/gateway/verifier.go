package gateway

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/fictshop/payment-webhooks/internal/domain"
)

// VerifySecurityHash checks the notification's authenticity hash against the
// shared secret. The reference hash is the hex sha512 of the secret
// concatenated with the transaction id; comparison is constant-time.
//
// A mismatch is a hard trust violation: the caller must not mutate any order
// state and should log the remote address and reference hash for audit.
func VerifySecurityHash(n *domain.Notification, secret string) error {
	if n.SecurityHash == "" {
		return domain.NewHashMismatchError("<empty>")
	}

	expected := ComputeSecurityHash(secret, n.TransactionID)

	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(n.SecurityHash))) != 1 {
		return domain.NewHashMismatchError(n.SecurityHash)
	}
	return nil
}

// ComputeSecurityHash derives the reference hash for a transaction id. Used
// by tests and by outbound request construction.
func ComputeSecurityHash(secret, transactionID string) string {
	sum := sha512.Sum512([]byte(secret + transactionID))
	return hex.EncodeToString(sum[:])
}
