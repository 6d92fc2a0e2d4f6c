package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fictshop/payment-webhooks/internal/domain"
)

// AuditRepository stores every inbound notification's raw field set,
// append-only, regardless of whether processing succeeded. Rows are pruned
// by the retention worker.
type AuditRepository struct {
	q Executor
}

func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{q: db.Pool}
}

func (r *AuditRepository) Record(ctx context.Context, channel domain.Channel, transactionID string, rawFields map[string]string) error {
	payload, err := json.Marshal(rawFields)
	if err != nil {
		return fmt.Errorf("failed to encode raw fields: %w", err)
	}

	_, err = r.q.Exec(ctx, `
		INSERT INTO notification_audit (channel, transaction_id, raw_fields, received_at)
		VALUES ($1, $2, $3, now())
	`, string(channel), transactionID, payload)
	if err != nil {
		return fmt.Errorf("failed to record notification audit: %w", err)
	}
	return nil
}

func (r *AuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.q.Exec(ctx,
		`DELETE FROM notification_audit WHERE received_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune notification audit: %w", err)
	}
	return result.RowsAffected(), nil
}
