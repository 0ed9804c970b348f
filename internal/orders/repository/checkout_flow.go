package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bcasadei/rental-website/internal/domain"
	"github.com/google/uuid"
)

func (r *Repository) CreateCheckoutFlow(ctx context.Context, flow *CheckoutFlow) error {
	snapshotJSON, err := json.Marshal(flow.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}

	query := `INSERT INTO checkout_flows (id, user_id, status, stripe_session_id, cart_snapshot, total_amount, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`

	_, err = r.db.ExecContext(ctx, query,
		flow.ID,
		flow.UserID,
		flow.Status,
		flow.StripeSessionID,
		snapshotJSON,
		flow.TotalAmount)
	if err != nil {
		return fmt.Errorf("insert checkout flow: %w", err)
	}
	return nil
}

func (r *Repository) GetCheckoutFlowBySessionID(ctx context.Context, stripeSessionID string) (*CheckoutFlow, error) {
	query := `SELECT id, user_id, status, stripe_session_id, cart_snapshot, total_amount, created_at, updated_at
	          FROM checkout_flows WHERE stripe_session_id = $1`

	var flow CheckoutFlow
	var snapshotJSON []byte
	err := r.db.QueryRowContext(ctx, query, stripeSessionID).Scan(
		&flow.ID,
		&flow.UserID,
		&flow.Status,
		&flow.StripeSessionID,
		&snapshotJSON,
		&flow.TotalAmount,
		&flow.CreatedAt,
		&flow.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFlowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query checkout flow: %w", err)
	}

	if len(snapshotJSON) > 0 {
		flow.Snapshot = &domain.CartSnapshot{}
		if err := json.Unmarshal(snapshotJSON, flow.Snapshot); err != nil {
			return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
		}
	}

	return &flow, nil
}

func (r *Repository) UpdateCheckoutFlowStatus(ctx context.Context, id uuid.UUID, status domain.FlowStatus) error {
	query := `UPDATE checkout_flows SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update checkout flow status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update checkout flow status: %w", err)
	}
	if affected == 0 {
		return ErrFlowNotFound
	}
	return nil
}

// AbandonStaleFlows marks flows still waiting on the payment page past the
// cutoff as ABANDONED. The buyer simply never came back; the cart stays
// untouched.
func (r *Repository) AbandonStaleFlows(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `UPDATE checkout_flows SET status = $1, updated_at = NOW()
	          WHERE status = $2 AND updated_at < $3`

	result, err := r.db.ExecContext(ctx, query,
		domain.FlowStatusAbandoned,
		domain.FlowStatusAwaitingPayment,
		olderThan)
	if err != nil {
		return 0, fmt.Errorf("abandon stale flows: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("abandon stale flows: %w", err)
	}
	return affected, nil
}
