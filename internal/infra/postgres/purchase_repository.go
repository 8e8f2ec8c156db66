package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-match-service/internal/domain"
)

// PurchaseRepository stores the append-only balance audit trail.
type PurchaseRepository struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

func (r *PurchaseRepository) Insert(ctx context.Context, p *domain.Purchase) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO purchases (id, user_id, product_id, provider, provider_ref,
			rounds_delta, subscription_expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.UserID, p.ProductID, p.Provider, p.ProviderRef,
		p.RoundsDelta, p.SubscriptionExpiresAt, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

func (r *PurchaseRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*domain.Purchase, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, product_id, provider, provider_ref, rounds_delta,
			subscription_expires_at, created_at
		FROM purchases WHERE user_id = $1
		ORDER BY created_at DESC OFFSET $2 LIMIT $3`,
		userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var out []*domain.Purchase
	for rows.Next() {
		var p domain.Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.ProductID, &p.Provider, &p.ProviderRef,
			&p.RoundsDelta, &p.SubscriptionExpiresAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
