package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-match-service/internal/domain"
)

// UserRepository stores accounts and their entitlements. The balance debit
// is a single conditional update so concurrent match creations can never
// push the balance below zero.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, password_hash, name, is_admin, favorite_category_ids,
	stats, free_round_used, rounds_balance, sub_active, sub_plan_id, sub_expires_at,
	created_at, updated_at`

func (r *UserRepository) Insert(ctx context.Context, u *domain.User) error {
	stats, err := json.Marshal(u.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, is_admin, favorite_category_ids,
			stats, free_round_used, rounds_balance, sub_active, sub_plan_id, sub_expires_at,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.IsAdmin, u.FavoriteCategoryIDs,
		stats, u.Entitlements.FreeRoundUsed, u.Entitlements.RoundsBalance,
		u.Entitlements.Subscription.Active, u.Entitlements.Subscription.PlanID,
		u.Entitlements.Subscription.ExpiresAt, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, name *string, favoriteCategoryIDs []string) error {
	query := `UPDATE users SET updated_at = now()`
	args := []interface{}{id}
	if name != nil {
		args = append(args, *name)
		query += fmt.Sprintf(`, name = $%d`, len(args))
	}
	if favoriteCategoryIDs != nil {
		args = append(args, favoriteCategoryIDs)
		query += fmt.Sprintf(`, favorite_category_ids = $%d`, len(args))
	}
	query += ` WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) MarkFreeRoundUsed(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET free_round_used = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark free round: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) DecrementRounds(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET rounds_balance = rounds_balance - 1, updated_at = now()
		WHERE id = $1 AND rounds_balance > 0`, id)
	if err != nil {
		return false, fmt.Errorf("decrement rounds: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *UserRepository) AddRounds(ctx context.Context, id string, delta int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET rounds_balance = rounds_balance + $2, updated_at = now()
		WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("add rounds: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) DeactivateExpiredSubscriptions(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET sub_active = FALSE, updated_at = now()
		WHERE sub_active = TRUE AND sub_expires_at IS NOT NULL AND sub_expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("deactivate subscriptions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var stats []byte
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.IsAdmin, &u.FavoriteCategoryIDs,
		&stats, &u.Entitlements.FreeRoundUsed, &u.Entitlements.RoundsBalance,
		&u.Entitlements.Subscription.Active, &u.Entitlements.Subscription.PlanID,
		&u.Entitlements.Subscription.ExpiresAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(stats, &u.Stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}
	return &u, nil
}
