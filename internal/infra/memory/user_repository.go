package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"trivia-match-service/internal/domain"
)

// UserRepository is an in-memory implementation of app.UserRepository. The
// guarded decrement in DecrementRounds holds the lock across check and
// mutate, matching the SQL implementation's conditional update.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

func (r *UserRepository) Insert(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, id string, name *string, favoriteCategoryIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if name != nil {
		u.Name = name
	}
	if favoriteCategoryIDs != nil {
		u.FavoriteCategoryIDs = append([]string(nil), favoriteCategoryIDs...)
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) SetPassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) MarkFreeRoundUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Entitlements.FreeRoundUsed = true
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) DecrementRounds(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.Entitlements.RoundsBalance <= 0 {
		return false, nil
	}
	u.Entitlements.RoundsBalance--
	u.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *UserRepository) AddRounds(_ context.Context, id string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Entitlements.RoundsBalance += delta
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) DeactivateExpiredSubscriptions(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, u := range r.users {
		sub := &u.Entitlements.Subscription
		if sub.Active && sub.ExpiresAt != nil && sub.ExpiresAt.Before(now) {
			sub.Active = false
			count++
		}
	}
	return count, nil
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	clone.FavoriteCategoryIDs = append([]string(nil), u.FavoriteCategoryIDs...)
	if u.Entitlements.Subscription.ExpiresAt != nil {
		t := *u.Entitlements.Subscription.ExpiresAt
		clone.Entitlements.Subscription.ExpiresAt = &t
	}
	return &clone
}
