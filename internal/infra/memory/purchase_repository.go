package memory

import (
	"context"
	"sort"
	"sync"

	"trivia-match-service/internal/domain"
)

// PurchaseRepository is an in-memory implementation of app.PurchaseRepository.
type PurchaseRepository struct {
	mu        sync.RWMutex
	purchases []*domain.Purchase
}

func NewPurchaseRepository() *PurchaseRepository {
	return &PurchaseRepository{}
}

func (r *PurchaseRepository) Insert(_ context.Context, p *domain.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	r.purchases = append(r.purchases, &clone)
	return nil
}

func (r *PurchaseRepository) ListByUser(_ context.Context, userID string, offset, limit int) ([]*domain.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Purchase
	for _, p := range r.purchases {
		if p.UserID != userID {
			continue
		}
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
