package memory

import (
	"context"
	"sort"
	"sync"

	"trivia-match-service/internal/domain"
)

// ProductStore is an in-memory implementation of app.ProductStore.
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewProductStore() *ProductStore {
	return &ProductStore{products: make(map[string]*domain.Product)}
}

func (s *ProductStore) Insert(_ context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = cloneProduct(p)
	return nil
}

func (s *ProductStore) GetByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return cloneProduct(p), nil
}

func (s *ProductStore) List(_ context.Context, activeOnly bool) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Product
	for _, p := range s.products {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *ProductStore) Update(_ context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	s.products[p.ID] = cloneProduct(p)
	return nil
}

func (s *ProductStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return false, nil
	}
	delete(s.products, id)
	return true, nil
}

func cloneProduct(p *domain.Product) *domain.Product {
	clone := *p
	if p.Rounds != nil {
		n := *p.Rounds
		clone.Rounds = &n
	}
	if p.PriceDisplay != nil {
		d := *p.PriceDisplay
		clone.PriceDisplay = &d
	}
	return &clone
}
