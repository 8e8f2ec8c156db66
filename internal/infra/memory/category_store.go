package memory

import (
	"context"
	"sort"
	"sync"

	"trivia-match-service/internal/domain"
)

// CategoryStore is an in-memory implementation of app.CategoryStore.
type CategoryStore struct {
	mu         sync.RWMutex
	categories map[string]*domain.Category
}

func NewCategoryStore() *CategoryStore {
	return &CategoryStore{categories: make(map[string]*domain.Category)}
}

func (s *CategoryStore) Insert(_ context.Context, c *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = cloneCategory(c)
	return nil
}

func (s *CategoryStore) GetByID(_ context.Context, id string) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, nil
	}
	return cloneCategory(c), nil
}

func (s *CategoryStore) List(_ context.Context, activeOnly bool) ([]*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Category
	for _, c := range s.categories {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, cloneCategory(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *CategoryStore) Update(_ context.Context, c *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return domain.ErrCategoryNotFound
	}
	s.categories[c.ID] = cloneCategory(c)
	return nil
}

func (s *CategoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return false, nil
	}
	delete(s.categories, id)
	return true, nil
}

func (s *CategoryStore) IsActive(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	return ok && c.Active, nil
}

func cloneCategory(c *domain.Category) *domain.Category {
	clone := *c
	if c.IconURL != nil {
		u := *c.IconURL
		clone.IconURL = &u
	}
	return &clone
}
