package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"trivia-match-service/internal/domain"
)

// CategoryStore abstracts category storage. IsActive also satisfies the
// match engine's CategoryDirectory contract.
type CategoryStore interface {
	Insert(ctx context.Context, c *domain.Category) error
	// GetByID returns (nil, nil) when the category does not exist.
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	// List returns categories ordered by their display order.
	List(ctx context.Context, activeOnly bool) ([]*domain.Category, error)
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id string) (bool, error)
	IsActive(ctx context.Context, id string) (bool, error)
}

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	NameAR  string
	NameEN  string
	IconURL *string
	Active  *bool
	Order   *int
}

// CategoryService is content management for categories.
type CategoryService struct {
	store CategoryStore
	now   func() time.Time
}

func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store, now: time.Now}
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	now := s.now().UTC()
	c := &domain.Category{
		ID:        uuid.NewString(),
		NameAR:    in.NameAR,
		NameEN:    in.NameEN,
		IconURL:   in.IconURL,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Active != nil {
		c.Active = *in.Active
	}
	if in.Order != nil {
		c.Order = *in.Order
	}
	if err := s.store.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	if !validID(id) {
		return nil, domain.ErrCategoryNotFound
	}
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrCategoryNotFound
	}
	return c, nil
}

func (s *CategoryService) List(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	return s.store.List(ctx, activeOnly)
}

// Update applies non-nil fields; name fields update only when non-empty.
func (s *CategoryService) Update(ctx context.Context, id string, in CategoryInput) (*domain.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.NameAR != "" {
		c.NameAR = in.NameAR
	}
	if in.NameEN != "" {
		c.NameEN = in.NameEN
	}
	if in.IconURL != nil {
		c.IconURL = in.IconURL
	}
	if in.Active != nil {
		c.Active = *in.Active
	}
	if in.Order != nil {
		c.Order = *in.Order
	}
	c.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrCategoryNotFound
	}
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrCategoryNotFound
	}
	return nil
}
