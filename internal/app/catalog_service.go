package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"trivia-match-service/internal/domain"
)

// ProductStore abstracts the purchasable-product catalog.
type ProductStore interface {
	Insert(ctx context.Context, p *domain.Product) error
	// GetByID returns (nil, nil) when the product does not exist.
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) (bool, error)
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	NameAR       string
	NameEN       string
	Type         domain.ProductType
	Rounds       *int
	PriceDisplay *string
	Active       *bool
}

// CatalogService is content management for products. Purchasing itself is a
// stub that credits the wallet; there is no payment processing.
type CatalogService struct {
	store  ProductStore
	wallet *WalletService
	now    func() time.Time
}

func NewCatalogService(store ProductStore, wallet *WalletService) *CatalogService {
	return &CatalogService{store: store, wallet: wallet, now: time.Now}
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	now := s.now().UTC()
	p := &domain.Product{
		ID:           uuid.NewString(),
		NameAR:       in.NameAR,
		NameEN:       in.NameEN,
		Type:         in.Type,
		Rounds:       in.Rounds,
		PriceDisplay: in.PriceDisplay,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if p.Type == "" {
		p.Type = domain.ProductRounds
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	if err := s.store.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	if !validID(id) {
		return nil, domain.ErrProductNotFound
	}
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (s *CatalogService) List(ctx context.Context, activeOnly bool) ([]*domain.Product, error) {
	return s.store.List(ctx, activeOnly)
}

func (s *CatalogService) Update(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.NameAR != "" {
		p.NameAR = in.NameAR
	}
	if in.NameEN != "" {
		p.NameEN = in.NameEN
	}
	if in.Type != "" {
		p.Type = in.Type
	}
	if in.Rounds != nil {
		p.Rounds = in.Rounds
	}
	if in.PriceDisplay != nil {
		p.PriceDisplay = in.PriceDisplay
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrProductNotFound
	}
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrProductNotFound
	}
	return nil
}

// PurchaseRoundPack is the stubbed purchase flow: credit the requested
// rounds (or the product's configured pack size) and record the audit entry.
func (s *CatalogService) PurchaseRoundPack(ctx context.Context, userID string, productID *string, rounds int) (int, error) {
	if productID != nil && validID(*productID) {
		p, err := s.store.GetByID(ctx, *productID)
		if err != nil {
			return 0, err
		}
		if p != nil && p.Rounds != nil {
			rounds = *p.Rounds
		}
	}
	if rounds <= 0 {
		rounds = 5
	}
	provider := "stub"
	if err := s.wallet.AddRounds(ctx, userID, rounds, Provenance{ProductID: productID, Provider: &provider}); err != nil {
		return 0, err
	}
	return rounds, nil
}
