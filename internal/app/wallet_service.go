package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trivia-match-service/internal/domain"
)

// UserRepository abstracts account storage. DecrementRounds must be a single
// atomic conditional update guarded by "balance > 0" so concurrent
// match-creation calls cannot double-spend.
type UserRepository interface {
	Insert(ctx context.Context, u *domain.User) error
	// GetByID returns (nil, nil) when the user does not exist.
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// UpdateProfile applies non-nil fields only.
	UpdateProfile(ctx context.Context, id string, name *string, favoriteCategoryIDs []string) error
	SetPassword(ctx context.Context, id, passwordHash string) error
	MarkFreeRoundUsed(ctx context.Context, id string) error
	// DecrementRounds reports whether the guarded decrement applied.
	DecrementRounds(ctx context.Context, id string) (bool, error)
	AddRounds(ctx context.Context, id string, delta int) error
	DeactivateExpiredSubscriptions(ctx context.Context, now time.Time) (int, error)
}

// PurchaseRepository records the audit trail for balance changes.
type PurchaseRepository interface {
	Insert(ctx context.Context, p *domain.Purchase) error
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*domain.Purchase, error)
}

// Provenance documents where a balance change came from.
type Provenance struct {
	ProductID   *string
	Provider    *string
	ProviderRef *string
}

// WalletView is the externally consumed entitlement snapshot.
type WalletView struct {
	FreeRoundUsed bool                `json:"free_round_used"`
	RoundsBalance int                 `json:"rounds_balance"`
	Subscription  domain.Subscription `json:"subscription"`
}

// WalletService is the entitlement ledger: it decides match-start
// eligibility and debits the balance.
type WalletService struct {
	users     UserRepository
	purchases PurchaseRepository
	now       func() time.Time
}

func NewWalletService(users UserRepository, purchases PurchaseRepository) *WalletService {
	return &WalletService{users: users, purchases: purchases, now: time.Now}
}

// CanStartMatch reports eligibility and whether the free round will be used.
// The free round takes priority over paid balance. A missing user record is
// simply not eligible; it never blocks other flows.
func (s *WalletService) CanStartMatch(ctx context.Context, userID string) (eligible, useFree bool, err error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, false, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return false, false, nil
	}
	if !u.Entitlements.FreeRoundUsed {
		return true, true, nil
	}
	if u.Entitlements.RoundsBalance > 0 {
		return true, false, nil
	}
	return false, false, nil
}

// UseFreeRound idempotently marks the free round consumed. It does not check
// the balance.
func (s *WalletService) UseFreeRound(ctx context.Context, userID string) error {
	return s.users.MarkFreeRoundUsed(ctx, userID)
}

// ConsumeRound debits one paid round. The guard and the decrement are one
// storage operation; a failed guard means the balance hit zero, typically a
// race with a concurrent consumption.
func (s *WalletService) ConsumeRound(ctx context.Context, userID string) error {
	ok, err := s.users.DecrementRounds(ctx, userID)
	if err != nil {
		return fmt.Errorf("decrement rounds: %w", err)
	}
	if !ok {
		return domain.ErrInsufficientRounds
	}
	return nil
}

// AddRounds credits (or adjusts, for negative delta) the balance and records
// a purchase entry with the same provenance.
func (s *WalletService) AddRounds(ctx context.Context, userID string, delta int, prov Provenance) error {
	if err := s.users.AddRounds(ctx, userID, delta); err != nil {
		return fmt.Errorf("add rounds: %w", err)
	}
	return s.purchases.Insert(ctx, &domain.Purchase{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProductID:   prov.ProductID,
		Provider:    prov.Provider,
		ProviderRef: prov.ProviderRef,
		RoundsDelta: delta,
		CreatedAt:   s.now().UTC(),
	})
}

// Wallet returns the entitlement snapshot. A missing user reads as an
// exhausted wallet rather than an error.
func (s *WalletService) Wallet(ctx context.Context, userID string) (WalletView, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return WalletView{}, err
	}
	if u == nil {
		return WalletView{FreeRoundUsed: true}, nil
	}
	return WalletView{
		FreeRoundUsed: u.Entitlements.FreeRoundUsed,
		RoundsBalance: u.Entitlements.RoundsBalance,
		Subscription:  u.Entitlements.Subscription,
	}, nil
}

// Purchases lists the caller's audit entries, newest first.
func (s *WalletService) Purchases(ctx context.Context, userID string, offset, limit int) ([]*domain.Purchase, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.purchases.ListByUser(ctx, userID, offset, limit)
}
