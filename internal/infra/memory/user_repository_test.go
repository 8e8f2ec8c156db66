package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"trivia-match-service/internal/domain"
)

func TestUserRepositoryDecrementGuard(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	u := sampleUser("u1")
	u.Entitlements.RoundsBalance = 1
	if err := repo.Insert(ctx, u); err != nil {
		t.Fatalf("insert: %v", err)
	}

	ok, err := repo.DecrementRounds(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("first decrement: ok=%v err=%v", ok, err)
	}
	ok, err = repo.DecrementRounds(ctx, "u1")
	if err != nil {
		t.Fatalf("second decrement: %v", err)
	}
	if ok {
		t.Fatal("decrement applied with zero balance")
	}

	got, _ := repo.GetByID(ctx, "u1")
	if got.Entitlements.RoundsBalance != 0 {
		t.Fatalf("balance = %d, want 0", got.Entitlements.RoundsBalance)
	}
}

func TestUserRepositoryDecrementConcurrent(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	u := sampleUser("u1")
	u.Entitlements.RoundsBalance = 5
	if err := repo.Insert(ctx, u); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.DecrementRounds(ctx, "u1")
			if err != nil {
				t.Errorf("decrement: %v", err)
				return
			}
			if ok {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if applied != 5 {
		t.Fatalf("applied %d decrements, want 5", applied)
	}
	got, _ := repo.GetByID(ctx, "u1")
	if got.Entitlements.RoundsBalance != 0 {
		t.Fatalf("balance = %d, want 0", got.Entitlements.RoundsBalance)
	}
}

func TestUserRepositoryGetByEmailCaseInsensitive(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	if err := repo.Insert(ctx, sampleUser("u1")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.GetByEmail(ctx, "Player@Example.COM")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got == nil || got.ID != "u1" {
		t.Fatalf("lookup failed: %+v", got)
	}
}

func TestUserRepositoryDeactivateExpiredSubscriptions(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	expired := sampleUser("expired")
	past := time.Now().Add(-time.Hour)
	expired.Entitlements.Subscription = domain.Subscription{Active: true, ExpiresAt: &past}
	current := sampleUser("current")
	future := time.Now().Add(time.Hour)
	current.Entitlements.Subscription = domain.Subscription{Active: true, ExpiresAt: &future}
	if err := repo.Insert(ctx, expired); err != nil {
		t.Fatalf("insert expired: %v", err)
	}
	if err := repo.Insert(ctx, current); err != nil {
		t.Fatalf("insert current: %v", err)
	}

	n, err := repo.DeactivateExpiredSubscriptions(ctx, time.Now())
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if n != 1 {
		t.Fatalf("deactivated %d, want 1", n)
	}
	got, _ := repo.GetByID(ctx, "expired")
	if got.Entitlements.Subscription.Active {
		t.Fatal("expired subscription still active")
	}
	got, _ = repo.GetByID(ctx, "current")
	if !got.Entitlements.Subscription.Active {
		t.Fatal("current subscription deactivated")
	}
}

func sampleUser(id string) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:        id,
		Email:     "player@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}
}
