package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"trivia-match-service/internal/domain"
)

func TestOTPStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewOTPStore(client)
	ctx := context.Background()

	otp := domain.OTP{
		Email:     "player@example.com",
		Code:      "123456",
		Purpose:   domain.OTPLogin,
		ExpiresAt: time.Now().Add(10 * time.Minute),
		CreatedAt: time.Now(),
	}
	if err := store.Put(ctx, otp); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, "player@example.com", domain.OTPLogin)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Code != "123456" {
		t.Fatalf("unexpected otp: %+v", got)
	}

	// A different purpose is a different pending code.
	got, err = store.Get(ctx, "player@example.com", domain.OTPRegister)
	if err != nil {
		t.Fatalf("get other purpose: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no pending code, got %+v", got)
	}

	if err := store.Delete(ctx, "player@example.com", domain.OTPLogin); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = store.Get(ctx, "player@example.com", domain.OTPLogin)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Fatalf("expected deleted, got %+v", got)
	}
}

func TestOTPStoreExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewOTPStore(client)
	ctx := context.Background()

	otp := domain.OTP{
		Email:     "player@example.com",
		Code:      "654321",
		Purpose:   domain.OTPRegister,
		ExpiresAt: time.Now().Add(time.Minute),
	}
	if err := store.Put(ctx, otp); err != nil {
		t.Fatalf("put: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, "player@example.com", domain.OTPRegister)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected expired code gone, got %+v", got)
	}
}
