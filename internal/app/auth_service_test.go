package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
	"trivia-match-service/internal/infra/memory"
)

func newAuthFixture(t *testing.T) (*app.AuthService, *memory.UserRepository, *app.TokenIssuer, string) {
	t.Helper()
	users := memory.NewUserRepository()
	tokens := app.NewTokenIssuer("test-secret", time.Hour)
	svc := app.NewAuthService(users, tokens)

	userID := uuid.NewString()
	hash, err := app.HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := users.Insert(context.Background(), &domain.User{
		ID:           userID,
		Email:        "player@example.com",
		PasswordHash: hash,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return svc, users, tokens, userID
}

func TestLoginIssuesParsableToken(t *testing.T) {
	svc, _, tokens, userID := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), "  Player@Example.COM ", "correct horse battery")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	sub, err := tokens.Parse(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sub != userID {
		t.Fatalf("subject = %s, want %s", sub, userID)
	}
}

func TestLoginDoesNotLeakWhichFieldWasWrong(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, badPass := svc.Login(ctx, "player@example.com", "wrong")
	_, badEmail := svc.Login(ctx, "ghost@example.com", "correct horse battery")
	if !errors.Is(badPass, domain.ErrInvalidCredentials) || !errors.Is(badEmail, domain.ErrInvalidCredentials) {
		t.Fatalf("expected INVALID_CREDENTIALS for both, got %v / %v", badPass, badEmail)
	}
}

func TestParseRejectsForeignSignature(t *testing.T) {
	_, _, tokens, userID := newAuthFixture(t)

	forged := app.NewTokenIssuer("other-secret", time.Hour)
	token, err := forged.Issue(userID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := tokens.Parse(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	_, _, tokens, userID := newAuthFixture(t)

	expired := app.NewTokenIssuer("test-secret", -time.Minute)
	token, err := expired.Issue(userID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := tokens.Parse(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestHashPasswordTruncatesLongInput(t *testing.T) {
	long := strings.Repeat("a", 100)
	hash, err := app.HashPassword(long)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !app.VerifyPassword(long, hash) {
		t.Fatal("long password does not verify against its own hash")
	}
	// Only the first 72 bytes are significant.
	if !app.VerifyPassword(strings.Repeat("a", 72), hash) {
		t.Fatal("72-byte prefix must verify")
	}
}

func TestUpdateMeAppliesPartialProfile(t *testing.T) {
	svc, _, _, userID := newAuthFixture(t)
	ctx := context.Background()

	name := "Sam"
	view, err := svc.UpdateMe(ctx, userID, &name, nil)
	if err != nil {
		t.Fatalf("update name: %v", err)
	}
	if view.Name == nil || *view.Name != "Sam" {
		t.Fatalf("name = %v", view.Name)
	}

	favs := []string{uuid.NewString(), uuid.NewString()}
	view, err = svc.UpdateMe(ctx, userID, nil, favs)
	if err != nil {
		t.Fatalf("update favorites: %v", err)
	}
	if view.Name == nil || *view.Name != "Sam" {
		t.Fatal("nil name must leave the previous value")
	}
	if len(view.FavoriteCategoryIDs) != 2 {
		t.Fatalf("favorites = %v", view.FavoriteCategoryIDs)
	}

	if _, err := svc.UpdateMe(ctx, userID, nil, []string{"not-a-uuid"}); !errors.Is(err, domain.ErrInvalidCategories) {
		t.Fatalf("expected INVALID_CATEGORIES, got %v", err)
	}
}

func TestMeForUnknownUser(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	if _, err := svc.Me(context.Background(), uuid.NewString()); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}
