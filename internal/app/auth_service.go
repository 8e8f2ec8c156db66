package app

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"trivia-match-service/internal/domain"
)

// bcrypt rejects passwords over 72 bytes; truncate explicitly instead of
// surfacing a confusing hashing error.
const bcryptMaxPasswordBytes = 72

// HashPassword produces a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	pw := []byte(password)
	if len(pw) > bcryptMaxPasswordBytes {
		pw = pw[:bcryptMaxPasswordBytes]
	}
	hash, err := bcrypt.GenerateFromPassword(pw, bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether the password matches the stored hash.
func VerifyPassword(password, hash string) bool {
	pw := []byte(password)
	if len(pw) > bcryptMaxPasswordBytes {
		pw = pw[:bcryptMaxPasswordBytes]
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), pw) == nil
}

// UserView is the account shape returned to the owner.
type UserView struct {
	ID                  string              `json:"id"`
	Email               string              `json:"email"`
	Name                *string             `json:"name"`
	IsAdmin             bool                `json:"is_admin"`
	FavoriteCategoryIDs []string            `json:"favorite_category_ids"`
	Stats               domain.UserStats    `json:"stats"`
	Entitlements        domain.Entitlements `json:"entitlements"`
}

// maxFavoriteCategories bounds the profile favorites list.
const maxFavoriteCategories = 20

// AuthService covers password login and profile reads/updates. Registration
// and password reset run through OTPService.
type AuthService struct {
	users  UserRepository
	tokens *TokenIssuer
	now    func() time.Time
}

func NewAuthService(users UserRepository, tokens *TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens, now: time.Now}
}

// Login verifies credentials and returns a bearer token. Unknown email and
// wrong password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (TokenResponse, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return TokenResponse{}, err
	}
	if u == nil || !VerifyPassword(password, u.PasswordHash) {
		return TokenResponse{}, domain.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return TokenResponse{}, err
	}
	return newTokenResponse(token), nil
}

// Me returns the caller's own account view.
func (s *AuthService) Me(ctx context.Context, userID string) (*UserView, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUnauthorized
	}
	return userView(u), nil
}

// UpdateMe applies a partial profile update: nil name is untouched, nil
// favorites list is untouched, a non-nil list replaces the previous one.
func (s *AuthService) UpdateMe(ctx context.Context, userID string, name *string, favoriteCategoryIDs []string) (*UserView, error) {
	if favoriteCategoryIDs != nil {
		if len(favoriteCategoryIDs) > maxFavoriteCategories {
			return nil, domain.ErrInvalidCategories.
				WithMessage("Too many favorite categories").
				WithDetails(map[string]any{"max": maxFavoriteCategories})
		}
		for _, cid := range favoriteCategoryIDs {
			if !validID(cid) {
				return nil, domain.ErrInvalidCategories.WithDetails(map[string]any{"category_id": cid})
			}
		}
	}
	if err := s.users.UpdateProfile(ctx, userID, name, favoriteCategoryIDs); err != nil {
		return nil, err
	}
	return s.Me(ctx, userID)
}

// LookupUser resolves a bearer subject to an account; used by the transport
// auth middleware.
func (s *AuthService) LookupUser(ctx context.Context, userID string) (*domain.User, error) {
	if !validID(userID) {
		return nil, domain.ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUnauthorized
	}
	return u, nil
}

func userView(u *domain.User) *UserView {
	return &UserView{
		ID:                  u.ID,
		Email:               u.Email,
		Name:                u.Name,
		IsAdmin:             u.IsAdmin,
		FavoriteCategoryIDs: append([]string(nil), u.FavoriteCategoryIDs...),
		Stats:               u.Stats,
		Entitlements:        u.Entitlements,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
