package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-match-service/internal/domain"
)

// OTPStore keeps pending one-time codes in Redis with their natural expiry
// as the key TTL. One key per (email, purpose); Put replaces any prior code.
type OTPStore struct {
	client *redis.Client
}

func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client}
}

func (s *OTPStore) Put(ctx context.Context, otp domain.OTP) error {
	payload, err := json.Marshal(otp)
	if err != nil {
		return err
	}
	ttl := time.Until(otp.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	return s.client.Set(ctx, s.key(otp.Email, otp.Purpose), payload, ttl).Err()
}

func (s *OTPStore) Get(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTP, error) {
	raw, err := s.client.Get(ctx, s.key(email, purpose)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var otp domain.OTP
	if err := json.Unmarshal([]byte(raw), &otp); err != nil {
		return nil, err
	}
	return &otp, nil
}

func (s *OTPStore) Delete(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	return s.client.Del(ctx, s.key(email, purpose)).Err()
}

func (s *OTPStore) key(email string, purpose domain.OTPPurpose) string {
	return "otp:" + string(purpose) + ":" + email
}
