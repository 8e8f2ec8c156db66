package memory

import (
	"context"
	"sync"

	"trivia-match-service/internal/domain"
)

// OTPStore is an in-memory implementation of app.OTPStore. At most one code
// is pending per (email, purpose); Put replaces any previous one.
type OTPStore struct {
	mu    sync.Mutex
	codes map[string]domain.OTP
}

func NewOTPStore() *OTPStore {
	return &OTPStore{codes: make(map[string]domain.OTP)}
}

func (s *OTPStore) Put(_ context.Context, otp domain.OTP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[otpKey(otp.Email, otp.Purpose)] = otp
	return nil
}

func (s *OTPStore) Get(_ context.Context, email string, purpose domain.OTPPurpose) (*domain.OTP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	otp, ok := s.codes[otpKey(email, purpose)]
	if !ok {
		return nil, nil
	}
	return &otp, nil
}

func (s *OTPStore) Delete(_ context.Context, email string, purpose domain.OTPPurpose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, otpKey(email, purpose))
	return nil
}

func otpKey(email string, purpose domain.OTPPurpose) string {
	return email + ":" + string(purpose)
}
