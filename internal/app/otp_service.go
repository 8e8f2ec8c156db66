package app

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"trivia-match-service/internal/domain"
)

// OTPStore holds pending one-time codes. Put replaces any existing code for
// the same email+purpose; entries expire on their own (Redis TTL) or are
// checked against ExpiresAt on read.
type OTPStore interface {
	Put(ctx context.Context, otp domain.OTP) error
	// Get returns (nil, nil) when no code is pending.
	Get(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTP, error)
	Delete(ctx context.Context, email string, purpose domain.OTPPurpose) error
}

// Mailer delivers one-time codes. Implementations must not be silent: when
// no mail transport is configured the code is logged instead.
type Mailer interface {
	SendOTP(ctx context.Context, email, code string, purpose domain.OTPPurpose) error
}

// OTPConfig tunes code generation and delivery.
type OTPConfig struct {
	Length         int
	TTL            time.Duration
	Dev            bool // dev codes are a single digit 1-6 and skip delivery
	EchoInResponse bool // dev convenience: return the code to the caller
}

// OTPIssued is the response for a request-OTP call. Code is set only when
// EchoInResponse is enabled.
type OTPIssued struct {
	Message string `json:"message"`
	Code    string `json:"otp,omitempty"`
}

// OTPService runs the three one-time-code flows: registration, login and
// password reset.
type OTPService struct {
	store  OTPStore
	mailer Mailer
	users  UserRepository
	tokens *TokenIssuer
	cfg    OTPConfig
	log    *slog.Logger
	now    func() time.Time
	rnd    *rand.Rand
}

func NewOTPService(store OTPStore, mailer Mailer, users UserRepository, tokens *TokenIssuer, cfg OTPConfig, log *slog.Logger) *OTPService {
	if cfg.Length <= 0 {
		cfg.Length = 6
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return &OTPService{
		store:  store,
		mailer: mailer,
		users:  users,
		tokens: tokens,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RequestRegister starts registration: the pending account fields travel
// with the code until it is verified. Fails when the email already has an
// account.
func (s *OTPService) RequestRegister(ctx context.Context, email, password string, name *string) (*OTPIssued, error) {
	email = normalizeEmail(email)
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrUserExists
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, domain.OTP{
		Email:        email,
		Purpose:      domain.OTPRegister,
		PasswordHash: hash,
		Name:         name,
	})
}

// RequestLogin issues a login code for an existing account.
func (s *OTPService) RequestLogin(ctx context.Context, email string) (*OTPIssued, error) {
	email = normalizeEmail(email)
	if err := s.requireUser(ctx, email); err != nil {
		return nil, err
	}
	return s.issue(ctx, domain.OTP{Email: email, Purpose: domain.OTPLogin})
}

// RequestPasswordReset issues a reset code for an existing account.
func (s *OTPService) RequestPasswordReset(ctx context.Context, email string) (*OTPIssued, error) {
	email = normalizeEmail(email)
	if err := s.requireUser(ctx, email); err != nil {
		return nil, err
	}
	return s.issue(ctx, domain.OTP{Email: email, Purpose: domain.OTPForgotPassword})
}

// VerifyRegister completes registration: consumes the code, creates the
// account with the pending fields, and returns a bearer token.
func (s *OTPService) VerifyRegister(ctx context.Context, email, code string) (TokenResponse, error) {
	email = normalizeEmail(email)
	otp, err := s.consume(ctx, email, domain.OTPRegister, code)
	if err != nil {
		return TokenResponse{}, err
	}
	// The pending email may have been registered through another flow while
	// the code was outstanding.
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return TokenResponse{}, err
	}
	if existing != nil {
		return TokenResponse{}, domain.ErrUserExists
	}
	now := s.now().UTC()
	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: otp.PasswordHash,
		Name:         otp.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Insert(ctx, u); err != nil {
		return TokenResponse{}, err
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return TokenResponse{}, err
	}
	return newTokenResponse(token), nil
}

// VerifyLogin consumes a login code and returns a bearer token.
func (s *OTPService) VerifyLogin(ctx context.Context, email, code string) (TokenResponse, error) {
	email = normalizeEmail(email)
	if _, err := s.consume(ctx, email, domain.OTPLogin, code); err != nil {
		return TokenResponse{}, err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return TokenResponse{}, err
	}
	if u == nil {
		return TokenResponse{}, domain.ErrUserNotFound
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return TokenResponse{}, err
	}
	return newTokenResponse(token), nil
}

// VerifyPasswordReset consumes a reset code and sets the new password.
func (s *OTPService) VerifyPasswordReset(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if _, err := s.consume(ctx, email, domain.OTPForgotPassword, code); err != nil {
		return err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.ErrUserNotFound
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, u.ID, hash)
}

func (s *OTPService) requireUser(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *OTPService) issue(ctx context.Context, otp domain.OTP) (*OTPIssued, error) {
	now := s.now().UTC()
	otp.Code = s.generate()
	otp.CreatedAt = now
	otp.ExpiresAt = now.Add(s.cfg.TTL)
	if err := s.store.Put(ctx, otp); err != nil {
		return nil, err
	}
	if err := s.deliver(ctx, otp); err != nil {
		return nil, err
	}
	out := &OTPIssued{Message: "OTP sent"}
	if s.cfg.EchoInResponse {
		out.Code = otp.Code
	}
	return out, nil
}

func (s *OTPService) deliver(ctx context.Context, otp domain.OTP) error {
	if s.cfg.Dev {
		return nil
	}
	if s.mailer == nil {
		s.log.Info("otp issued without mail transport", "email", otp.Email, "purpose", otp.Purpose, "otp", otp.Code)
		return nil
	}
	if err := s.mailer.SendOTP(ctx, otp.Email, otp.Code, otp.Purpose); err != nil {
		s.log.Error("otp mail delivery failed", "email", otp.Email, "purpose", otp.Purpose, "error", err)
		return domain.ErrEmailSendFailed
	}
	return nil
}

// consume validates and deletes the pending code. Expired codes are removed
// and reported distinctly from wrong codes.
func (s *OTPService) consume(ctx context.Context, email string, purpose domain.OTPPurpose, code string) (*domain.OTP, error) {
	otp, err := s.store.Get(ctx, email, purpose)
	if err != nil {
		return nil, err
	}
	if otp == nil {
		return nil, domain.ErrInvalidOTP
	}
	if otp.Expired(s.now().UTC()) {
		_ = s.store.Delete(ctx, email, purpose)
		return nil, domain.ErrOTPExpired
	}
	if otp.Code != strings.TrimSpace(code) {
		return nil, domain.ErrInvalidOTP
	}
	if err := s.store.Delete(ctx, email, purpose); err != nil {
		return nil, err
	}
	return otp, nil
}

func (s *OTPService) generate() string {
	if s.cfg.Dev {
		// Dev codes stay guessable on purpose.
		return string('1' + byte(s.rnd.Intn(6)))
	}
	digits := make([]byte, s.cfg.Length)
	for i := range digits {
		digits[i] = '0' + byte(s.rnd.Intn(10))
	}
	return string(digits)
}
