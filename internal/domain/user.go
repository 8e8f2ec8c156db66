package domain

import "time"

// Subscription is an optional time-boxed plan attached to a user.
type Subscription struct {
	Active    bool       `json:"active"`
	PlanID    *string    `json:"plan_id"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Entitlements is a user's right to start matches: one free round plus a
// purchased balance. RoundsBalance never goes below zero; the debit guard is
// enforced atomically by storage.
type Entitlements struct {
	FreeRoundUsed bool         `json:"free_round_used"`
	RoundsBalance int          `json:"rounds_balance"`
	Subscription  Subscription `json:"subscription"`
}

// UserStats accumulates lifetime play counters.
type UserStats struct {
	GamesPlayed    int `json:"games_played"`
	TotalPoints    int `json:"total_points"`
	CorrectAnswers int `json:"correct_answers"`
	WrongAnswers   int `json:"wrong_answers"`
}

// User is an account record. PasswordHash is a bcrypt hash.
type User struct {
	ID                  string
	Email               string
	PasswordHash        string
	Name                *string
	IsAdmin             bool
	FavoriteCategoryIDs []string
	Stats               UserStats
	Entitlements        Entitlements
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// OTPPurpose distinguishes the three one-time-code flows.
type OTPPurpose string

const (
	OTPRegister       OTPPurpose = "register"
	OTPLogin          OTPPurpose = "login"
	OTPForgotPassword OTPPurpose = "forgot_password"
)

// OTP is a pending one-time code. For registration it also carries the
// pending account fields until the code is verified.
type OTP struct {
	Email        string     `json:"email"`
	Code         string     `json:"code"`
	Purpose      OTPPurpose `json:"purpose"`
	PasswordHash string     `json:"password_hash,omitempty"`
	Name         *string    `json:"name,omitempty"`
	ExpiresAt    time.Time  `json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Expired reports whether the code is past its expiry at the given instant.
func (o *OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
