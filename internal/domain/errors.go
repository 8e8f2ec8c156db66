package domain

import (
	"errors"
	"fmt"
)

// Error is a typed, recoverable domain failure. Code identifies the condition,
// Status is the transport status the boundary layer maps it to, and Details
// carries structured context for precise user-facing messages.
type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches errors by code so errors.Is works against the sentinels below
// even after WithDetails produced a copy.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetails returns a copy of the error carrying structured detail fields.
func (e *Error) WithDetails(details map[string]any) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

// WithMessage returns a copy of the error with a more specific message.
func (e *Error) WithMessage(message string) *Error {
	clone := *e
	clone.Message = message
	return &clone
}

var (
	ErrInvalidCategories  = &Error{Code: "INVALID_CATEGORIES", Message: "Invalid category id", Status: 400}
	ErrNoRoundsAvailable  = &Error{Code: "NO_ROUNDS_AVAILABLE", Message: "No rounds available. Use free round or purchase rounds.", Status: 403}
	ErrInsufficientRounds = &Error{Code: "INSUFFICIENT_ROUNDS", Message: "No rounds available", Status: 403}
	ErrMatchNotFound      = &Error{Code: "MATCH_NOT_FOUND", Message: "Match not found", Status: 404}
	ErrMatchNotActive     = &Error{Code: "MATCH_NOT_ACTIVE", Message: "Match is not active", Status: 400}
	ErrMatchFinished      = &Error{Code: "MATCH_ALREADY_FINISHED", Message: "Match already finished", Status: 400}
	ErrLevelQuotaExceeded = &Error{Code: "LEVEL_QUOTA_EXCEEDED", Message: "Level quota exceeded", Status: 409}
	ErrNoQuestionsLeft    = &Error{Code: "NO_QUESTIONS_LEFT_FOR_LEVEL", Message: "No questions left for this category and level", Status: 409}
	ErrRoundNotFound      = &Error{Code: "ROUND_NOT_FOUND", Message: "Round not found", Status: 404}
	ErrRoundAlreadyJudged = &Error{Code: "ROUND_ALREADY_JUDGED", Message: "Round already judged", Status: 409}
	ErrQuestionNotFound   = &Error{Code: "QUESTION_NOT_FOUND", Message: "Question not found", Status: 404}
	ErrCategoryNotFound   = &Error{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", Status: 404}
	ErrProductNotFound    = &Error{Code: "PRODUCT_NOT_FOUND", Message: "Product not found", Status: 404}
	ErrUserNotFound       = &Error{Code: "USER_NOT_FOUND", Message: "No account with this email", Status: 404}
	ErrUserExists         = &Error{Code: "USER_EXISTS", Message: "Email already registered", Status: 409}
	ErrInvalidCredentials = &Error{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", Status: 401}
	ErrUnauthorized       = &Error{Code: "UNAUTHORIZED", Message: "Not authenticated", Status: 401}
	ErrForbidden          = &Error{Code: "FORBIDDEN", Message: "Not allowed", Status: 403}
	ErrInvalidLevel       = &Error{Code: "INVALID_LEVEL", Message: "Level must be 1, 2 or 3", Status: 400}
	ErrInvalidOTP         = &Error{Code: "INVALID_OTP", Message: "Invalid verification code", Status: 400}
	ErrOTPExpired         = &Error{Code: "OTP_EXPIRED", Message: "Verification code expired", Status: 400}
	ErrEmailSendFailed    = &Error{Code: "EMAIL_SEND_FAILED", Message: "Could not send verification email", Status: 500}
)

// ErrStaleMatch signals that a conditional match update lost a race and the
// caller should re-read the aggregate and retry. It never crosses the service
// boundary.
var ErrStaleMatch = errors.New("match version conflict")
