package domain

import "time"

// ProductType separates one-off round packs from subscriptions.
type ProductType string

const (
	ProductRounds       ProductType = "rounds"
	ProductSubscription ProductType = "subscription"
)

// Product is a purchasable offering. Pricing is display-only; payment
// processing is out of scope and purchases are stubbed.
type Product struct {
	ID           string
	NameAR       string
	NameEN       string
	Type         ProductType
	Rounds       *int
	PriceDisplay *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Purchase is the audit entry written whenever a user's round balance
// changes, including negative adjustments.
type Purchase struct {
	ID                    string
	UserID                string
	ProductID             *string
	Provider              *string
	ProviderRef           *string
	RoundsDelta           int
	SubscriptionExpiresAt *time.Time
	CreatedAt             time.Time
}
