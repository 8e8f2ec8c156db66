package domain

import "time"

// Category is a question topic with bilingual display names. Only active
// categories may be selected into a match.
type Category struct {
	ID        string
	NameAR    string
	NameEN    string
	IconURL   *string
	Active    bool
	Order     int
	CreatedAt time.Time
	UpdatedAt time.Time
}
