package domain

import "time"

// QuestionStatus gates selection eligibility; only active questions are served.
type QuestionStatus string

const (
	QuestionActive   QuestionStatus = "active"
	QuestionDraft    QuestionStatus = "draft"
	QuestionArchived QuestionStatus = "archived"
)

// MediaBlock references an uploaded asset attached to a prompt, hint or answer.
type MediaBlock struct {
	Kind string `json:"kind"` // image, audio, video
	URL  string `json:"url"`
}

// ContentBlock is text and/or media for prompt, hint or answer content.
type ContentBlock struct {
	Text  *string     `json:"text"`
	Media *MediaBlock `json:"media"`
}

// Hint is optional helper content revealed on request during a round.
type Hint struct {
	Enabled bool          `json:"enabled"`
	Content *ContentBlock `json:"content"`
}

// Question is owned by content management and read-only from the match
// engine's perspective.
type Question struct {
	ID         string
	CategoryID string
	Level      int
	Points     int
	Prompt     ContentBlock
	Hint       Hint
	Answer     *ContentBlock
	Status     QuestionStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
