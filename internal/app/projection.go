package app

import (
	"context"
	"time"

	"trivia-match-service/internal/domain"
)

// AnswerSource supplies stored answers keyed by question id in one batch, so
// projecting a match never costs one lookup per round. The Redis answer cache
// and the question store both satisfy it.
type AnswerSource interface {
	BatchAnswers(ctx context.Context, questionIDs []string) (map[string]*domain.ContentBlock, error)
}

// Projector converts internal match state into the externally consumed
// shape. Read-path only; it never mutates the aggregate.
type Projector struct {
	answers AnswerSource
}

func NewProjector(answers AnswerSource) *Projector {
	return &Projector{answers: answers}
}

// TeamView is a team slot as exposed to clients.
type TeamView struct {
	Name      string  `json:"name"`
	AvatarKey *string `json:"avatar_key"`
	Score     int     `json:"score"`
}

// TeamsView holds the two fixed slots.
type TeamsView struct {
	A TeamView `json:"A"`
	B TeamView `json:"B"`
}

// RoundView is a round with its question's stored answer attached.
type RoundView struct {
	RoundNo        int                    `json:"round_no"`
	CategoryID     string                 `json:"category_id"`
	Level          int                    `json:"level"`
	Points         int                    `json:"points"`
	QuestionID     string                 `json:"question_id"`
	JudgeSelection *domain.JudgeSelection `json:"judge_selection"`
	ScoredTeam     *domain.ScoredTeam     `json:"scored_team"`
	ScoredPoints   int                    `json:"scored_points"`
	Answer         *domain.ContentBlock   `json:"answer"`
	CreatedAt      time.Time              `json:"created_at"`
}

// ProgressView wraps the usage list.
type ProgressView struct {
	Usage []domain.UsageEntry `json:"usage"`
}

// MatchView is the external match shape.
type MatchView struct {
	ID                  string               `json:"id"`
	CreatedByUserID     string               `json:"created_by_user_id"`
	Mode                domain.MatchMode     `json:"mode"`
	Status              domain.MatchStatus   `json:"status"`
	SelectedCategoryIDs []string             `json:"selected_category_ids"`
	Teams               TeamsView            `json:"teams"`
	Settings            domain.MatchSettings `json:"settings"`
	Progress            ProgressView         `json:"progress"`
	Rounds              []RoundView          `json:"rounds"`
	FinishedAt          *time.Time           `json:"finished_at"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// Match projects one aggregate, batch-fetching the answers for all rounds.
func (p *Projector) Match(ctx context.Context, m *domain.Match) (*MatchView, error) {
	qids := make([]string, 0, len(m.Rounds))
	for _, r := range m.Rounds {
		if r.QuestionID != "" {
			qids = append(qids, r.QuestionID)
		}
	}
	var answers map[string]*domain.ContentBlock
	if len(qids) > 0 {
		var err error
		answers, err = p.answers.BatchAnswers(ctx, qids)
		if err != nil {
			return nil, err
		}
	}

	rounds := make([]RoundView, 0, len(m.Rounds))
	for _, r := range m.Rounds {
		rounds = append(rounds, RoundView{
			RoundNo:        r.RoundNo,
			CategoryID:     r.CategoryID,
			Level:          r.Level,
			Points:         r.Points,
			QuestionID:     r.QuestionID,
			JudgeSelection: r.JudgeSelection,
			ScoredTeam:     r.ScoredTeam,
			ScoredPoints:   r.ScoredPoints,
			Answer:         answers[r.QuestionID],
			CreatedAt:      r.CreatedAt,
		})
	}

	usage := make([]domain.UsageEntry, len(m.Usage))
	copy(usage, m.Usage)

	return &MatchView{
		ID:                  m.ID,
		CreatedByUserID:     m.OwnerID,
		Mode:                m.Mode,
		Status:              m.Status,
		SelectedCategoryIDs: append([]string(nil), m.SelectedCategoryIDs...),
		Teams: TeamsView{
			A: TeamView{Name: m.TeamA.Name, AvatarKey: m.TeamA.AvatarKey, Score: m.TeamA.Score},
			B: TeamView{Name: m.TeamB.Name, AvatarKey: m.TeamB.AvatarKey, Score: m.TeamB.Score},
		},
		Settings:   m.Settings,
		Progress:   ProgressView{Usage: usage},
		Rounds:     rounds,
		FinishedAt: m.FinishedAt,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}, nil
}

// QuestionPayload is the question shape returned on round issuance: prompt
// and hint availability only, never the answer or hint content.
type QuestionPayload struct {
	ID            string              `json:"id"`
	Prompt        domain.ContentBlock `json:"prompt"`
	HintAvailable bool                `json:"hint_available"`
}

// NextQuestionResult is the payload for a freshly issued round.
type NextQuestionResult struct {
	MatchID      string          `json:"match_id"`
	RoundNo      int             `json:"round_no"`
	TimerSeconds int             `json:"timer_seconds"`
	CategoryID   string          `json:"category_id"`
	Level        int             `json:"level"`
	Points       int             `json:"points"`
	Question     QuestionPayload `json:"question"`
}

// AnswerPayload wraps a round answer; the answer itself may be nil when the
// question never carried one.
type AnswerPayload struct {
	Answer *domain.ContentBlock `json:"answer"`
}

// ScorePair is the two team totals.
type ScorePair struct {
	TeamA int `json:"teamA"`
	TeamB int `json:"teamB"`
}

// JudgedRound summarizes the round a verdict was just applied to.
type JudgedRound struct {
	RoundNo        int                   `json:"round_no"`
	JudgeSelection domain.JudgeSelection `json:"judge_selection"`
	ScoredPoints   int                   `json:"scored_points"`
}

// JudgeResult is returned after a successful judgment.
type JudgeResult struct {
	OK        bool        `json:"ok"`
	Scores    ScorePair   `json:"scores"`
	LastRound JudgedRound `json:"last_round"`
}

// WinnerView names the match outcome; Name is null on a draw.
type WinnerView struct {
	Result domain.WinnerResult `json:"result"`
	Name   *string             `json:"name"`
}

// FinishResult is the final report for a finished match.
type FinishResult struct {
	Status  string              `json:"status"`
	Scores  ScorePair           `json:"scores"`
	Winner  WinnerView          `json:"winner"`
	Summary domain.MatchSummary `json:"summary"`
}
