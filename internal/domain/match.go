package domain

import "time"

// MatchMode selects the play style. Solo is reserved and unused by current flows.
type MatchMode string

const (
	ModeTeam MatchMode = "team"
	ModeSolo MatchMode = "solo"
)

// MatchStatus is one-directional: active matches become finished via an
// explicit finish call, or abandoned by the sweeper. Both end states are terminal.
type MatchStatus string

const (
	StatusActive    MatchStatus = "active"
	StatusFinished  MatchStatus = "finished"
	StatusAbandoned MatchStatus = "abandoned"
)

// JudgeSelection is the umpire's verdict for a round.
type JudgeSelection string

const (
	JudgeTeamA JudgeSelection = "TEAM_A"
	JudgeTeamB JudgeSelection = "TEAM_B"
	JudgeNoOne JudgeSelection = "NO_ONE"
)

// ValidJudgeSelection reports whether s is one of the three allowed verdicts.
func ValidJudgeSelection(s JudgeSelection) bool {
	return s == JudgeTeamA || s == JudgeTeamB || s == JudgeNoOne
}

// ScoredTeam identifies which team slot a judged round credited.
type ScoredTeam string

const (
	ScoredA ScoredTeam = "A"
	ScoredB ScoredTeam = "B"
)

// WinnerResult is the outcome of a finished match.
type WinnerResult string

const (
	WinnerTeamA WinnerResult = "TEAM_A"
	WinnerTeamB WinnerResult = "TEAM_B"
	WinnerDraw  WinnerResult = "DRAW"
)

// LevelPoints is the fixed level→points mapping.
var LevelPoints = map[int]int{1: 100, 2: 200, 3: 500}

// PointsForLevel returns the points for a level, or false for any level
// outside {1,2,3}. Invalid levels must be rejected before reaching the picker.
func PointsForLevel(level int) (int, bool) {
	p, ok := LevelPoints[level]
	return p, ok
}

const (
	DefaultQuestionsPerLevel = 2
	MaxSelectedCategories    = 6
	DefaultTimerSeconds      = 10
)

// Team is one of the two fixed team slots of a match.
type Team struct {
	Name      string  `json:"name"`
	AvatarKey *string `json:"avatar_key"`
	Score     int     `json:"score"`
}

// LevelSetting configures one difficulty level of a match.
type LevelSetting struct {
	Level             int `json:"level"`
	Points            int `json:"points"`
	QuestionsPerLevel int `json:"questions_per_level"`
}

// MatchSettings is fixed per match at creation. TimerSeconds is a display
// hint only; the server never enforces it.
type MatchSettings struct {
	TimerSeconds        int            `json:"timer_seconds"`
	MaxCategories       int            `json:"max_categories"`
	Levels              []LevelSetting `json:"levels"`
	AllowNegativePoints bool           `json:"allow_negative_points"`
}

// DefaultSettings builds the standard match settings, optionally overriding
// the display timer.
func DefaultSettings(timerSeconds int) MatchSettings {
	if timerSeconds <= 0 {
		timerSeconds = DefaultTimerSeconds
	}
	return MatchSettings{
		TimerSeconds:  timerSeconds,
		MaxCategories: MaxSelectedCategories,
		Levels: []LevelSetting{
			{Level: 1, Points: 100, QuestionsPerLevel: DefaultQuestionsPerLevel},
			{Level: 2, Points: 200, QuestionsPerLevel: DefaultQuestionsPerLevel},
			{Level: 3, Points: 500, QuestionsPerLevel: DefaultQuestionsPerLevel},
		},
	}
}

// UsageEntry records which questions have already been served for one
// (category, level) pair of a match. UsedQuestionIDs grows monotonically and
// never holds duplicates.
type UsageEntry struct {
	CategoryID      string   `json:"category_id"`
	Level           int      `json:"level"`
	UsedQuestionIDs []string `json:"used_question_ids"`
}

// Round is one question-and-judgment cycle. JudgeSelection is nil until
// judged and write-once afterwards; ScoredTeam and ScoredPoints are derived
// from it at judge time.
type Round struct {
	RoundNo        int             `json:"round_no"`
	CategoryID     string          `json:"category_id"`
	Level          int             `json:"level"`
	Points         int             `json:"points"`
	QuestionID     string          `json:"question_id"`
	JudgeSelection *JudgeSelection `json:"judge_selection"`
	ScoredTeam     *ScoredTeam     `json:"scored_team"`
	ScoredPoints   int             `json:"scored_points"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Match is the aggregate root for one game session.
type Match struct {
	ID                  string
	OwnerID             string
	Mode                MatchMode
	Status              MatchStatus
	SelectedCategoryIDs []string
	TeamA               Team
	TeamB               Team
	Settings            MatchSettings
	Usage               []UsageEntry
	Rounds              []Round
	FinishedAt          *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// HasCategory reports whether id is one of the match's selected categories.
func (m *Match) HasCategory(id string) bool {
	for _, cid := range m.SelectedCategoryIDs {
		if cid == id {
			return true
		}
	}
	return false
}

// QuestionsPerLevel returns the quota for a level from settings, default 2.
func (m *Match) QuestionsPerLevel(level int) int {
	for _, ls := range m.Settings.Levels {
		if ls.Level == level {
			if ls.QuestionsPerLevel < 1 {
				return DefaultQuestionsPerLevel
			}
			return ls.QuestionsPerLevel
		}
	}
	return DefaultQuestionsPerLevel
}

// UsedQuestionIDs returns the question ids already served for a
// (category, level) pair.
func (m *Match) UsedQuestionIDs(categoryID string, level int) []string {
	for _, u := range m.Usage {
		if u.CategoryID == categoryID && u.Level == level {
			return u.UsedQuestionIDs
		}
	}
	return nil
}

// Round returns the round with the given round_no.
func (m *Match) Round(roundNo int) (*Round, bool) {
	for i := range m.Rounds {
		if m.Rounds[i].RoundNo == roundNo {
			return &m.Rounds[i], true
		}
	}
	return nil, false
}

// Scores returns the current team scores.
func (m *Match) Scores() (teamA, teamB int) {
	return m.TeamA.Score, m.TeamB.Score
}

// Winner computes the final outcome from team totals. The name is nil on a
// draw, otherwise the winning team's display name (possibly empty).
func (m *Match) Winner() (WinnerResult, *string) {
	switch {
	case m.TeamA.Score > m.TeamB.Score:
		name := m.TeamA.Name
		return WinnerTeamA, &name
	case m.TeamB.Score > m.TeamA.Score:
		name := m.TeamB.Name
		return WinnerTeamB, &name
	default:
		return WinnerDraw, nil
	}
}

// MatchSummary counts rounds by judge outcome.
type MatchSummary struct {
	TeamACorrect int `json:"teamA_correct"`
	TeamBCorrect int `json:"teamB_correct"`
	NoOne        int `json:"no_one"`
	TotalRounds  int `json:"total_rounds"`
}

// Summary tallies judged rounds. Unjudged rounds count only toward TotalRounds.
func (m *Match) Summary() MatchSummary {
	s := MatchSummary{TotalRounds: len(m.Rounds)}
	for _, r := range m.Rounds {
		if r.JudgeSelection == nil {
			continue
		}
		switch *r.JudgeSelection {
		case JudgeTeamA:
			s.TeamACorrect++
		case JudgeTeamB:
			s.TeamBCorrect++
		case JudgeNoOne:
			s.NoOne++
		}
	}
	return s
}
