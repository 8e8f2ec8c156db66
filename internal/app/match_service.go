package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trivia-match-service/internal/domain"
)

// MatchRepository abstracts match aggregate storage. Mutating operations that
// carry a concurrency contract (AppendRound, Judge, Finish) must be atomic
// conditional updates, not read-then-write.
type MatchRepository interface {
	Insert(ctx context.Context, m *domain.Match) error
	// Get returns (nil, nil) when the match does not exist.
	Get(ctx context.Context, matchID string) (*domain.Match, error)
	List(ctx context.Context, ownerID string, status domain.MatchStatus, offset, limit int) ([]*domain.Match, error)
	Delete(ctx context.Context, matchID, ownerID string) (bool, error)
	// AppendRound appends the round and records its question id into the
	// usage entry for (category, level), as one atomic operation guarded by
	// the current round count. Returns domain.ErrStaleMatch when the guard
	// fails (concurrent issuance) and the caller must re-read and retry.
	AppendRound(ctx context.Context, matchID string, expectedRounds int, round domain.Round) error
	// Judge sets the round's verdict fields and accumulates the team score in
	// one conditional update guarded by "not yet judged". Returns the updated
	// team scores, or domain.ErrRoundAlreadyJudged when the guard fails.
	Judge(ctx context.Context, matchID string, roundNo int, sel domain.JudgeSelection, scoredTeam *domain.ScoredTeam, scoredPoints int) (teamA, teamB int, err error)
	// Finish flips status to finished once. Returns false when the match was
	// already finished.
	Finish(ctx context.Context, matchID string, finishedAt time.Time) (bool, error)
	UpdateTeams(ctx context.Context, matchID string, patch TeamsPatch) error
	// MarkAbandoned abandons active matches untouched since the cutoff.
	MarkAbandoned(ctx context.Context, cutoff time.Time) (int, error)
}

// CategoryDirectory validates category selections at match creation.
type CategoryDirectory interface {
	IsActive(ctx context.Context, categoryID string) (bool, error)
}

// TeamsPatch is a partial update of team display fields; nil fields are untouched.
type TeamsPatch struct {
	TeamAName  *string
	TeamBName  *string
	AvatarKeyA *string
	AvatarKeyB *string
}

// MatchService owns the match lifecycle: creation with entitlement debit,
// round issuance with quota enforcement, judging, and finishing.
type MatchService struct {
	matches    MatchRepository
	questions  QuestionStore
	categories CategoryDirectory
	wallet     *WalletService
	projector  *Projector
	now        func() time.Time
}

func NewMatchService(matches MatchRepository, questions QuestionStore, categories CategoryDirectory, wallet *WalletService, projector *Projector) *MatchService {
	return &MatchService{
		matches:    matches,
		questions:  questions,
		categories: categories,
		wallet:     wallet,
		projector:  projector,
		now:        time.Now,
	}
}

// appendRetries bounds the optimistic-concurrency retry loop for round issuance.
const appendRetries = 3

// Create validates the category selection, debits the entitlement ledger
// (free round first), and persists a fresh active match. The debit happens
// before the insert: a lost round on a storage failure is the accepted
// anomaly, an unpaid playable match is not.
func (s *MatchService) Create(ctx context.Context, ownerID string, categoryIDs []string, teamAName, teamBName string, timerSeconds int) (*MatchView, error) {
	if len(categoryIDs) == 0 {
		return nil, domain.ErrInvalidCategories.WithMessage("Select at least one category")
	}
	if len(categoryIDs) > domain.MaxSelectedCategories {
		return nil, domain.ErrInvalidCategories.
			WithMessage(fmt.Sprintf("Maximum %d categories allowed", domain.MaxSelectedCategories)).
			WithDetails(map[string]any{"max": domain.MaxSelectedCategories})
	}
	for _, cid := range categoryIDs {
		if !validID(cid) {
			return nil, domain.ErrInvalidCategories.WithDetails(map[string]any{"category_id": cid})
		}
		active, err := s.categories.IsActive(ctx, cid)
		if err != nil {
			return nil, fmt.Errorf("check category %s: %w", cid, err)
		}
		if !active {
			return nil, domain.ErrInvalidCategories.
				WithMessage("Category not found or inactive").
				WithDetails(map[string]any{"category_id": cid})
		}
	}

	eligible, useFree, err := s.wallet.CanStartMatch(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, domain.ErrNoRoundsAvailable
	}
	if useFree {
		if err := s.wallet.UseFreeRound(ctx, ownerID); err != nil {
			return nil, err
		}
	} else {
		if err := s.wallet.ConsumeRound(ctx, ownerID); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	m := &domain.Match{
		ID:                  uuid.NewString(),
		OwnerID:             ownerID,
		Mode:                domain.ModeTeam,
		Status:              domain.StatusActive,
		SelectedCategoryIDs: categoryIDs,
		TeamA:               domain.Team{Name: teamAName},
		TeamB:               domain.Team{Name: teamBName},
		Settings:            domain.DefaultSettings(timerSeconds),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.matches.Insert(ctx, m); err != nil {
		return nil, fmt.Errorf("insert match: %w", err)
	}
	return s.projector.Match(ctx, m)
}

// Get returns the projected match, conflating missing and not-owned into
// MATCH_NOT_FOUND so ownership probes cannot leak existence.
func (s *MatchService) Get(ctx context.Context, matchID, callerID string) (*MatchView, error) {
	m, err := s.owned(ctx, matchID, callerID)
	if err != nil {
		return nil, err
	}
	return s.projector.Match(ctx, m)
}

// List returns the caller's matches, newest first, optionally filtered by status.
func (s *MatchService) List(ctx context.Context, callerID string, status domain.MatchStatus, offset, limit int) ([]*MatchView, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	matches, err := s.matches.List(ctx, callerID, status, offset, limit)
	if err != nil {
		return nil, err
	}
	views := make([]*MatchView, 0, len(matches))
	for _, m := range matches {
		v, err := s.projector.Match(ctx, m)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// Delete removes the caller's match. No cascade beyond the aggregate.
func (s *MatchService) Delete(ctx context.Context, matchID, callerID string) error {
	if !validID(matchID) {
		return domain.ErrMatchNotFound
	}
	ok, err := s.matches.Delete(ctx, matchID, callerID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrMatchNotFound
	}
	return nil
}

// NextQuestion issues the next round for a category+level, enforcing the
// per-(category, level) quota. Issuance is linearized per match through the
// repository's conditional append; on a lost race the state is re-read and
// every check re-applied.
func (s *MatchService) NextQuestion(ctx context.Context, matchID, callerID, categoryID string, level int) (*NextQuestionResult, error) {
	points, ok := domain.PointsForLevel(level)
	if !ok {
		return nil, domain.ErrInvalidLevel.WithDetails(map[string]any{"level": level})
	}

	for attempt := 0; attempt < appendRetries; attempt++ {
		m, err := s.owned(ctx, matchID, callerID)
		if err != nil {
			return nil, err
		}
		if m.Status != domain.StatusActive {
			return nil, domain.ErrMatchNotActive
		}
		if !validID(categoryID) || !m.HasCategory(categoryID) {
			msg := "Category not in selected categories. Use a category_id from this match's selected_category_ids (not the match id)."
			if categoryID == matchID {
				msg = "Use a category_id from selected_category_ids, not the match id."
			}
			return nil, domain.ErrInvalidCategories.WithMessage(msg).WithDetails(map[string]any{
				"category_id":           categoryID,
				"selected_category_ids": m.SelectedCategoryIDs,
			})
		}

		quota := m.QuestionsPerLevel(level)
		used := m.UsedQuestionIDs(categoryID, level)
		if len(used) >= quota {
			return nil, domain.ErrLevelQuotaExceeded.
				WithMessage(fmt.Sprintf("Level quota exceeded (max %d questions per category per level)", quota)).
				WithDetails(map[string]any{"category_id": categoryID, "level": level, "max_per_level": quota})
		}

		q, err := s.questions.FindActive(ctx, categoryID, level, points, used)
		if err != nil {
			return nil, fmt.Errorf("pick question: %w", err)
		}
		if q == nil {
			return nil, domain.ErrNoQuestionsLeft.WithDetails(map[string]any{"category_id": categoryID, "level": level})
		}

		round := domain.Round{
			RoundNo:    len(m.Rounds) + 1,
			CategoryID: categoryID,
			Level:      level,
			Points:     points,
			QuestionID: q.ID,
			CreatedAt:  s.now().UTC(),
		}
		err = s.matches.AppendRound(ctx, m.ID, len(m.Rounds), round)
		if err == domain.ErrStaleMatch {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("append round: %w", err)
		}

		return &NextQuestionResult{
			MatchID:      m.ID,
			RoundNo:      round.RoundNo,
			TimerSeconds: m.Settings.TimerSeconds,
			CategoryID:   categoryID,
			Level:        level,
			Points:       points,
			Question: QuestionPayload{
				ID:            q.ID,
				Prompt:        q.Prompt,
				HintAvailable: q.Hint.Enabled,
			},
		}, nil
	}
	return nil, fmt.Errorf("issue round for match %s: %w", matchID, domain.ErrStaleMatch)
}

// RoundHint returns the hint content for a round's question. Owner-only; the
// question may have been deleted after being served, which surfaces as
// QUESTION_NOT_FOUND rather than a failure.
func (s *MatchService) RoundHint(ctx context.Context, matchID, callerID string, roundNo int) (*domain.Hint, error) {
	qid, err := s.roundQuestionID(ctx, matchID, callerID, roundNo)
	if err != nil {
		return nil, err
	}
	hint, err := s.questions.GetHint(ctx, qid)
	if err != nil {
		return nil, err
	}
	if hint == nil {
		return nil, domain.ErrQuestionNotFound
	}
	return hint, nil
}

// RoundAnswer returns the answer content for a round's question. Owner-only.
func (s *MatchService) RoundAnswer(ctx context.Context, matchID, callerID string, roundNo int) (*AnswerPayload, error) {
	qid, err := s.roundQuestionID(ctx, matchID, callerID, roundNo)
	if err != nil {
		return nil, err
	}
	answer, found, err := s.questions.GetAnswer(ctx, qid)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrQuestionNotFound
	}
	return &AnswerPayload{Answer: answer}, nil
}

func (s *MatchService) roundQuestionID(ctx context.Context, matchID, callerID string, roundNo int) (string, error) {
	m, err := s.owned(ctx, matchID, callerID)
	if err != nil {
		return "", err
	}
	r, ok := m.Round(roundNo)
	if !ok {
		return "", domain.ErrRoundNotFound.WithDetails(map[string]any{"round_no": roundNo})
	}
	if r.QuestionID == "" {
		return "", domain.ErrRoundNotFound.
			WithMessage("Round has no question").
			WithDetails(map[string]any{"round_no": roundNo})
	}
	return r.QuestionID, nil
}

// Judge records the verdict for a round. Judging is write-once: the
// repository's conditional update rejects a second verdict even under
// concurrent calls, so score reflects only the first judgment.
func (s *MatchService) Judge(ctx context.Context, matchID, callerID string, roundNo int, sel domain.JudgeSelection) (*JudgeResult, error) {
	if !domain.ValidJudgeSelection(sel) {
		return nil, domain.ErrRoundNotFound.WithMessage("Invalid judge selection").WithDetails(map[string]any{"judge_selection": sel})
	}
	m, err := s.owned(ctx, matchID, callerID)
	if err != nil {
		return nil, err
	}
	if m.Status != domain.StatusActive {
		return nil, domain.ErrMatchNotActive
	}
	r, ok := m.Round(roundNo)
	if !ok {
		return nil, domain.ErrRoundNotFound.WithDetails(map[string]any{"round_no": roundNo})
	}
	if r.JudgeSelection != nil {
		return nil, domain.ErrRoundAlreadyJudged.WithDetails(map[string]any{"round_no": roundNo})
	}

	var scoredTeam *domain.ScoredTeam
	scoredPoints := 0
	switch sel {
	case domain.JudgeTeamA:
		t := domain.ScoredA
		scoredTeam = &t
		scoredPoints = r.Points
	case domain.JudgeTeamB:
		t := domain.ScoredB
		scoredTeam = &t
		scoredPoints = r.Points
	}

	teamA, teamB, err := s.matches.Judge(ctx, m.ID, roundNo, sel, scoredTeam, scoredPoints)
	if err != nil {
		return nil, err
	}
	return &JudgeResult{
		OK:     true,
		Scores: ScorePair{TeamA: teamA, TeamB: teamB},
		LastRound: JudgedRound{
			RoundNo:        roundNo,
			JudgeSelection: sel,
			ScoredPoints:   scoredPoints,
		},
	}, nil
}

// Finish locks the match and reports the outcome. Pure computation over
// accumulated state; nothing is re-scored.
func (s *MatchService) Finish(ctx context.Context, matchID, callerID string) (*FinishResult, error) {
	m, err := s.owned(ctx, matchID, callerID)
	if err != nil {
		return nil, err
	}
	if m.Status == domain.StatusFinished {
		return nil, domain.ErrMatchFinished
	}
	ok, err := s.matches.Finish(ctx, m.ID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with a concurrent finish.
		return nil, domain.ErrMatchFinished
	}

	result, name := m.Winner()
	return &FinishResult{
		Status:  string(domain.StatusFinished),
		Scores:  ScorePair{TeamA: m.TeamA.Score, TeamB: m.TeamB.Score},
		Winner:  WinnerView{Result: result, Name: name},
		Summary: m.Summary(),
	}, nil
}

// PatchTeams updates team names/avatars while the match is active. Nil
// fields are left untouched.
func (s *MatchService) PatchTeams(ctx context.Context, matchID, callerID string, patch TeamsPatch) (*MatchView, error) {
	m, err := s.owned(ctx, matchID, callerID)
	if err != nil {
		return nil, err
	}
	if m.Status != domain.StatusActive {
		return nil, domain.ErrMatchNotActive
	}
	if patch.TeamAName != nil || patch.TeamBName != nil || patch.AvatarKeyA != nil || patch.AvatarKeyB != nil {
		if err := s.matches.UpdateTeams(ctx, m.ID, patch); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, matchID, callerID)
}

// owned loads a match and verifies ownership. Missing match, malformed id and
// foreign owner are indistinguishable to the caller.
func (s *MatchService) owned(ctx context.Context, matchID, callerID string) (*domain.Match, error) {
	if !validID(matchID) {
		return nil, domain.ErrMatchNotFound
	}
	m, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.OwnerID != callerID {
		return nil, domain.ErrMatchNotFound
	}
	return m, nil
}

// validID reports whether id is a well-formed identifier. Malformed ids are
// treated identically to unknown ids everywhere.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
