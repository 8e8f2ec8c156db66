package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
)

// MatchRepository is an in-memory implementation of app.MatchRepository.
// Every conditional update holds the repository lock, which makes the
// guard-and-mutate pairs atomic the same way the SQL implementation's
// conditional statements are.
type MatchRepository struct {
	mu      sync.RWMutex
	matches map[string]*domain.Match
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{matches: make(map[string]*domain.Match)}
}

func (r *MatchRepository) Insert(_ context.Context, m *domain.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[m.ID] = cloneMatch(m)
	return nil
}

func (r *MatchRepository) Get(_ context.Context, matchID string) (*domain.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matches[matchID]
	if !ok {
		return nil, nil
	}
	return cloneMatch(m), nil
}

func (r *MatchRepository) List(_ context.Context, ownerID string, status domain.MatchStatus, offset, limit int) ([]*domain.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Match
	for _, m := range r.matches {
		if m.OwnerID != ownerID {
			continue
		}
		if status != "" && m.Status != status {
			continue
		}
		out = append(out, cloneMatch(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MatchRepository) Delete(_ context.Context, matchID, ownerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[matchID]
	if !ok || m.OwnerID != ownerID {
		return false, nil
	}
	delete(r.matches, matchID)
	return true, nil
}

func (r *MatchRepository) AppendRound(_ context.Context, matchID string, expectedRounds int, round domain.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[matchID]
	if !ok {
		return domain.ErrMatchNotFound
	}
	if m.Status != domain.StatusActive || len(m.Rounds) != expectedRounds {
		return domain.ErrStaleMatch
	}
	m.Rounds = append(m.Rounds, round)
	appendUsage(m, round.CategoryID, round.Level, round.QuestionID)
	m.UpdatedAt = round.CreatedAt
	return nil
}

func (r *MatchRepository) Judge(_ context.Context, matchID string, roundNo int, sel domain.JudgeSelection, scoredTeam *domain.ScoredTeam, scoredPoints int) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[matchID]
	if !ok {
		return 0, 0, domain.ErrMatchNotFound
	}
	var round *domain.Round
	for i := range m.Rounds {
		if m.Rounds[i].RoundNo == roundNo {
			round = &m.Rounds[i]
			break
		}
	}
	if round == nil {
		return 0, 0, domain.ErrRoundNotFound
	}
	if round.JudgeSelection != nil {
		return 0, 0, domain.ErrRoundAlreadyJudged
	}
	selCopy := sel
	round.JudgeSelection = &selCopy
	round.ScoredTeam = scoredTeam
	round.ScoredPoints = scoredPoints
	if scoredTeam != nil {
		switch *scoredTeam {
		case domain.ScoredA:
			m.TeamA.Score += scoredPoints
		case domain.ScoredB:
			m.TeamB.Score += scoredPoints
		}
	}
	m.UpdatedAt = time.Now().UTC()
	return m.TeamA.Score, m.TeamB.Score, nil
}

func (r *MatchRepository) Finish(_ context.Context, matchID string, finishedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[matchID]
	if !ok {
		return false, domain.ErrMatchNotFound
	}
	if m.Status == domain.StatusFinished {
		return false, nil
	}
	m.Status = domain.StatusFinished
	m.FinishedAt = &finishedAt
	m.UpdatedAt = finishedAt
	return true, nil
}

func (r *MatchRepository) UpdateTeams(_ context.Context, matchID string, patch app.TeamsPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[matchID]
	if !ok {
		return domain.ErrMatchNotFound
	}
	if patch.TeamAName != nil {
		m.TeamA.Name = *patch.TeamAName
	}
	if patch.TeamBName != nil {
		m.TeamB.Name = *patch.TeamBName
	}
	if patch.AvatarKeyA != nil {
		m.TeamA.AvatarKey = patch.AvatarKeyA
	}
	if patch.AvatarKeyB != nil {
		m.TeamB.AvatarKey = patch.AvatarKeyB
	}
	m.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MatchRepository) MarkAbandoned(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.matches {
		if m.Status == domain.StatusActive && m.UpdatedAt.Before(cutoff) {
			m.Status = domain.StatusAbandoned
			count++
		}
	}
	return count, nil
}

// appendUsage records the question id for (category, level), creating the
// entry if missing. Duplicate ids are never appended.
func appendUsage(m *domain.Match, categoryID string, level int, questionID string) {
	for i := range m.Usage {
		u := &m.Usage[i]
		if u.CategoryID == categoryID && u.Level == level {
			for _, qid := range u.UsedQuestionIDs {
				if qid == questionID {
					return
				}
			}
			u.UsedQuestionIDs = append(u.UsedQuestionIDs, questionID)
			return
		}
	}
	m.Usage = append(m.Usage, domain.UsageEntry{
		CategoryID:      categoryID,
		Level:           level,
		UsedQuestionIDs: []string{questionID},
	})
}

func cloneMatch(m *domain.Match) *domain.Match {
	clone := *m
	clone.SelectedCategoryIDs = append([]string(nil), m.SelectedCategoryIDs...)
	clone.Rounds = make([]domain.Round, len(m.Rounds))
	for i, r := range m.Rounds {
		rc := r
		if r.JudgeSelection != nil {
			sel := *r.JudgeSelection
			rc.JudgeSelection = &sel
		}
		if r.ScoredTeam != nil {
			st := *r.ScoredTeam
			rc.ScoredTeam = &st
		}
		clone.Rounds[i] = rc
	}
	clone.Usage = make([]domain.UsageEntry, len(m.Usage))
	for i, u := range m.Usage {
		uc := u
		uc.UsedQuestionIDs = append([]string(nil), u.UsedQuestionIDs...)
		clone.Usage[i] = uc
	}
	if m.FinishedAt != nil {
		t := *m.FinishedAt
		clone.FinishedAt = &t
	}
	return &clone
}
