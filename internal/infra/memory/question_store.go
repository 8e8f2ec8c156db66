package memory

import (
	"context"
	"sort"
	"sync"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
)

// QuestionStore is an in-memory implementation of app.QuestionStore.
// FindActive picks deterministically: oldest created first, id as tiebreak,
// so repeated issuance walks the pool in a stable order.
type QuestionStore struct {
	mu        sync.RWMutex
	questions map[string]*domain.Question
}

func NewQuestionStore() *QuestionStore {
	return &QuestionStore{questions: make(map[string]*domain.Question)}
}

func (s *QuestionStore) Insert(_ context.Context, q *domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[q.ID] = cloneQuestion(q)
	return nil
}

func (s *QuestionStore) GetByID(_ context.Context, id string) (*domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, nil
	}
	return cloneQuestion(q), nil
}

func (s *QuestionStore) List(_ context.Context, filter app.QuestionFilter) ([]*domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Question
	for _, q := range s.questions {
		if filter.CategoryID != "" && q.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Level != 0 && q.Level != filter.Level {
			continue
		}
		if filter.Status != "" && q.Status != filter.Status {
			continue
		}
		out = append(out, cloneQuestion(q))
	}
	sortQuestions(out)
	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *QuestionStore) Update(_ context.Context, q *domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[q.ID]; !ok {
		return domain.ErrQuestionNotFound
	}
	s.questions[q.ID] = cloneQuestion(q)
	return nil
}

func (s *QuestionStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return false, nil
	}
	delete(s.questions, id)
	return true, nil
}

func (s *QuestionStore) FindActive(_ context.Context, categoryID string, level, points int, excluded []string) (*domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	skip := make(map[string]struct{}, len(excluded))
	for _, id := range excluded {
		skip[id] = struct{}{}
	}
	var candidates []*domain.Question
	for _, q := range s.questions {
		if q.Status != domain.QuestionActive || q.CategoryID != categoryID || q.Level != level || q.Points != points {
			continue
		}
		if _, used := skip[q.ID]; used {
			continue
		}
		candidates = append(candidates, q)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sortQuestions(candidates)
	return cloneQuestion(candidates[0]), nil
}

func (s *QuestionStore) GetHint(_ context.Context, id string) (*domain.Hint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, nil
	}
	hint := q.Hint
	if hint.Content != nil {
		c := *hint.Content
		hint.Content = &c
	}
	return &hint, nil
}

func (s *QuestionStore) GetAnswer(_ context.Context, id string) (*domain.ContentBlock, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, false, nil
	}
	if q.Answer == nil {
		return nil, true, nil
	}
	a := *q.Answer
	return &a, true, nil
}

func (s *QuestionStore) BatchAnswers(_ context.Context, questionIDs []string) (map[string]*domain.ContentBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*domain.ContentBlock, len(questionIDs))
	for _, id := range questionIDs {
		q, ok := s.questions[id]
		if !ok || q.Answer == nil {
			continue
		}
		a := *q.Answer
		out[id] = &a
	}
	return out, nil
}

func sortQuestions(qs []*domain.Question) {
	sort.Slice(qs, func(i, j int) bool {
		if !qs[i].CreatedAt.Equal(qs[j].CreatedAt) {
			return qs[i].CreatedAt.Before(qs[j].CreatedAt)
		}
		return qs[i].ID < qs[j].ID
	})
}

func cloneQuestion(q *domain.Question) *domain.Question {
	clone := *q
	if q.Answer != nil {
		a := *q.Answer
		clone.Answer = &a
	}
	if q.Hint.Content != nil {
		c := *q.Hint.Content
		clone.Hint.Content = &c
	}
	return &clone
}
