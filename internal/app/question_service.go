package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"trivia-match-service/internal/domain"
)

// QuestionStore is the question collaborator contract consumed by the match
// engine and by content management. FindActive is the picker query: the
// first active question matching category/level/points whose id is not
// excluded, in a stable order for a fixed data snapshot.
type QuestionStore interface {
	Insert(ctx context.Context, q *domain.Question) error
	// GetByID returns (nil, nil) when the question does not exist.
	GetByID(ctx context.Context, id string) (*domain.Question, error)
	List(ctx context.Context, filter QuestionFilter) ([]*domain.Question, error)
	Update(ctx context.Context, q *domain.Question) error
	Delete(ctx context.Context, id string) (bool, error)
	// FindActive returns (nil, nil) when the pool is exhausted.
	FindActive(ctx context.Context, categoryID string, level, points int, excluded []string) (*domain.Question, error)
	// GetHint returns (nil, nil) when the question does not exist.
	GetHint(ctx context.Context, id string) (*domain.Hint, error)
	// GetAnswer reports found=false when the question does not exist; a nil
	// answer with found=true means the question carries no answer.
	GetAnswer(ctx context.Context, id string) (answer *domain.ContentBlock, found bool, err error)
	BatchAnswers(ctx context.Context, questionIDs []string) (map[string]*domain.ContentBlock, error)
}

// QuestionFilter narrows content-management listings.
type QuestionFilter struct {
	CategoryID string
	Level      int // 0 = any
	Status     domain.QuestionStatus
	Offset     int
	Limit      int
}

// QuestionInput carries the writable question fields.
type QuestionInput struct {
	CategoryID string
	Level      int
	Prompt     domain.ContentBlock
	Hint       *domain.Hint
	Answer     *domain.ContentBlock
	Status     domain.QuestionStatus
}

// QuestionService is content management for the question bank.
type QuestionService struct {
	store QuestionStore
	now   func() time.Time
}

func NewQuestionService(store QuestionStore) *QuestionService {
	return &QuestionService{store: store, now: time.Now}
}

// Create validates the level and derives points from it; questions can never
// carry points outside the level mapping.
func (s *QuestionService) Create(ctx context.Context, in QuestionInput) (*domain.Question, error) {
	points, ok := domain.PointsForLevel(in.Level)
	if !ok {
		return nil, domain.ErrInvalidLevel.WithDetails(map[string]any{"level": in.Level})
	}
	now := s.now().UTC()
	q := &domain.Question{
		ID:         uuid.NewString(),
		CategoryID: in.CategoryID,
		Level:      in.Level,
		Points:     points,
		Prompt:     in.Prompt,
		Status:     in.Status,
		Answer:     in.Answer,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if in.Hint != nil {
		q.Hint = *in.Hint
	}
	if q.Status == "" {
		q.Status = domain.QuestionActive
	}
	if err := s.store.Insert(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) Get(ctx context.Context, id string) (*domain.Question, error) {
	if !validID(id) {
		return nil, domain.ErrQuestionNotFound
	}
	q, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (s *QuestionService) List(ctx context.Context, filter QuestionFilter) ([]*domain.Question, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.store.List(ctx, filter)
}

// Update rewrites the writable fields of an existing question.
func (s *QuestionService) Update(ctx context.Context, id string, in QuestionInput) (*domain.Question, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	points, ok := domain.PointsForLevel(in.Level)
	if !ok {
		return nil, domain.ErrInvalidLevel.WithDetails(map[string]any{"level": in.Level})
	}
	q.CategoryID = in.CategoryID
	q.Level = in.Level
	q.Points = points
	q.Prompt = in.Prompt
	q.Answer = in.Answer
	if in.Hint != nil {
		q.Hint = *in.Hint
	}
	if in.Status != "" {
		q.Status = in.Status
	}
	q.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrQuestionNotFound
	}
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrQuestionNotFound
	}
	return nil
}
