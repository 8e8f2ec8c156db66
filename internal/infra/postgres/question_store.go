package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
)

// QuestionStore stores the question bank. Content blocks live as JSONB;
// FindActive walks the eligible pool in insertion order so issuance is
// deterministic for a given bank.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

const questionColumns = `id, category_id, level, points, prompt, hint, answer, status, created_at, updated_at`

func (s *QuestionStore) Insert(ctx context.Context, q *domain.Question) error {
	prompt, hint, answer, err := marshalQuestionBlocks(q)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO questions (id, category_id, level, points, prompt, hint, answer, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		q.ID, q.CategoryID, q.Level, q.Points, prompt, hint, answer, q.Status, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (s *QuestionStore) GetByID(ctx context.Context, id string) (*domain.Question, error) {
	q, err := scanQuestion(s.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

func (s *QuestionStore) List(ctx context.Context, filter app.QuestionFilter) ([]*domain.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE TRUE`
	var args []interface{}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		query += fmt.Sprintf(` AND category_id = $%d`, len(args))
	}
	if filter.Level != 0 {
		args = append(args, filter.Level)
		query += fmt.Sprintf(` AND level = $%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	query += fmt.Sprintf(` ORDER BY created_at, id OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Offset, filter.Limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *QuestionStore) Update(ctx context.Context, q *domain.Question) error {
	prompt, hint, answer, err := marshalQuestionBlocks(q)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE questions SET category_id = $2, level = $3, points = $4, prompt = $5,
			hint = $6, answer = $7, status = $8, updated_at = $9
		WHERE id = $1`,
		q.ID, q.CategoryID, q.Level, q.Points, prompt, hint, answer, q.Status, q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *QuestionStore) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete question: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *QuestionStore) FindActive(ctx context.Context, categoryID string, level, points int, excluded []string) (*domain.Question, error) {
	if excluded == nil {
		excluded = []string{}
	}
	q, err := scanQuestion(s.pool.QueryRow(ctx, `
		SELECT `+questionColumns+` FROM questions
		WHERE category_id = $1 AND level = $2 AND points = $3 AND status = 'active'
			AND NOT (id = ANY($4))
		ORDER BY created_at, id
		LIMIT 1`,
		categoryID, level, points, excluded))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find question: %w", err)
	}
	return q, nil
}

func (s *QuestionStore) GetHint(ctx context.Context, id string) (*domain.Hint, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT hint FROM questions WHERE id = $1`, id).Scan(&raw)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get hint: %w", err)
	}
	var hint domain.Hint
	if err := json.Unmarshal(raw, &hint); err != nil {
		return nil, fmt.Errorf("unmarshal hint: %w", err)
	}
	return &hint, nil
}

func (s *QuestionStore) GetAnswer(ctx context.Context, id string) (*domain.ContentBlock, bool, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT answer FROM questions WHERE id = $1`, id).Scan(&raw)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get answer: %w", err)
	}
	if raw == nil {
		return nil, true, nil
	}
	var answer domain.ContentBlock
	if err := json.Unmarshal(raw, &answer); err != nil {
		return nil, false, fmt.Errorf("unmarshal answer: %w", err)
	}
	return &answer, true, nil
}

func (s *QuestionStore) BatchAnswers(ctx context.Context, questionIDs []string) (map[string]*domain.ContentBlock, error) {
	out := make(map[string]*domain.ContentBlock, len(questionIDs))
	if len(questionIDs) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, answer FROM questions WHERE id = ANY($1) AND answer IS NOT NULL`, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("batch answers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		var answer domain.ContentBlock
		if err := json.Unmarshal(raw, &answer); err != nil {
			return nil, fmt.Errorf("unmarshal answer: %w", err)
		}
		out[id] = &answer
	}
	return out, rows.Err()
}

func marshalQuestionBlocks(q *domain.Question) (prompt, hint, answer []byte, err error) {
	prompt, err = json.Marshal(q.Prompt)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal prompt: %w", err)
	}
	hint, err = json.Marshal(q.Hint)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal hint: %w", err)
	}
	if q.Answer != nil {
		answer, err = json.Marshal(q.Answer)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("marshal answer: %w", err)
		}
	}
	return prompt, hint, answer, nil
}

func scanQuestion(row pgx.Row) (*domain.Question, error) {
	var q domain.Question
	var prompt, hint, answer []byte
	err := row.Scan(&q.ID, &q.CategoryID, &q.Level, &q.Points, &prompt, &hint, &answer,
		&q.Status, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(prompt, &q.Prompt); err != nil {
		return nil, fmt.Errorf("unmarshal prompt: %w", err)
	}
	if err := json.Unmarshal(hint, &q.Hint); err != nil {
		return nil, fmt.Errorf("unmarshal hint: %w", err)
	}
	if answer != nil {
		q.Answer = &domain.ContentBlock{}
		if err := json.Unmarshal(answer, q.Answer); err != nil {
			return nil, fmt.Errorf("unmarshal answer: %w", err)
		}
	}
	return &q, nil
}
