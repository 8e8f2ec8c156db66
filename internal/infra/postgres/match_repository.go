package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
)

// MatchRepository stores matches across three tables: the aggregate row, its
// rounds, and per-(category, level) usage. Round issuance and judging rely on
// conditional updates so concurrent writers lose cleanly instead of
// double-writing.
type MatchRepository struct {
	pool *pgxpool.Pool
}

func NewMatchRepository(pool *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{pool: pool}
}

const matchColumns = `id, owner_id, mode, status, selected_category_ids,
	team_a_name, team_a_avatar_key, team_a_score,
	team_b_name, team_b_avatar_key, team_b_score,
	settings, finished_at, created_at, updated_at`

func (r *MatchRepository) Insert(ctx context.Context, m *domain.Match) error {
	settings, err := json.Marshal(m.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO matches (id, owner_id, mode, status, selected_category_ids,
			team_a_name, team_a_avatar_key, team_a_score,
			team_b_name, team_b_avatar_key, team_b_score,
			settings, round_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, $13, $14)`,
		m.ID, m.OwnerID, m.Mode, m.Status, m.SelectedCategoryIDs,
		m.TeamA.Name, m.TeamA.AvatarKey, m.TeamA.Score,
		m.TeamB.Name, m.TeamB.AvatarKey, m.TeamB.Score,
		settings, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

func (r *MatchRepository) Get(ctx context.Context, matchID string) (*domain.Match, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, matchID)
	m, err := scanMatch(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	if err := r.loadDetails(ctx, []*domain.Match{m}); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MatchRepository) List(ctx context.Context, ownerID string, status domain.MatchStatus, offset, limit int) ([]*domain.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE owner_id = $1`
	args := []interface{}{ownerID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []*domain.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	if err := r.loadDetails(ctx, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *MatchRepository) Delete(ctx context.Context, matchID, ownerID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM matches WHERE id = $1 AND owner_id = $2`, matchID, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete match: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *MatchRepository) AppendRound(ctx context.Context, matchID string, expectedRounds int, round domain.Round) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// The round_count guard linearizes issuance: only the writer that saw the
	// current count gets to append.
	tag, err := tx.Exec(ctx, `
		UPDATE matches SET round_count = round_count + 1, updated_at = $3
		WHERE id = $1 AND status = 'active' AND round_count = $2`,
		matchID, expectedRounds, round.CreatedAt)
	if err != nil {
		return fmt.Errorf("bump round count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStaleMatch
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO match_rounds (match_id, round_no, category_id, level, points, question_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		matchID, round.RoundNo, round.CategoryID, round.Level, round.Points, round.QuestionID, round.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO match_usage (match_id, category_id, level, used_question_ids)
		VALUES ($1, $2, $3, ARRAY[$4])
		ON CONFLICT (match_id, category_id, level) DO UPDATE
		SET used_question_ids = array_append(match_usage.used_question_ids, $4)
		WHERE NOT match_usage.used_question_ids @> ARRAY[$4]`,
		matchID, round.CategoryID, round.Level, round.QuestionID)
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *MatchRepository) Judge(ctx context.Context, matchID string, roundNo int, sel domain.JudgeSelection, scoredTeam *domain.ScoredTeam, scoredPoints int) (int, int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE match_rounds SET judge_selection = $3, scored_team = $4, scored_points = $5
		WHERE match_id = $1 AND round_no = $2 AND judge_selection IS NULL`,
		matchID, roundNo, sel, scoredTeam, scoredPoints)
	if err != nil {
		return 0, 0, fmt.Errorf("judge round: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM match_rounds WHERE match_id = $1 AND round_no = $2)`,
			matchID, roundNo).Scan(&exists); err != nil {
			return 0, 0, fmt.Errorf("check round: %w", err)
		}
		if !exists {
			return 0, 0, domain.ErrRoundNotFound
		}
		return 0, 0, domain.ErrRoundAlreadyJudged
	}

	deltaA, deltaB := 0, 0
	if scoredTeam != nil {
		switch *scoredTeam {
		case domain.ScoredA:
			deltaA = scoredPoints
		case domain.ScoredB:
			deltaB = scoredPoints
		}
	}
	var teamA, teamB int
	err = tx.QueryRow(ctx, `
		UPDATE matches SET team_a_score = team_a_score + $2, team_b_score = team_b_score + $3, updated_at = now()
		WHERE id = $1
		RETURNING team_a_score, team_b_score`,
		matchID, deltaA, deltaB).Scan(&teamA, &teamB)
	if err != nil {
		return 0, 0, fmt.Errorf("apply score: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit: %w", err)
	}
	return teamA, teamB, nil
}

func (r *MatchRepository) Finish(ctx context.Context, matchID string, finishedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE matches SET status = 'finished', finished_at = $2, updated_at = $2
		WHERE id = $1 AND status <> 'finished'`,
		matchID, finishedAt)
	if err != nil {
		return false, fmt.Errorf("finish match: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *MatchRepository) UpdateTeams(ctx context.Context, matchID string, patch app.TeamsPatch) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE matches SET
			team_a_name = COALESCE($2, team_a_name),
			team_b_name = COALESCE($3, team_b_name),
			team_a_avatar_key = COALESCE($4, team_a_avatar_key),
			team_b_avatar_key = COALESCE($5, team_b_avatar_key),
			updated_at = now()
		WHERE id = $1`,
		matchID, patch.TeamAName, patch.TeamBName, patch.AvatarKeyA, patch.AvatarKeyB)
	if err != nil {
		return fmt.Errorf("update teams: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMatchNotFound
	}
	return nil
}

func (r *MatchRepository) MarkAbandoned(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE matches SET status = 'abandoned', updated_at = now()
		WHERE status = 'active' AND updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// loadDetails attaches rounds and usage to the given matches in two batched
// queries.
func (r *MatchRepository) loadDetails(ctx context.Context, matches []*domain.Match) error {
	if len(matches) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Match, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT match_id, round_no, category_id, level, points, question_id,
			judge_selection, scored_team, scored_points, created_at
		FROM match_rounds WHERE match_id = ANY($1) ORDER BY round_no`, ids)
	if err != nil {
		return fmt.Errorf("load rounds: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var matchID string
		var round domain.Round
		if err := rows.Scan(&matchID, &round.RoundNo, &round.CategoryID, &round.Level,
			&round.Points, &round.QuestionID, &round.JudgeSelection, &round.ScoredTeam,
			&round.ScoredPoints, &round.CreatedAt); err != nil {
			return fmt.Errorf("scan round: %w", err)
		}
		if m := byID[matchID]; m != nil {
			m.Rounds = append(m.Rounds, round)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load rounds: %w", err)
	}

	usageRows, err := r.pool.Query(ctx, `
		SELECT match_id, category_id, level, used_question_ids
		FROM match_usage WHERE match_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("load usage: %w", err)
	}
	defer usageRows.Close()
	for usageRows.Next() {
		var matchID string
		var entry domain.UsageEntry
		if err := usageRows.Scan(&matchID, &entry.CategoryID, &entry.Level, &entry.UsedQuestionIDs); err != nil {
			return fmt.Errorf("scan usage: %w", err)
		}
		if m := byID[matchID]; m != nil {
			m.Usage = append(m.Usage, entry)
		}
	}
	return usageRows.Err()
}

func scanMatch(row pgx.Row) (*domain.Match, error) {
	var m domain.Match
	var settings []byte
	err := row.Scan(&m.ID, &m.OwnerID, &m.Mode, &m.Status, &m.SelectedCategoryIDs,
		&m.TeamA.Name, &m.TeamA.AvatarKey, &m.TeamA.Score,
		&m.TeamB.Name, &m.TeamB.AvatarKey, &m.TeamB.Score,
		&settings, &m.FinishedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(settings, &m.Settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	return &m, nil
}
