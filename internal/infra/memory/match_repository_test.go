package memory

import (
	"context"
	"testing"
	"time"

	"trivia-match-service/internal/domain"
)

func TestMatchRepositoryAppendRoundGuard(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()
	m := sampleMatch("m1")
	if err := repo.Insert(ctx, m); err != nil {
		t.Fatalf("insert: %v", err)
	}

	round := sampleRound(1, "q1")
	if err := repo.AppendRound(ctx, "m1", 0, round); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Same expected count again: a concurrent issuer lost the race.
	if err := repo.AppendRound(ctx, "m1", 0, sampleRound(1, "q2")); err != domain.ErrStaleMatch {
		t.Fatalf("expected ErrStaleMatch, got %v", err)
	}

	got, err := repo.Get(ctx, "m1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Rounds) != 1 {
		t.Fatalf("expected 1 round, got %d", len(got.Rounds))
	}
	if len(got.Usage) != 1 || len(got.Usage[0].UsedQuestionIDs) != 1 {
		t.Fatalf("usage not recorded: %+v", got.Usage)
	}
}

func TestMatchRepositoryUsageDedup(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()
	if err := repo.Insert(ctx, sampleMatch("m1")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := repo.AppendRound(ctx, "m1", 0, sampleRound(1, "q1")); err != nil {
		t.Fatalf("append 1: %v", err)
	}
	if err := repo.AppendRound(ctx, "m1", 1, sampleRound(2, "q1")); err != nil {
		t.Fatalf("append 2: %v", err)
	}

	got, _ := repo.Get(ctx, "m1")
	if len(got.Usage[0].UsedQuestionIDs) != 1 {
		t.Fatalf("duplicate question id in usage: %v", got.Usage[0].UsedQuestionIDs)
	}
}

func TestMatchRepositoryJudgeWriteOnce(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()
	if err := repo.Insert(ctx, sampleMatch("m1")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.AppendRound(ctx, "m1", 0, sampleRound(1, "q1")); err != nil {
		t.Fatalf("append: %v", err)
	}

	team := domain.ScoredA
	a, b, err := repo.Judge(ctx, "m1", 1, domain.JudgeTeamA, &team, 100)
	if err != nil {
		t.Fatalf("judge: %v", err)
	}
	if a != 100 || b != 0 {
		t.Fatalf("expected scores 100/0, got %d/%d", a, b)
	}

	if _, _, err := repo.Judge(ctx, "m1", 1, domain.JudgeTeamB, nil, 0); err != domain.ErrRoundAlreadyJudged {
		t.Fatalf("expected ErrRoundAlreadyJudged, got %v", err)
	}

	got, _ := repo.Get(ctx, "m1")
	if got.TeamA.Score != 100 || got.TeamB.Score != 0 {
		t.Fatalf("second judge mutated scores: %d/%d", got.TeamA.Score, got.TeamB.Score)
	}
}

func TestMatchRepositoryFinishOnce(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()
	if err := repo.Insert(ctx, sampleMatch("m1")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	ok, err := repo.Finish(ctx, "m1", time.Now().UTC())
	if err != nil || !ok {
		t.Fatalf("first finish: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Finish(ctx, "m1", time.Now().UTC())
	if err != nil {
		t.Fatalf("second finish: %v", err)
	}
	if ok {
		t.Fatal("second finish must not apply")
	}
}

func TestMatchRepositoryMarkAbandoned(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()

	stale := sampleMatch("stale")
	stale.UpdatedAt = time.Now().Add(-48 * time.Hour)
	fresh := sampleMatch("fresh")
	fresh.UpdatedAt = time.Now()
	if err := repo.Insert(ctx, stale); err != nil {
		t.Fatalf("insert stale: %v", err)
	}
	if err := repo.Insert(ctx, fresh); err != nil {
		t.Fatalf("insert fresh: %v", err)
	}

	n, err := repo.MarkAbandoned(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("mark abandoned: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 abandoned, got %d", n)
	}
	got, _ := repo.Get(ctx, "stale")
	if got.Status != domain.StatusAbandoned {
		t.Fatalf("stale match status = %s", got.Status)
	}
	got, _ = repo.Get(ctx, "fresh")
	if got.Status != domain.StatusActive {
		t.Fatalf("fresh match status = %s", got.Status)
	}
}

func TestMatchRepositoryDeleteScopedToOwner(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()
	if err := repo.Insert(ctx, sampleMatch("m1")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	ok, err := repo.Delete(ctx, "m1", "someone-else")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok {
		t.Fatal("delete must not apply for a non-owner")
	}
	ok, err = repo.Delete(ctx, "m1", "owner-1")
	if err != nil || !ok {
		t.Fatalf("owner delete: ok=%v err=%v", ok, err)
	}
}

func sampleMatch(id string) *domain.Match {
	now := time.Now().UTC()
	return &domain.Match{
		ID:                  id,
		OwnerID:             "owner-1",
		Mode:                domain.ModeTeam,
		Status:              domain.StatusActive,
		SelectedCategoryIDs: []string{"cat-1"},
		TeamA:               domain.Team{Name: "Team A"},
		TeamB:               domain.Team{Name: "Team B"},
		Settings:            domain.DefaultSettings(10),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func sampleRound(no int, questionID string) domain.Round {
	return domain.Round{
		RoundNo:    no,
		CategoryID: "cat-1",
		Level:      1,
		Points:     100,
		QuestionID: questionID,
		CreatedAt:  time.Now().UTC(),
	}
}
