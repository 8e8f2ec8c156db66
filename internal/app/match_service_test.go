package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
	"trivia-match-service/internal/infra/memory"
)

// fixture wires the match service against in-memory storage with one seeded
// player and two active categories, each holding three questions per level.
type fixture struct {
	matches    *memory.MatchRepository
	users      *memory.UserRepository
	questions  *memory.QuestionStore
	categories *memory.CategoryStore
	wallet     *app.WalletService
	svc        *app.MatchService

	playerID string
	catA     string
	catB     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		matches:    memory.NewMatchRepository(),
		users:      memory.NewUserRepository(),
		questions:  memory.NewQuestionStore(),
		categories: memory.NewCategoryStore(),
		playerID:   uuid.NewString(),
		catA:       uuid.NewString(),
		catB:       uuid.NewString(),
	}
	f.wallet = app.NewWalletService(f.users, memory.NewPurchaseRepository())
	projector := app.NewProjector(f.questions)
	f.svc = app.NewMatchService(f.matches, f.questions, f.categories, f.wallet, projector)

	ctx := context.Background()
	now := time.Now().UTC()
	if err := f.users.Insert(ctx, &domain.User{
		ID:        f.playerID,
		Email:     "player@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	for i, catID := range []string{f.catA, f.catB} {
		if err := f.categories.Insert(ctx, &domain.Category{
			ID: catID, NameEN: fmt.Sprintf("Category %d", i), Active: true,
			CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			t.Fatalf("seed category: %v", err)
		}
		for level := 1; level <= 3; level++ {
			for n := 0; n < 3; n++ {
				f.seedQuestion(t, catID, level, now.Add(time.Duration(n)*time.Millisecond))
			}
		}
	}
	return f
}

func (f *fixture) seedQuestion(t *testing.T, catID string, level int, createdAt time.Time) string {
	t.Helper()
	points := domain.LevelPoints[level]
	id := uuid.NewString()
	prompt := fmt.Sprintf("prompt %s", id)
	answer := fmt.Sprintf("answer %s", id)
	err := f.questions.Insert(context.Background(), &domain.Question{
		ID:         id,
		CategoryID: catID,
		Level:      level,
		Points:     points,
		Prompt:     domain.ContentBlock{Text: &prompt},
		Hint:       domain.Hint{Enabled: true, Content: &domain.ContentBlock{Text: &answer}},
		Answer:     &domain.ContentBlock{Text: &answer},
		Status:     domain.QuestionActive,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	})
	if err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return id
}

func (f *fixture) createMatch(t *testing.T) *app.MatchView {
	t.Helper()
	view, err := f.svc.Create(context.Background(), f.playerID, []string{f.catA, f.catB}, "Lions", "Tigers", 0)
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	return view
}

func TestCreateMatchValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name       string
		categories []string
	}{
		{"empty", nil},
		{"too many", manyCategories(7)},
		{"malformed id", []string{"not-a-uuid"}},
		{"unknown id", []string{uuid.NewString()}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, f.playerID, tc.categories, "A", "B", 0)
			if !errors.Is(err, domain.ErrInvalidCategories) {
				t.Fatalf("expected INVALID_CATEGORIES, got %v", err)
			}
		})
	}
}

func TestCreateMatchRejectsInactiveCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inactive := uuid.NewString()
	if err := f.categories.Insert(ctx, &domain.Category{ID: inactive, NameEN: "Off", Active: false}); err != nil {
		t.Fatalf("seed category: %v", err)
	}

	_, err := f.svc.Create(ctx, f.playerID, []string{inactive}, "A", "B", 0)
	if !errors.Is(err, domain.ErrInvalidCategories) {
		t.Fatalf("expected INVALID_CATEGORIES, got %v", err)
	}
}

func TestCreateMatchDebitsFreeRoundFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createMatch(t)
	wallet, err := f.wallet.Wallet(ctx, f.playerID)
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	if !wallet.FreeRoundUsed {
		t.Fatal("free round not consumed")
	}
	if wallet.RoundsBalance != 0 {
		t.Fatalf("balance touched: %d", wallet.RoundsBalance)
	}

	// Free round spent and no balance left.
	_, err = f.svc.Create(ctx, f.playerID, []string{f.catA}, "A", "B", 0)
	if !errors.Is(err, domain.ErrNoRoundsAvailable) {
		t.Fatalf("expected NO_ROUNDS_AVAILABLE, got %v", err)
	}
}

func TestCreateMatchDebitsPaidBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.users.MarkFreeRoundUsed(ctx, f.playerID); err != nil {
		t.Fatalf("mark free round: %v", err)
	}
	if err := f.users.AddRounds(ctx, f.playerID, 2); err != nil {
		t.Fatalf("add rounds: %v", err)
	}

	f.createMatch(t)
	wallet, _ := f.wallet.Wallet(ctx, f.playerID)
	if wallet.RoundsBalance != 1 {
		t.Fatalf("balance = %d, want 1", wallet.RoundsBalance)
	}
}

func TestNextQuestionSequencesRounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMatch(t)

	first, err := f.svc.NextQuestion(ctx, m.ID, f.playerID, f.catA, 1)
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if first.RoundNo != 1 || first.Points != 100 {
		t.Fatalf("unexpected first round: %+v", first)
	}
	if first.Question.ID == "" || first.Question.Prompt.Text == nil {
		t.Fatalf("question payload incomplete: %+v", first.Question)
	}
	if !first.Question.HintAvailable {
		t.Fatal("expected hint availability")
	}

	second, err := f.svc.NextQuestion(ctx, m.ID, f.playerID, f.catB, 3)
	if err != nil {
		t.Fatalf("next question 2: %v", err)
	}
	if second.RoundNo != 2 || second.Points != 500 {
		t.Fatalf("unexpected second round: %+v", second)
	}
	if second.Question.ID == first.Question.ID {
		t.Fatal("same question issued twice")
	}
}

func TestNextQuestionNeverRepeatsWithinPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMatch(t)

	a, err := f.svc.NextQuestion(ctx, m.ID, f.playerID, f.catA, 2)
	if err != nil {
		t.Fatalf("issue 1: %v", err)
	}
	b, err := f.svc.NextQuestion(ctx, m.ID, f.playerID, f.catA, 2)
	if err != nil {
		t.Fatalf("issue 2: %v", err)
	}
	if a.Question.ID == b.Question.ID {
		t.Fatal("question repeated within (category, level)")
	}
}

func TestNextQuestionLevelQuota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMatch(t)

	for i := 0; i < 2; i++ {
		if _, err := f.svc.NextQuestion(ctx, m.ID, f.playerID, f.catA, 2); err != nil {
			t.Fatalf("issue %d: %v", i+1, err)
		}
	}
	_, err := f.svc.NextQuestion(ctx, m.ID, f.playerID, f.catA, 2)
	if !errors.Is(err, domain.ErrLevelQuotaExceeded) {
		t.Fatalf("expected LEVEL_QUOTA_EXCEEDED, got %v", err)
	}
	var derr *domain.Error
	if !errors.As(err, &derr) || derr.Details["max_per_level"] != 2 {
		t.Fatalf("expected max_per_level detail, got %+v", derr)
	}

	// Other levels of the same category are unaffected.
	if _, err := f.svc.NextQuestion(ctx, m.ID, f.playerID, f.catA, 1); err != nil {
		t.Fatalf("other level blocked: %v", err)
	}
}

func TestNextQuestionPoolExhaustion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A category with a single level-1 question: the pool dries up before
	// the quota does.
	thinCat := uuid.NewString()
	if err := f.categories.Insert(ctx, &domain.Category{ID: thinCat, NameEN: "Thin", Active: true}); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	f.seedQuestion(t, thinCat, 1, time.Now().UTC())

	m, err := f.svc.Create(ctx, f.playerID, []string{thinCat}, "A", "B", 0)
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	if _, err := f.svc.NextQuestion(ctx, m.ID, f.playerID, thinCat, 1); err != nil {
		t.Fatalf("issue 1: %v", err)
	}
	_, err = f.svc.NextQuestion(ctx, m.ID, f.playerID, thinCat, 1)
	if !errors.Is(err, domain.ErrNoQuestionsLeft) {
		t.Fatalf("expected NO_QUESTIONS_LEFT_FOR_LEVEL, got %v", err)
	}
}

func TestNextQuestionRejectsForeignCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMatch(t)

	outside := uuid.NewString()
	_, err := f.svc.NextQuestion(ctx, m.ID, f.playerID, outside, 1)
	if !errors.Is(err, domain.ErrInvalidCategories) {
		t.Fatalf("expected INVALID_CATEGORIES, got %v", err)
	}

	// Passing the match id where a category id belongs is a common client
	// slip and gets the pointed message.
	_, err = f.svc.NextQuestion(ctx, m.ID, f.playerID, m.ID, 1)
	var derr *domain.Error
	if !errors.As(err, &derr) || derr.Code != "INVALID_CATEGORIES" {
		t.Fatalf("expected INVALID_CATEGORIES, got %v", err)
	}
	if derr.Message != "Use a category_id from selected_category_ids, not the match id." {
		t.Fatalf("unexpected message: %q", derr.Message)
	}
}

func TestNextQuestionRejectsInvalidLevel(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)

	for _, level := range []int{0, 4, -1} {
		_, err := f.svc.NextQuestion(context.Background(), m.ID, f.playerID, f.catA, level)
		if !errors.Is(err, domain.ErrInvalidLevel) {
			t.Fatalf("level %d: expected INVALID_LEVEL, got %v", level, err)
		}
	}
}

func TestJudgeAccumulatesScores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMatch(t)

	if _, err := f.svc.NextQuestion(ctx, m.ID, f.playerID, f.catA, 1); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := f.svc.NextQuestion(ctx, m.ID, f.playerID, f.catA, 2); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := f.svc.NextQuestion(ctx, m.ID, f.playerID, f.catB, 3); err != nil {
		t.Fatalf("issue: %v", err)
	}

	r1, err := f.svc.Judge(ctx, m.ID, f.playerID, 1, domain.JudgeTeamA)
	if err != nil {
		t.Fatalf("judge 1: %v", err)
	}
	if r1.Scores.TeamA != 100 || r1.Scores.TeamB != 0 {
		t.Fatalf("after round 1: %+v", r1.Scores)
	}

	r2, err := f.svc.Judge(ctx, m.ID, f.playerID, 2, domain.JudgeNoOne)
	if err != nil {
		t.Fatalf("judge 2: %v", err)
	}
	if r2.Scores.TeamA != 100 || r2.Scores.TeamB != 0 || r2.LastRound.ScoredPoints != 0 {
		t.Fatalf("NO_ONE must not score: %+v", r2)
	}

	r3, err := f.svc.Judge(ctx, m.ID, f.playerID, 3, domain.JudgeTeamB)
	if err != nil {
		t.Fatalf("judge 3: %v", err)
	}
	if r3.Scores.TeamA != 100 || r3.Scores.TeamB != 500 {
		t.Fatalf("after round 3: %+v", r3.Scores)
	}

	// Score totals equal the sum of scored points of judged rounds.
	view, err := f.svc.Get(ctx, m.ID, f.playerID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	sum := 0
	for _, r := range view.Rounds {
		sum += r.ScoredPoints
	}
	if sum != view.Teams.A.Score+view.Teams.B.Score {
		t.Fatalf("score sum mismatch: rounds=%d teams=%d", sum, view.Teams.A.Score+view.Teams.B.Score)
	}
}

func TestJudgeIsWriteOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMatch(t)

	if _, err := f.svc.NextQuestion(ctx, m.ID, f.playerID, f.catA, 3); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := f.svc.Judge(ctx, m.ID, f.playerID, 1, domain.JudgeTeamA); err != nil {
		t.Fatalf("judge: %v", err)
	}
	_, err := f.svc.Judge(ctx, m.ID, f.playerID, 1, domain.JudgeTeamB)
	if !errors.Is(err, domain.ErrRoundAlreadyJudged) {
		t.Fatalf("expected ROUND_ALREADY_JUDGED, got %v", err)
	}

	view, _ := f.svc.Get(ctx, m.ID, f.playerID)
	if view.Teams.A.Score != 500 || view.Teams.B.Score != 0 {
		t.Fatalf("second verdict changed scores: %+v", view.Teams)
	}
}

func TestJudgeUnknownRound(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)

	_, err := f.svc.Judge(context.Background(), m.ID, f.playerID, 9, domain.JudgeTeamA)
	if !errors.Is(err, domain.ErrRoundNotFound) {
		t.Fatalf("expected ROUND_NOT_FOUND, got %v", err)
	}
}

func TestFinishReportsWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMatch(t)

	if _, err := f.svc.NextQuestion(ctx, m.ID, f.playerID, f.catA, 2); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := f.svc.Judge(ctx, m.ID, f.playerID, 1, domain.JudgeTeamB); err != nil {
		t.Fatalf("judge: %v", err)
	}

	result, err := f.svc.Finish(ctx, m.ID, f.playerID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if result.Status != "finished" {
		t.Fatalf("status = %s", result.Status)
	}
	if result.Winner.Result != domain.WinnerTeamB {
		t.Fatalf("winner = %s", result.Winner.Result)
	}
	if result.Winner.Name == nil || *result.Winner.Name != "Tigers" {
		t.Fatalf("winner name = %v", result.Winner.Name)
	}
	if result.Summary.TeamBCorrect != 1 || result.Summary.TotalRounds != 1 {
		t.Fatalf("summary = %+v", result.Summary)
	}
}

func TestFinishDrawHasNoWinnerName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMatch(t)

	result, err := f.svc.Finish(ctx, m.ID, f.playerID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if result.Winner.Result != domain.WinnerDraw {
		t.Fatalf("winner = %s", result.Winner.Result)
	}
	if result.Winner.Name != nil {
		t.Fatalf("draw must have nil name, got %q", *result.Winner.Name)
	}
}

func TestFinishIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMatch(t)

	if _, err := f.svc.Finish(ctx, m.ID, f.playerID); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := f.svc.Finish(ctx, m.ID, f.playerID); !errors.Is(err, domain.ErrMatchFinished) {
		t.Fatalf("expected MATCH_ALREADY_FINISHED, got %v", err)
	}
	if _, err := f.svc.NextQuestion(ctx, m.ID, f.playerID, f.catA, 1); !errors.Is(err, domain.ErrMatchNotActive) {
		t.Fatalf("expected MATCH_NOT_ACTIVE, got %v", err)
	}
	if _, err := f.svc.Judge(ctx, m.ID, f.playerID, 1, domain.JudgeTeamA); !errors.Is(err, domain.ErrMatchNotActive) {
		t.Fatalf("expected MATCH_NOT_ACTIVE, got %v", err)
	}
}

func TestOwnershipIsConflatedWithExistence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMatch(t)
	stranger := uuid.NewString()

	if _, err := f.svc.Get(ctx, m.ID, stranger); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Fatalf("foreign get: expected MATCH_NOT_FOUND, got %v", err)
	}
	if _, err := f.svc.Get(ctx, uuid.NewString(), f.playerID); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Fatalf("unknown id: expected MATCH_NOT_FOUND, got %v", err)
	}
	if _, err := f.svc.Get(ctx, "garbage", f.playerID); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Fatalf("malformed id: expected MATCH_NOT_FOUND, got %v", err)
	}
	if err := f.svc.Delete(ctx, m.ID, stranger); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Fatalf("foreign delete: expected MATCH_NOT_FOUND, got %v", err)
	}
}

func TestRoundHintAndAnswer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMatch(t)

	issued, err := f.svc.NextQuestion(ctx, m.ID, f.playerID, f.catA, 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	hint, err := f.svc.RoundHint(ctx, m.ID, f.playerID, issued.RoundNo)
	if err != nil {
		t.Fatalf("hint: %v", err)
	}
	if !hint.Enabled || hint.Content == nil {
		t.Fatalf("unexpected hint: %+v", hint)
	}

	answer, err := f.svc.RoundAnswer(ctx, m.ID, f.playerID, issued.RoundNo)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer.Answer == nil || answer.Answer.Text == nil {
		t.Fatalf("unexpected answer: %+v", answer)
	}

	if _, err := f.svc.RoundHint(ctx, m.ID, f.playerID, 99); !errors.Is(err, domain.ErrRoundNotFound) {
		t.Fatalf("expected ROUND_NOT_FOUND, got %v", err)
	}
}

func TestProjectionAttachesAnswersAndUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMatch(t)

	issued, err := f.svc.NextQuestion(ctx, m.ID, f.playerID, f.catA, 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	view, err := f.svc.Get(ctx, m.ID, f.playerID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(view.Rounds) != 1 {
		t.Fatalf("expected 1 round, got %d", len(view.Rounds))
	}
	round := view.Rounds[0]
	if round.JudgeSelection != nil {
		t.Fatal("unjudged round must carry null selection")
	}
	if round.Answer == nil {
		t.Fatal("projection must attach the stored answer")
	}
	if len(view.Progress.Usage) != 1 || view.Progress.Usage[0].UsedQuestionIDs[0] != issued.Question.ID {
		t.Fatalf("usage not projected: %+v", view.Progress.Usage)
	}
	if view.CreatedByUserID != f.playerID {
		t.Fatalf("owner not projected: %s", view.CreatedByUserID)
	}
}

func TestPatchTeamsPartialUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.createMatch(t)

	newName := "Falcons"
	avatar := "avatars/falcon.png"
	view, err := f.svc.PatchTeams(ctx, m.ID, f.playerID, app.TeamsPatch{
		TeamAName:  &newName,
		AvatarKeyB: &avatar,
	})
	if err != nil {
		t.Fatalf("patch teams: %v", err)
	}
	if view.Teams.A.Name != "Falcons" {
		t.Fatalf("team A name = %s", view.Teams.A.Name)
	}
	if view.Teams.B.Name != "Tigers" {
		t.Fatalf("team B name changed: %s", view.Teams.B.Name)
	}
	if view.Teams.B.AvatarKey == nil || *view.Teams.B.AvatarKey != avatar {
		t.Fatalf("avatar not applied: %v", view.Teams.B.AvatarKey)
	}

	if _, err := f.svc.Finish(ctx, m.ID, f.playerID); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := f.svc.PatchTeams(ctx, m.ID, f.playerID, app.TeamsPatch{TeamAName: &newName}); !errors.Is(err, domain.ErrMatchNotActive) {
		t.Fatalf("expected MATCH_NOT_ACTIVE, got %v", err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.users.AddRounds(ctx, f.playerID, 5); err != nil {
		t.Fatalf("add rounds: %v", err)
	}

	first := f.createMatch(t)
	f.createMatch(t)
	if _, err := f.svc.Finish(ctx, first.ID, f.playerID); err != nil {
		t.Fatalf("finish: %v", err)
	}

	active, err := f.svc.List(ctx, f.playerID, domain.StatusActive, 0, 0)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active, got %d", len(active))
	}
	all, err := f.svc.List(ctx, f.playerID, "", 0, 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(all))
	}
}

func manyCategories(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = uuid.NewString()
	}
	return out
}
