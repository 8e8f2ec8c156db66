package domain

import "testing"

func TestPointsForLevel(t *testing.T) {
	for level, want := range map[int]int{1: 100, 2: 200, 3: 500} {
		got, ok := PointsForLevel(level)
		if !ok || got != want {
			t.Fatalf("level %d: got %d/%v, want %d", level, got, ok, want)
		}
	}
	for _, level := range []int{0, 4, -1, 100} {
		if _, ok := PointsForLevel(level); ok {
			t.Fatalf("level %d must be invalid", level)
		}
	}
}

func TestWinner(t *testing.T) {
	m := &Match{
		TeamA: Team{Name: "Lions", Score: 300},
		TeamB: Team{Name: "Tigers", Score: 100},
	}
	result, name := m.Winner()
	if result != WinnerTeamA || name == nil || *name != "Lions" {
		t.Fatalf("got %s/%v", result, name)
	}

	m.TeamB.Score = 500
	result, name = m.Winner()
	if result != WinnerTeamB || name == nil || *name != "Tigers" {
		t.Fatalf("got %s/%v", result, name)
	}

	m.TeamA.Score = 500
	result, name = m.Winner()
	if result != WinnerDraw {
		t.Fatalf("got %s", result)
	}
	if name != nil {
		t.Fatalf("draw name = %q, want nil", *name)
	}
}

func TestSummaryCountsJudgedRoundsOnly(t *testing.T) {
	a, b, n := JudgeTeamA, JudgeTeamB, JudgeNoOne
	m := &Match{Rounds: []Round{
		{RoundNo: 1, JudgeSelection: &a},
		{RoundNo: 2, JudgeSelection: &b},
		{RoundNo: 3, JudgeSelection: &b},
		{RoundNo: 4, JudgeSelection: &n},
		{RoundNo: 5},
	}}
	s := m.Summary()
	if s.TeamACorrect != 1 || s.TeamBCorrect != 2 || s.NoOne != 1 || s.TotalRounds != 5 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestQuestionsPerLevelFallsBackToDefault(t *testing.T) {
	m := &Match{Settings: MatchSettings{Levels: []LevelSetting{
		{Level: 1, QuestionsPerLevel: 4},
		{Level: 2, QuestionsPerLevel: 0},
	}}}
	if got := m.QuestionsPerLevel(1); got != 4 {
		t.Fatalf("level 1 quota = %d, want 4", got)
	}
	if got := m.QuestionsPerLevel(2); got != DefaultQuestionsPerLevel {
		t.Fatalf("level 2 quota = %d, want default", got)
	}
	if got := m.QuestionsPerLevel(3); got != DefaultQuestionsPerLevel {
		t.Fatalf("missing level quota = %d, want default", got)
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings(0)
	if s.TimerSeconds != DefaultTimerSeconds {
		t.Fatalf("timer = %d", s.TimerSeconds)
	}
	if len(s.Levels) != 3 {
		t.Fatalf("levels = %d", len(s.Levels))
	}
	s = DefaultSettings(30)
	if s.TimerSeconds != 30 {
		t.Fatalf("timer override = %d", s.TimerSeconds)
	}
}

func TestValidJudgeSelection(t *testing.T) {
	for _, sel := range []JudgeSelection{JudgeTeamA, JudgeTeamB, JudgeNoOne} {
		if !ValidJudgeSelection(sel) {
			t.Fatalf("%s must be valid", sel)
		}
	}
	if ValidJudgeSelection("TEAM_C") || ValidJudgeSelection("") {
		t.Fatal("unknown selection must be invalid")
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	err := ErrLevelQuotaExceeded.
		WithMessage("Level quota exceeded (max 2 questions per category per level)").
		WithDetails(map[string]any{"max_per_level": 2})
	if !err.Is(ErrLevelQuotaExceeded) {
		t.Fatal("decorated error must still match its sentinel")
	}
	if err.Is(ErrMatchNotFound) {
		t.Fatal("different codes must not match")
	}
	// The sentinel itself stays untouched.
	if ErrLevelQuotaExceeded.Details != nil {
		t.Fatal("WithDetails mutated the sentinel")
	}
}
