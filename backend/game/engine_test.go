package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treasurehunt/backend/models"
)

func fixtureQuestions() []models.Question {
	points := []int{10, 15, 20, 15, 15, 20}
	qs := make([]models.Question, len(points))
	for i, p := range points {
		qs[i] = models.Question{
			Question:     fmt.Sprintf("riddle %d", i+1),
			Answer:       fmt.Sprintf("Answer %d", i+1),
			SecurityKey:  fmt.Sprintf("key%d", i+1),
			Hint:         fmt.Sprintf("hint %d", i+1),
			SecurityHint: fmt.Sprintf("security hint %d", i+1),
			Category:     "test",
			Difficulty:   models.DifficultyEasy,
			Points:       p,
		}
	}
	return qs
}

func newGame() (*Engine, *State) {
	e := NewEngine(fixtureQuestions())
	return e, NewState("alice", time.Now())
}

func apply(t *testing.T, e *Engine, s *State, kind ActionKind, input string) Outcome {
	t.Helper()
	out, err := e.Apply(s, Action{Kind: kind, Input: input})
	require.NoError(t, err)
	return out
}

func TestCalculateBonus(t *testing.T) {
	tests := []struct {
		name   string
		misses int
		streak int
		combo  float64
		want   int
	}{
		{"clean baseline", 0, 0, 1.0, 5},
		{"missed baseline", 2, 0, 1.0, 0},
		{"streak three", 0, 3, 1.0, 8},
		{"streak five cumulative", 0, 5, 1.0, 13},
		{"combo truncates", 0, 3, 1.6, 12},
		{"combo exact product", 0, 0, 1.4, 7},
		{"combo with no bonus", 1, 0, 2.0, 0},
		{"capped combo", 0, 6, 3.0, 39},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateBonus(tt.misses, tt.streak, tt.combo))
		})
	}
}

func TestFlawlessRun(t *testing.T) {
	e, s := newGame()

	for i := 0; i < e.Total(); i++ {
		out := apply(t, e, s, SubmitAnswer, fmt.Sprintf("  answer %d ", i+1))
		assert.True(t, out.Correct)
		assert.Equal(t, PhaseSecurity, e.Phase(s))

		out = apply(t, e, s, SubmitKey, fmt.Sprintf("KEY%d", i+1))
		assert.True(t, out.LevelCompleted)
		assert.Equal(t, i+1, s.Level)
	}

	assert.True(t, s.Finished)
	assert.Equal(t, PhaseFinished, e.Phase(s))
	assert.Equal(t, 6, s.PerfectLevels)
	assert.Equal(t, 6, s.MaxStreak)
	assert.Equal(t, 165, s.Score)
	assert.Equal(t, 0, s.HintsUsed)
	assert.InDelta(t, 2.2, s.ComboMultiplier, 1e-9)
	assert.ElementsMatch(t, []string{AchievementPerfectSolver, AchievementStreakMaster, AchievementUnstoppable}, s.Achievements)

	rank, _ := Rank(s, e.Total())
	assert.Equal(t, "FOSS GRANDMASTER", rank)
}

func TestWrongAnswerResetsCombo(t *testing.T) {
	e, s := newGame()
	s.ComboMultiplier = 1.8

	out := apply(t, e, s, SubmitAnswer, "nope")
	assert.False(t, out.Correct)
	assert.Equal(t, 1, s.WrongAttempts)
	assert.Equal(t, 1.0, s.ComboMultiplier)
	assert.Equal(t, PhaseRiddle, e.Phase(s))

	apply(t, e, s, SubmitAnswer, "nope")
	out = apply(t, e, s, SubmitAnswer, "still nope")
	assert.Contains(t, out.Message, "hint")

	out = apply(t, e, s, SubmitAnswer, "answer 1")
	assert.True(t, out.Correct)
	assert.Equal(t, 0, s.WrongAttempts)
	assert.Equal(t, 0, s.PerfectLevels)
	assert.Equal(t, 10, s.Score)
	assert.Equal(t, 0, out.Bonus)
}

func TestComboStaysInBounds(t *testing.T) {
	e, s := newGame()
	s.Streak = 0
	for i := 0; i < 20; i++ {
		s.Level = 0
		s.RiddleSolved = false
		apply(t, e, s, SubmitAnswer, "answer 1")
		assert.LessOrEqual(t, s.ComboMultiplier, MaxCombo)
		assert.GreaterOrEqual(t, s.ComboMultiplier, MinCombo)
	}
	assert.Equal(t, MaxCombo, s.ComboMultiplier)
}

func TestHintChargedOncePerPhase(t *testing.T) {
	e, s := newGame()
	s.Streak = 4
	s.ComboMultiplier = 2.0

	out := apply(t, e, s, RequestHint, "")
	assert.True(t, out.HintCharged)
	assert.Equal(t, "hint 1", out.Hint)
	assert.Equal(t, 1, s.HintsUsed)
	assert.Equal(t, 0, s.Streak)
	assert.Equal(t, 1.0, s.ComboMultiplier)

	out = apply(t, e, s, RequestHint, "")
	assert.False(t, out.HintCharged)
	assert.Equal(t, 1, s.HintsUsed)

	apply(t, e, s, SubmitAnswer, "answer 1")
	out = apply(t, e, s, RequestSecurityHint, "")
	assert.True(t, out.HintCharged)
	assert.Equal(t, "security hint 1", out.Hint)
	assert.Equal(t, 2, s.HintsUsed)
}

func TestHintResetsStreakEvenIfCorrect(t *testing.T) {
	e, s := newGame()
	apply(t, e, s, SubmitAnswer, "answer 1")
	apply(t, e, s, SubmitKey, "key1")
	require.Equal(t, 1, s.Streak)

	apply(t, e, s, RequestHint, "")
	assert.Equal(t, 0, s.Streak)
	apply(t, e, s, SubmitAnswer, "answer 2")
	assert.InDelta(t, 1.2, s.ComboMultiplier, 1e-9)
}

func TestWrongKeyBreaksStreak(t *testing.T) {
	e, s := newGame()
	apply(t, e, s, SubmitAnswer, "answer 1")
	apply(t, e, s, SubmitKey, "key1")
	apply(t, e, s, SubmitAnswer, "answer 2")
	require.Equal(t, 1, s.Streak)

	out := apply(t, e, s, SubmitKey, "wrong")
	assert.False(t, out.Correct)
	assert.Equal(t, 1, s.SecurityWrongAttempts)
	assert.Equal(t, 0, s.Streak)
	assert.Equal(t, 1.0, s.ComboMultiplier)
	assert.Equal(t, 1, s.Level)

	apply(t, e, s, SubmitKey, "key2")
	assert.Equal(t, 0, s.SecurityWrongAttempts)
	assert.Equal(t, 1, s.Streak)
	assert.Equal(t, 1, s.MaxStreak)
	assert.Equal(t, 2, s.Level)
}

func TestLevelNeverDecreases(t *testing.T) {
	e, s := newGame()
	inputs := []struct {
		kind  ActionKind
		input string
	}{
		{SubmitAnswer, "x"}, {SubmitAnswer, "answer 1"}, {SubmitKey, "x"}, {RequestSecurityHint, ""},
		{SubmitKey, "key1"}, {RequestHint, ""}, {SubmitAnswer, "answer 2"}, {SubmitKey, "key2"},
	}
	last := s.Level
	for _, in := range inputs {
		_, err := e.Apply(s, Action{Kind: in.kind, Input: in.input})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, s.Level, last)
		assert.LessOrEqual(t, s.Level-last, 1)
		assert.Equal(t, s.Level == e.Total(), s.Finished)
		last = s.Level
	}
	assert.Equal(t, 2, s.Level)
}

func TestPhaseGuards(t *testing.T) {
	e, s := newGame()

	_, err := e.Apply(s, Action{Kind: SubmitKey, Input: "key1"})
	assert.ErrorIs(t, err, ErrWrongPhase)

	_, err = e.Apply(s, Action{Kind: SubmitAnswer, Input: "   "})
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Equal(t, 0, s.WrongAttempts)

	apply(t, e, s, SubmitAnswer, "answer 1")
	_, err = e.Apply(s, Action{Kind: RequestHint})
	assert.ErrorIs(t, err, ErrWrongPhase)

	_, err = e.Apply(s, Action{Kind: "dance"})
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestFinishedAndLockedRefuseActions(t *testing.T) {
	e := NewEngine(fixtureQuestions())

	locked := Restore("alice", &models.Progress{Level: 2, GameCompletedPermanently: true}, e.Total(), time.Now())
	assert.Equal(t, PhaseLocked, e.Phase(locked))
	_, err := e.Apply(locked, Action{Kind: SubmitAnswer, Input: "answer 3"})
	assert.ErrorIs(t, err, ErrGameFinished)

	done := Restore("alice", &models.Progress{Level: 6}, e.Total(), time.Now())
	assert.True(t, done.Finished)
	_, err = e.Apply(done, Action{Kind: RequestHint})
	assert.ErrorIs(t, err, ErrGameFinished)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	e, s := newGame()
	apply(t, e, s, SubmitAnswer, "answer 1")
	apply(t, e, s, SubmitKey, "key1")
	apply(t, e, s, SubmitAnswer, "wrong")
	apply(t, e, s, SubmitAnswer, "answer 2")

	p := Snapshot(s)
	restored := Restore("alice", &p, e.Total(), time.Now())

	assert.Equal(t, s.Level, restored.Level)
	assert.Equal(t, s.Score, restored.Score)
	assert.Equal(t, s.Streak, restored.Streak)
	assert.Equal(t, s.ComboMultiplier, restored.ComboMultiplier)
	assert.Equal(t, s.Achievements, restored.Achievements)
	assert.True(t, restored.RiddleSolved)
	assert.Equal(t, PhaseSecurity, e.Phase(restored))
}

func TestRestoreClampsForeignValues(t *testing.T) {
	s := Restore("alice", &models.Progress{Level: 42, ComboMultiplier: 9, Score: -3}, 6, time.Now())
	assert.Equal(t, 6, s.Level)
	assert.True(t, s.Finished)
	assert.Equal(t, MaxCombo, s.ComboMultiplier)
	assert.Equal(t, 0, s.Score)

	s = Restore("alice", &models.Progress{ComboMultiplier: 0}, 6, time.Now())
	assert.Equal(t, MinCombo, s.ComboMultiplier)
}

func TestViewHidesAnswers(t *testing.T) {
	e, s := newGame()
	v := e.View(s)
	require.NotNil(t, v.Question)
	assert.Equal(t, PhaseRiddle, v.Phase)
	assert.Equal(t, 1, v.Question.Level)
	assert.Empty(t, v.Question.SecurityRiddle)
	assert.Empty(t, v.Hint)
	assert.Len(t, v.Upcoming, 3)

	apply(t, e, s, RequestHint, "")
	v = e.View(s)
	assert.Equal(t, "hint 1", v.Hint)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "3m 7s", FormatDuration(187*time.Second))
}
