// Package game implements the level progression: a riddle gate, then a
// security-key gate, per question, until every question is cleared.
package game

import (
	"math"
	"time"

	"treasurehunt/backend/models"
)

type Phase string

const (
	PhaseRiddle   Phase = "riddle"
	PhaseSecurity Phase = "security"
	PhaseFinished Phase = "finished"
	// PhaseLocked is a finished game loaded from storage; it cannot be replayed.
	PhaseLocked Phase = "locked"
)

const (
	MinCombo   = 1.0
	MaxCombo   = 3.0
	ComboStep  = 0.2
	StreakTier = 3
	StreakHigh = 5
)

// State is one player's session. It is only mutated by Engine.Apply.
type State struct {
	Username              string    `json:"username"`
	Level                 int       `json:"level"`
	Score                 int       `json:"score"`
	HintsUsed             int       `json:"hints_used"`
	Streak                int       `json:"streak"`
	MaxStreak             int       `json:"max_streak"`
	WrongAttempts         int       `json:"wrong_attempts"`
	SecurityWrongAttempts int       `json:"security_wrong_attempts"`
	RiddleSolved          bool      `json:"riddle_solved"`
	ComboMultiplier       float64   `json:"combo_multiplier"`
	PerfectLevels         int       `json:"perfect_levels"`
	Achievements          []string  `json:"achievements"`
	ShowHint              bool      `json:"show_hint"`
	ShowSecurityHint      bool      `json:"show_security_hint"`
	Finished              bool      `json:"finished"`
	CompletedPermanently  bool      `json:"completed_permanently"`
	StartedAt             time.Time `json:"started_at"`
	LevelStartedAt        time.Time `json:"level_started_at"`
}

func NewState(username string, now time.Time) *State {
	return &State{
		Username:        username,
		ComboMultiplier: MinCombo,
		Achievements:    []string{},
		StartedAt:       now,
		LevelStartedAt:  now,
	}
}

func (s *State) addAchievement(name string) bool {
	for _, a := range s.Achievements {
		if a == name {
			return false
		}
	}
	s.Achievements = append(s.Achievements, name)
	return true
}

func (s *State) resetCombo() {
	s.ComboMultiplier = MinCombo
}

func (s *State) breakStreak() {
	s.Streak = 0
	s.resetCombo()
}

// bumpCombo keeps the multiplier on a 0.1 grid so repeated +0.2 steps never
// drift below a round value.
func (s *State) bumpCombo() {
	next := math.Round((s.ComboMultiplier+ComboStep)*10) / 10
	s.ComboMultiplier = math.Min(MaxCombo, next)
}

// Snapshot converts the state to the persisted progress record.
func Snapshot(s *State) models.Progress {
	return models.Progress{
		Level:                    s.Level,
		Score:                    s.Score,
		HintsUsed:                s.HintsUsed,
		Achievements:             append([]string{}, s.Achievements...),
		Streak:                   s.Streak,
		MaxStreak:                s.MaxStreak,
		ComboMultiplier:          s.ComboMultiplier,
		PerfectLevels:            s.PerfectLevels,
		WrongAttempts:            s.WrongAttempts,
		SecurityWrongAttempts:    s.SecurityWrongAttempts,
		RiddleSolved:             s.RiddleSolved,
		GameCompletedPermanently: s.CompletedPermanently,
	}
}

// Restore rebuilds a session from saved progress, clamping anything a
// hand-edited or foreign record could get out of range.
func Restore(username string, p *models.Progress, total int, now time.Time) *State {
	s := NewState(username, now)
	if p == nil {
		return s
	}

	s.Level = clamp(p.Level, 0, total)
	s.Score = max(p.Score, 0)
	s.HintsUsed = max(p.HintsUsed, 0)
	s.Streak = max(p.Streak, 0)
	s.MaxStreak = max(p.MaxStreak, s.Streak)
	s.WrongAttempts = max(p.WrongAttempts, 0)
	s.SecurityWrongAttempts = max(p.SecurityWrongAttempts, 0)
	s.PerfectLevels = clamp(p.PerfectLevels, 0, total)
	s.ComboMultiplier = math.Max(MinCombo, math.Min(MaxCombo, p.ComboMultiplier))
	if p.Achievements != nil {
		s.Achievements = append([]string{}, p.Achievements...)
	}

	s.Finished = s.Level >= total
	s.RiddleSolved = p.RiddleSolved && !s.Finished
	if p.GameCompletedPermanently {
		s.Finished = true
		s.CompletedPermanently = true
		s.RiddleSolved = false
	}
	return s
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
