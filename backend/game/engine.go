package game

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"treasurehunt/backend/models"
)

var (
	ErrEmptyInput   = errors.New("answer cannot be empty")
	ErrWrongPhase   = errors.New("action not allowed in the current phase")
	ErrGameFinished = errors.New("the treasure hunt is already complete")
	ErrUnknown      = errors.New("unknown action")
)

const (
	AchievementPerfectSolver = "Perfect Solver"
	AchievementStreakMaster  = "Streak Master"
	AchievementUnstoppable   = "Unstoppable"
)

type ActionKind string

const (
	SubmitAnswer        ActionKind = "submit_answer"
	RequestHint         ActionKind = "request_hint"
	SubmitKey           ActionKind = "submit_key"
	RequestSecurityHint ActionKind = "request_security_hint"
)

type Action struct {
	Kind  ActionKind
	Input string
}

// Outcome tells the caller what happened and what to show next.
type Outcome struct {
	Phase          Phase    `json:"phase"`
	Correct        bool     `json:"correct"`
	Points         int      `json:"points,omitempty"`
	Bonus          int      `json:"bonus,omitempty"`
	Message        string   `json:"message"`
	Hint           string   `json:"hint,omitempty"`
	HintCharged    bool     `json:"hint_charged,omitempty"`
	LevelCompleted bool     `json:"level_completed,omitempty"`
	GameCompleted  bool     `json:"game_completed,omitempty"`
	Unlocked       []string `json:"unlocked,omitempty"`
	// Persist is set when the transition is a checkpoint worth saving.
	Persist bool `json:"-"`
}

type Engine struct {
	questions []models.Question
	now       func() time.Time
}

func NewEngine(questions []models.Question) *Engine {
	return &Engine{questions: questions, now: time.Now}
}

func (e *Engine) Total() int {
	return len(e.questions)
}

func (e *Engine) Questions() []models.Question {
	return e.questions
}

func (e *Engine) Phase(s *State) Phase {
	switch {
	case s.CompletedPermanently:
		return PhaseLocked
	case s.Finished || s.Level >= e.Total():
		return PhaseFinished
	case s.RiddleSolved:
		return PhaseSecurity
	default:
		return PhaseRiddle
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CalculateBonus is the per-solve bonus: +5 for no misses in the phase, +3 at
// streak 3 and a further +5 at streak 5, scaled by the combo multiplier when
// it is above baseline and truncated.
func CalculateBonus(misses, streak int, combo float64) int {
	bonus := 0
	if misses == 0 {
		bonus += 5
	}
	if streak >= StreakTier {
		bonus += 3
	}
	if streak >= StreakHigh {
		bonus += 5
	}
	if combo > MinCombo {
		bonus = int(math.Floor(float64(bonus)*combo + 1e-9))
	}
	return bonus
}

// Apply is the only transition function for a session.
func (e *Engine) Apply(s *State, a Action) (Outcome, error) {
	phase := e.Phase(s)
	if phase == PhaseFinished || phase == PhaseLocked {
		return Outcome{Phase: phase}, ErrGameFinished
	}

	switch a.Kind {
	case SubmitAnswer:
		if phase != PhaseRiddle {
			return Outcome{Phase: phase}, ErrWrongPhase
		}
		return e.submitAnswer(s, a.Input)
	case RequestHint:
		if phase != PhaseRiddle {
			return Outcome{Phase: phase}, ErrWrongPhase
		}
		return e.requestHint(s), nil
	case SubmitKey:
		if phase != PhaseSecurity {
			return Outcome{Phase: phase}, ErrWrongPhase
		}
		return e.submitKey(s, a.Input)
	case RequestSecurityHint:
		if phase != PhaseSecurity {
			return Outcome{Phase: phase}, ErrWrongPhase
		}
		return e.requestSecurityHint(s), nil
	}
	return Outcome{Phase: phase}, fmt.Errorf("%w: %q", ErrUnknown, a.Kind)
}

func (e *Engine) submitAnswer(s *State, input string) (Outcome, error) {
	if strings.TrimSpace(input) == "" {
		return Outcome{Phase: PhaseRiddle}, ErrEmptyInput
	}
	q := e.questions[s.Level]

	if normalize(input) != normalize(q.Answer) {
		s.WrongAttempts++
		s.resetCombo()
		msg := fmt.Sprintf("Incorrect! Attempt %d", s.WrongAttempts)
		if s.WrongAttempts >= 3 {
			msg += ". Struggling? Consider using a hint!"
		}
		return Outcome{Phase: PhaseRiddle, Message: msg}, nil
	}

	out := Outcome{Phase: PhaseSecurity, Correct: true, Persist: true}
	out.Points = q.Points
	out.Bonus = CalculateBonus(s.WrongAttempts, s.Streak, s.ComboMultiplier)
	s.Score += out.Points + out.Bonus
	s.RiddleSolved = true
	s.ShowHint = false
	if s.WrongAttempts == 0 {
		s.PerfectLevels++
		if s.addAchievement(AchievementPerfectSolver) {
			out.Unlocked = append(out.Unlocked, AchievementPerfectSolver)
		}
	}
	s.WrongAttempts = 0
	s.bumpCombo()

	out.Message = fmt.Sprintf("CORRECT! +%d points", out.Points)
	if out.Bonus > 0 {
		out.Message += fmt.Sprintf(" (+%d bonus)", out.Bonus)
	}
	out.Message += ". Phase 2 unlocked: crack the security key to proceed!"
	return out, nil
}

func (e *Engine) requestHint(s *State) Outcome {
	out := Outcome{Phase: PhaseRiddle, Hint: e.questions[s.Level].Hint}
	if !s.ShowHint {
		s.HintsUsed++
		s.breakStreak()
		out.HintCharged = true
		out.Message = "Streak and combo reset!"
	}
	s.ShowHint = true
	return out
}

func (e *Engine) submitKey(s *State, input string) (Outcome, error) {
	if strings.TrimSpace(input) == "" {
		return Outcome{Phase: PhaseSecurity}, ErrEmptyInput
	}
	q := e.questions[s.Level]

	if normalize(input) != normalize(q.SecurityKey) {
		s.SecurityWrongAttempts++
		s.breakStreak()
		msg := fmt.Sprintf("ACCESS DENIED! Attempt %d", s.SecurityWrongAttempts)
		if s.SecurityWrongAttempts >= 3 {
			msg += ". Need assistance? Try the security hint!"
		}
		return Outcome{Phase: PhaseSecurity, Message: msg}, nil
	}

	s.Level++
	s.RiddleSolved = false
	s.ShowSecurityHint = false
	s.Streak++
	s.MaxStreak = max(s.MaxStreak, s.Streak)
	s.SecurityWrongAttempts = 0
	s.LevelStartedAt = e.now()

	out := Outcome{Correct: true, LevelCompleted: true, Persist: true}
	if s.Streak >= StreakHigh && s.addAchievement(AchievementStreakMaster) {
		out.Unlocked = append(out.Unlocked, AchievementStreakMaster)
	}
	if s.Streak >= 6 && s.addAchievement(AchievementUnstoppable) {
		out.Unlocked = append(out.Unlocked, AchievementUnstoppable)
	}

	if s.Level >= e.Total() {
		s.Finished = true
		out.GameCompleted = true
		out.Phase = PhaseFinished
		out.Message = "Treasure found! Every level is unlocked."
		return out, nil
	}
	out.Phase = PhaseRiddle
	out.Message = fmt.Sprintf("ACCESS GRANTED! Level %d unlocked", s.Level+1)
	return out, nil
}

func (e *Engine) requestSecurityHint(s *State) Outcome {
	out := Outcome{Phase: PhaseSecurity, Hint: e.questions[s.Level].SecurityHint}
	if !s.ShowSecurityHint {
		s.HintsUsed++
		s.breakStreak()
		out.HintCharged = true
		out.Message = "Streak and combo reset!"
	}
	s.ShowSecurityHint = true
	return out
}
