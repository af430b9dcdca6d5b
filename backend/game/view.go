package game

import (
	"fmt"
	"time"

	"treasurehunt/backend/models"
)

// Achievements every finisher receives on top of the ones earned in play.
var finisherAchievements = []string{"FOSS Graduate", "Security Expert"}

// View is the render payload for a session.
type View struct {
	Phase                 Phase                  `json:"phase"`
	Level                 int                    `json:"level"`
	TotalLevels           int                    `json:"total_levels"`
	ProgressPercent       float64                `json:"progress_percent"`
	Score                 int                    `json:"score"`
	HintsUsed             int                    `json:"hints_used"`
	Streak                int                    `json:"streak"`
	MaxStreak             int                    `json:"max_streak"`
	ComboMultiplier       float64                `json:"combo_multiplier"`
	PerfectLevels         int                    `json:"perfect_levels"`
	WrongAttempts         int                    `json:"wrong_attempts"`
	SecurityWrongAttempts int                    `json:"security_wrong_attempts"`
	Achievements          []string               `json:"achievements"`
	Elapsed               string                 `json:"elapsed"`
	Question              *models.QuestionView   `json:"question,omitempty"`
	Hint                  string                 `json:"hint,omitempty"`
	SecurityHint          string                 `json:"security_hint,omitempty"`
	Upcoming              []models.UpcomingLevel `json:"upcoming,omitempty"`
	Rank                  string                 `json:"rank,omitempty"`
	RankNote              string                 `json:"rank_note,omitempty"`
}

func (e *Engine) View(s *State) View {
	total := e.Total()
	v := View{
		Phase:                 e.Phase(s),
		Level:                 s.Level,
		TotalLevels:           total,
		Score:                 s.Score,
		HintsUsed:             s.HintsUsed,
		Streak:                s.Streak,
		MaxStreak:             s.MaxStreak,
		ComboMultiplier:       s.ComboMultiplier,
		PerfectLevels:         s.PerfectLevels,
		WrongAttempts:         s.WrongAttempts,
		SecurityWrongAttempts: s.SecurityWrongAttempts,
		Achievements:          append([]string{}, s.Achievements...),
		Elapsed:               FormatDuration(e.now().Sub(s.StartedAt)),
	}
	if total > 0 {
		v.ProgressPercent = float64(s.Level) / float64(total) * 100
	}

	switch v.Phase {
	case PhaseRiddle, PhaseSecurity:
		q := e.questions[s.Level]
		v.Question = &models.QuestionView{
			Level:      s.Level + 1,
			Question:   q.Question,
			Category:   q.Category,
			Difficulty: q.Difficulty,
			Points:     q.Points,
		}
		if v.Phase == PhaseSecurity {
			v.Question.SecurityRiddle = q.SecurityRiddle
		}
		if s.ShowHint {
			v.Hint = q.Hint
		}
		if s.ShowSecurityHint {
			v.SecurityHint = q.SecurityHint
		}
		v.Upcoming = e.upcoming(s.Level, 3)
	case PhaseFinished, PhaseLocked:
		v.Achievements = append(append([]string{}, finisherAchievements...), s.Achievements...)
		v.Rank, v.RankNote = Rank(s, total)
	}
	return v
}

func (e *Engine) upcoming(level, n int) []models.UpcomingLevel {
	var out []models.UpcomingLevel
	for i := level + 1; i < e.Total() && len(out) < n; i++ {
		q := e.questions[i]
		out = append(out, models.UpcomingLevel{
			Level:      i + 1,
			Category:   q.Category,
			Difficulty: q.Difficulty,
			Points:     q.Points,
		})
	}
	return out
}

// Rank grades a run from score, hints, best streak and perfect levels.
func Rank(s *State, total int) (string, string) {
	switch {
	case s.Score >= 95 && s.HintsUsed == 0 && s.PerfectLevels == total:
		return "FOSS GRANDMASTER", "Perfect Score! Flawless Victory!"
	case s.Score >= 85 && s.HintsUsed <= 1:
		return "LEGENDARY HACKER", "Exceptional Performance!"
	case s.Score >= 75 && s.HintsUsed <= 2:
		return "ELITE DEVELOPER", "Outstanding Skills!"
	case s.Score >= 60 && s.MaxStreak >= 4:
		return "SENIOR ENGINEER", "Great Consistency!"
	case s.Score >= 45:
		return "LINUX ENTHUSIAST", "Strong Knowledge!"
	case s.Score >= 30:
		return "FOSS EXPLORER", "Good Progress!"
	default:
		return "BEGINNER CODER", "Keep Learning!"
	}
}

// FormatDuration renders "42s" under a minute and "3m 7s" otherwise.
func FormatDuration(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 0 {
		seconds = 0
	}
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
