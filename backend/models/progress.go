package models

// Progress is the saved game state embedded in a user record. It is always
// overwritten wholesale.
type Progress struct {
	Level                    int        `json:"level"`
	Score                    int        `json:"score"`
	HintsUsed                int        `json:"hints_used"`
	Achievements             []string   `json:"achievements"`
	Streak                   int        `json:"streak"`
	MaxStreak                int        `json:"max_streak"`
	ComboMultiplier          float64    `json:"combo_multiplier"`
	PerfectLevels            int        `json:"perfect_levels"`
	WrongAttempts            int        `json:"wrong_attempts"`
	SecurityWrongAttempts    int        `json:"security_wrong_attempts,omitempty"`
	RiddleSolved             bool       `json:"riddle_solved,omitempty"`
	GameCompletedPermanently bool       `json:"game_completed_permanently,omitempty"`
	SavedAt                  *Timestamp `json:"saved_at,omitempty"`
}

// Clone returns a deep copy; nil stays nil.
func (p *Progress) Clone() *Progress {
	if p == nil {
		return nil
	}
	c := *p
	if p.Achievements != nil {
		c.Achievements = append([]string(nil), p.Achievements...)
	}
	if p.SavedAt != nil {
		ts := *p.SavedAt
		c.SavedAt = &ts
	}
	return &c
}
