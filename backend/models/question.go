package models

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question is one level of the hunt: a riddle gate followed by a security-key gate.
type Question struct {
	LevelNumber    int        `json:"level_number,omitempty"`
	Question       string     `json:"question"`
	Answer         string     `json:"answer"`
	SecurityRiddle string     `json:"security_riddle"`
	SecurityKey    string     `json:"security_key"`
	Hint           string     `json:"hint"`
	SecurityHint   string     `json:"security_hint"`
	Category       string     `json:"category"`
	Difficulty     Difficulty `json:"difficulty"`
	Points         int        `json:"points"`
	IsActive       *bool      `json:"is_active,omitempty"`
}

// QuestionView is what a player is allowed to see of a question.
type QuestionView struct {
	Level          int        `json:"level"`
	Question       string     `json:"question"`
	SecurityRiddle string     `json:"security_riddle,omitempty"`
	Category       string     `json:"category"`
	Difficulty     Difficulty `json:"difficulty"`
	Points         int        `json:"points"`
}

// UpcomingLevel is the teaser shown for levels not yet reached.
type UpcomingLevel struct {
	Level      int        `json:"level"`
	Category   string     `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
	Points     int        `json:"points"`
}
