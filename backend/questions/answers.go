package questions

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/pelletier/go-toml/v2"

	"treasurehunt/backend/models"
)

// answersFile mirrors answers.toml:
//
//	[questions]
//	level_1_answer = "..."
//	level_1_security_key = "..."
type answersFile struct {
	Questions map[string]string `toml:"questions"`
}

// ApplyAnswers overlays answers and security keys (1-based level keys) onto
// qs in place. Unknown keys are ignored.
func ApplyAnswers(qs []models.Question, data []byte) error {
	var f answersFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse answers: %w", err)
	}
	for i := range qs {
		level := i + 1
		if v, ok := f.Questions[fmt.Sprintf("level_%d_answer", level)]; ok {
			qs[i].Answer = v
		}
		if v, ok := f.Questions[fmt.Sprintf("level_%d_security_key", level)]; ok {
			qs[i].SecurityKey = v
		}
	}
	return nil
}

// LoadAnswers reads path and overlays it onto qs. A missing file leaves the
// bank as it is.
func LoadAnswers(qs []models.Question, path string, logger *log.Logger) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Printf("answers file %s not found, using built-in answers", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read answers: %w", err)
	}
	return ApplyAnswers(qs, data)
}
