// Package questions provides the level set: the built-in bank, an
// answers.toml overlay and a remote source.
package questions

import (
	"errors"
	"fmt"
	"strings"

	"treasurehunt/backend/models"
)

var ErrInvalidBank = errors.New("invalid question bank")

// Default returns a fresh copy of the built-in six-level bank.
func Default() []models.Question {
	return []models.Question{
		{
			Question:       "The Hidden Core\n\nI am invisible but control it all,\nCPU, memory, devices, I stand tall.\nWithout me, Linux would never run,\nFind my name, and Level 2 is begun.",
			Answer:         "kernel",
			SecurityRiddle: "What 3-letter command shows you where you are in the Linux filesystem?",
			SecurityKey:    "pwd",
			Hint:           "Think of the 'heart' of the operating system that manages hardware.",
			SecurityHint:   "Stands for 'Print Working Directory'.",
			Category:       "OS Architecture",
			Difficulty:     models.DifficultyEasy,
			Points:         10,
		},
		{
			Question:       "The Command Interpreter\n\nI'm not food, but I'm called a shell,\nWithout me, using the kernel is hell.\nI take your commands, one by one,\nBash, Zsh, Fish, I'm the one!",
			Answer:         "shell",
			SecurityRiddle: "What license ensures software remains free and open source? (3 letters, created by FSF)",
			SecurityKey:    "gpl",
			Hint:           "The interface between users and the kernel. Famous types include Bash and Zsh.",
			SecurityHint:   "GNU _____ License. Richard Stallman's creation.",
			Category:       "System Components",
			Difficulty:     models.DifficultyMedium,
			Points:         15,
		},
		{
			Question:       "The Ancient Ancestor\n\nBorn at Bell Labs in the 1970s,\nI shaped today's systems and realities.\nLinux is my child, that's true,\nFour letters, can you name me too?",
			Answer:         "unix",
			SecurityRiddle: "Decode: 01101100 01101001 01101110 01110101 01111000",
			SecurityKey:    "linux",
			Hint:           "The operating system that inspired Linux. Starts with 'U'.",
			SecurityHint:   "Convert binary to ASCII. Each group is 8 bits = 1 character.",
			Category:       "OS History",
			Difficulty:     models.DifficultyHard,
			Points:         20,
		},
		{
			Question:       "The Software Manager\n\nI fetch, install, and update with ease,\napt, yum, pacman are examples of me.\nWithout me, your software is stranded,\nWhat's my name, two words demanded?",
			Answer:         "package manager",
			SecurityRiddle: "What command changes your current directory in Linux? (2 letters)",
			SecurityKey:    "cd",
			Hint:           "Two words. First word is 'Package'. Manages software installation.",
			SecurityHint:   "'Change Directory', one of the most basic Linux commands.",
			Category:       "System Tools",
			Difficulty:     models.DifficultyMedium,
			Points:         15,
		},
		{
			Question:       "The Permission Master\n\nI control who can read, write, execute,\nThree groups of three, that's my tribute.\nOwner, group, others, I set the law,\nWhat am I called? Answer with awe.",
			Answer:         "chmod",
			SecurityRiddle: "What famous OS did Linus Torvalds create? (5 letters)",
			SecurityKey:    "linux",
			Hint:           "A Linux command to change file permissions. Starts with 'ch'.",
			SecurityHint:   "The creator's first name is Linus. OS released in 1991.",
			Category:       "File System",
			Difficulty:     models.DifficultyMedium,
			Points:         15,
		},
		{
			Question:       "The Final Treasure\n\nI wrote the kernel back in '91,\nFor fun at first, but now it runs everyone.\nA Finnish programmer, still maintaining today,\nWho am I? Can you say?",
			Answer:         "linus torvalds",
			SecurityRiddle: "What 3-letter open source version control system did Linus also create?",
			SecurityKey:    "git",
			Hint:           "His first name is Linus. Created Linux as a student project.",
			SecurityHint:   "Rhymes with 'sit'. Used for tracking code changes.",
			Category:       "Linux History",
			Difficulty:     models.DifficultyHard,
			Points:         20,
		},
	}
}

// Validate rejects banks a game cannot be played on.
func Validate(qs []models.Question) error {
	if len(qs) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidBank)
	}
	for i, q := range qs {
		switch {
		case strings.TrimSpace(q.Answer) == "":
			return fmt.Errorf("%w: level %d has no answer", ErrInvalidBank, i+1)
		case strings.TrimSpace(q.SecurityKey) == "":
			return fmt.Errorf("%w: level %d has no security key", ErrInvalidBank, i+1)
		case !q.Difficulty.Valid():
			return fmt.Errorf("%w: level %d has difficulty %q", ErrInvalidBank, i+1, q.Difficulty)
		case q.Points < 0:
			return fmt.Errorf("%w: level %d has negative points", ErrInvalidBank, i+1)
		}
	}
	return nil
}

// TotalPoints is the sum of the base points of every level.
func TotalPoints(qs []models.Question) int {
	total := 0
	for _, q := range qs {
		total += q.Points
	}
	return total
}
