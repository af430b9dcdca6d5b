package questions

import (
	"context"
	"log"

	"treasurehunt/backend/models"
)

const (
	SourceDatabase = "database"
	SourceFallback = "fallback"
)

// Fetcher returns the question list held by an external service.
type Fetcher interface {
	Questions(ctx context.Context) ([]models.Question, error)
}

// Source picks the remote question list when it is reachable and valid, and
// the local bank otherwise.
type Source struct {
	Remote Fetcher
	Local  []models.Question
	Logger *log.Logger
}

func (s *Source) Load(ctx context.Context) ([]models.Question, string) {
	if s.Remote == nil {
		return s.Local, SourceFallback
	}

	qs, err := s.Remote.Questions(ctx)
	if err != nil {
		s.Logger.Printf("remote questions unavailable, using fallback bank: %v", err)
		return s.Local, SourceFallback
	}
	qs = activeOnly(qs)
	if err := Validate(qs); err != nil {
		s.Logger.Printf("remote questions rejected, using fallback bank: %v", err)
		return s.Local, SourceFallback
	}
	return qs, SourceDatabase
}

func activeOnly(qs []models.Question) []models.Question {
	out := make([]models.Question, 0, len(qs))
	for _, q := range qs {
		if q.IsActive != nil && !*q.IsActive {
			continue
		}
		out = append(out, q)
	}
	return out
}
