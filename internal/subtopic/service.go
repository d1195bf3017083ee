package subtopic

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-admin/internal/question"
)

// Source fetches the authoritative listing, normally a token-bound upstream client.
type Source interface {
	ListSubtopics(ctx context.Context) ([]question.Subtopic, error)
}

// Service serves subtopic listings through a read-through cache. Cache
// failures degrade to a direct fetch.
type Service struct {
	cache  Cache
	logger zerolog.Logger
}

func NewService(cache Cache, logger zerolog.Logger) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &Service{
		cache:  cache,
		logger: logger.With().Str("component", "subtopic_service").Logger(),
	}
}

// List returns the cached listing for token or fetches it from src.
func (s *Service) List(ctx context.Context, token string, src Source) ([]question.Subtopic, error) {
	cached, ok, err := s.cache.Get(ctx, token)
	if err != nil {
		s.logger.Warn().Err(err).Msg("subtopic cache read failed")
	}
	if ok {
		return cached, nil
	}

	subtopics, err := src.ListSubtopics(ctx)
	if err != nil {
		return nil, err
	}
	if subtopics == nil {
		subtopics = []question.Subtopic{}
	}
	if err := s.cache.Set(ctx, token, subtopics); err != nil {
		s.logger.Warn().Err(err).Msg("subtopic cache write failed")
	}
	return subtopics, nil
}
