package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prperemyshlev/film-service/internal/dto"
	"github.com/prperemyshlev/film-service/internal/repository"
	"github.com/prperemyshlev/film-service/internal/utils"
	"go.uber.org/zap"
)

// filmService implements FilmService interface
type filmService struct {
	filmRepo repository.FilmRepository
	cache    FilmCache
	metrics  *queryMetrics
	logger   *zap.Logger
}

// NewFilmService creates a new film service.
// A nil cache disables caching; a nil logger discards logs.
func NewFilmService(filmRepo repository.FilmRepository, cache FilmCache, logger *zap.Logger) FilmService {
	if cache == nil {
		cache = noopFilmCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &filmService{
		filmRepo: filmRepo,
		cache:    cache,
		metrics:  newQueryMetrics(),
		logger:   logger,
	}
}

// FindByPrefix returns films whose title starts with startsWith, ignoring case
func (s *filmService) FindByPrefix(ctx context.Context, startsWith string) (*dto.FilmsResponse, error) {
	start := time.Now()

	if err := utils.ValidateStartsWith(startsWith); err != nil {
		s.metrics.record(ctx, outcomeInvalid, time.Since(start))
		return nil, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}

	key := strings.ToUpper(startsWith)

	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("film cache read failed", zap.String("prefix", key), zap.Error(err))
	}
	if ok {
		s.metrics.cacheHit(ctx)
		s.metrics.record(ctx, outcomeOK, time.Since(start))
		return withFilter(cached, startsWith), nil
	}

	films, err := s.filmRepo.FindByTitlePrefix(ctx, startsWith)
	if err != nil {
		s.metrics.record(ctx, outcomeError, time.Since(start))
		return nil, fmt.Errorf("failed to find films: %w", err)
	}

	items := make([]dto.FilmItem, 0, len(films))
	for _, f := range films {
		items = append(items, dto.FilmItem{
			FilmID: f.ID,
			Title:  f.Title,
		})
	}

	resp := &dto.FilmsResponse{
		Films:  items,
		Count:  len(items),
		Filter: dto.FilterInfo{StartsWith: startsWith},
	}

	if err := s.cache.Set(ctx, key, resp); err != nil {
		s.logger.Warn("film cache write failed", zap.String("prefix", key), zap.Error(err))
	}

	s.metrics.record(ctx, outcomeOK, time.Since(start))
	return resp, nil
}

// withFilter returns a copy of resp echoing the caller's own spelling of the filter.
func withFilter(resp *dto.FilmsResponse, startsWith string) *dto.FilmsResponse {
	out := *resp
	out.Filter = dto.FilterInfo{StartsWith: startsWith}
	if out.Films == nil {
		out.Films = []dto.FilmItem{}
	}
	out.Count = len(out.Films)
	return &out
}
