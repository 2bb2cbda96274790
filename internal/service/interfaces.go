package service

import (
	"context"

	"github.com/prperemyshlev/film-service/internal/dto"
)

// FilmService defines methods for film lookup operations
type FilmService interface {
	// FindByPrefix validates startsWith and returns the matching films.
	// Invalid input yields an error wrapping ErrInvalidFilter.
	FindByPrefix(ctx context.Context, startsWith string) (*dto.FilmsResponse, error)
}

// FilmCache stores film lookup responses keyed by the normalized prefix
type FilmCache interface {
	Get(ctx context.Context, prefix string) (*dto.FilmsResponse, bool, error)
	Set(ctx context.Context, prefix string, resp *dto.FilmsResponse) error
}
