package repository

import (
	"context"

	"github.com/prperemyshlev/film-service/internal/domain"
)

// FilmRepository defines methods for film operations
type FilmRepository interface {
	// FindByTitlePrefix returns films whose title starts with prefix,
	// compared case-insensitively, ordered by title.
	FindByTitlePrefix(ctx context.Context, prefix string) ([]*domain.Film, error)
	// Count returns the catalog size.
	Count(ctx context.Context) (int, error)
}
