package repository

import (
	"github.com/prperemyshlev/film-service/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	Film FilmRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		Film: NewFilmRepository(db),
	}
}
