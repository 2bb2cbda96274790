package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/prperemyshlev/film-service/internal/domain"
	"github.com/prperemyshlev/film-service/pkg/database"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// filmRepository implements FilmRepository interface
type filmRepository struct {
	db *database.Postgres
}

// NewFilmRepository creates a new film repository
func NewFilmRepository(db *database.Postgres) FilmRepository {
	return &filmRepository{db: db}
}

// FindByTitlePrefix retrieves films whose title starts with prefix, ignoring case
func (r *filmRepository) FindByTitlePrefix(ctx context.Context, prefix string) ([]*domain.Film, error) {
	query := `
		SELECT film_id, title, release_year, last_update
		FROM film
		WHERE UPPER(title) LIKE $1 ESCAPE '\'
		ORDER BY title, film_id
	`

	rows, err := r.db.DB.QueryContext(ctx, query, TitlePrefixPattern(prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to find films by title prefix: %w", err)
	}
	defer rows.Close()

	films := make([]*domain.Film, 0)
	for rows.Next() {
		film, err := scanFilm(rows)
		if err != nil {
			return nil, err
		}
		films = append(films, film)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate films: %w", err)
	}

	return films, nil
}

// Count returns the number of films in the catalog
func (r *filmRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM film`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count films: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFilm(row rowScanner) (*domain.Film, error) {
	film := &domain.Film{}
	var releaseYear sql.NullInt64

	err := row.Scan(
		&film.ID,
		&film.Title,
		&releaseYear,
		&film.LastUpdate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan film: %w", err)
	}

	if releaseYear.Valid {
		year := int(releaseYear.Int64)
		film.ReleaseYear = &year
	}

	return film, nil
}

// TitlePrefixPattern builds the upper-cased LIKE pattern for a title prefix.
// LIKE metacharacters in prefix match literally.
func TitlePrefixPattern(prefix string) string {
	return strings.ToUpper(likeEscaper.Replace(prefix)) + "%"
}
