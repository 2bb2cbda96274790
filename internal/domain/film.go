package domain

import "time"

// Film represents a film in the catalog
type Film struct {
	ID          int64     `json:"film_id" db:"film_id"`
	Title       string    `json:"title" db:"title"`
	ReleaseYear *int      `json:"release_year,omitempty" db:"release_year"`
	LastUpdate  time.Time `json:"-" db:"last_update"`
}
