package harness

import "time"

const (
	// FilmsPath is the lookup endpoint of the service under test.
	FilmsPath = "/api/v1/films"

	// ExpectedFilmsStartingWithA is the number of seeded titles starting with "A".
	ExpectedFilmsStartingWithA = 46

	// TotalFixtureFilms is the number of rows seeded into the fixture.
	TotalFixtureFilms = 51

	// PerformanceThreshold bounds a single lookup in the performance case.
	PerformanceThreshold = 2000 * time.Millisecond
)

// QueryParams describes one lookup and what it is expected to return.
type QueryParams struct {
	StartsWith    string
	ExpectedCount int
	Description   string
}

// NewQueryParams builds the parameters of a single test case.
func NewQueryParams(startsWith string, expectedCount int, description string) QueryParams {
	return QueryParams{
		StartsWith:    startsWith,
		ExpectedCount: expectedCount,
		Description:   description,
	}
}
