//go:build integration

package acceptance

import (
	"context"
	"net/http"

	"github.com/prperemyshlev/film-service/internal/harness"
)

func (s *Suite) TestFixtureSetup() {
	err := harness.CheckFixtureSetup(context.Background(), s.Fixture, harness.DefaultFixtureExpectations())
	s.NoError(err)
}

func (s *Suite) TestFilmsStartingWithA() {
	q := harness.NewQueryParams("A", harness.ExpectedFilmsStartingWithA, "films starting with A")

	resp, err := s.Client.Get(context.Background(), harness.FilmsPath, q.StartsWith)
	s.Require().NoError(err)

	err = harness.All(q.Description,
		func() error { return harness.CheckSuccessfulResponse(resp) },
		func() error { return harness.CheckResponseStructure(resp, q) },
		func() error { return harness.CheckFilmDataIntegrity(resp) },
		func() error { return harness.CheckFilmIdentity(resp) },
		func() error { return harness.CheckTitlesStartWith(resp, q.StartsWith) },
		func() error { return harness.CheckTypeConsistency(resp) },
	)
	s.NoError(err)
}

func (s *Suite) TestLowercaseFilterMatchesSameFilms() {
	upper, err := s.Client.Get(context.Background(), harness.FilmsPath, "A")
	s.Require().NoError(err)
	lower, err := s.Client.Get(context.Background(), harness.FilmsPath, "a")
	s.Require().NoError(err)

	s.Require().Equal(http.StatusOK, lower.StatusCode)
	upperFilms, _ := upper.Films()
	lowerFilms, _ := lower.Films()
	s.Equal(upperFilms, lowerFilms)

	filter, ok := lower.Filter()
	s.Require().True(ok)
	s.Equal("a", filter["startsWith"])
}

func (s *Suite) TestFilmsLookupPerformance() {
	q := harness.NewQueryParams("A", harness.ExpectedFilmsStartingWithA, "lookup latency")

	m, resp, err := harness.MeasureQuery(context.Background(), s.Client, harness.FilmsPath, q)
	s.Require().NoError(err)

	s.NoError(harness.All(q.Description,
		func() error { return harness.CheckSuccessfulResponse(resp) },
		func() error { return harness.CheckPerformance(m, harness.PerformanceThreshold, q.ExpectedCount) },
	))
}

func (s *Suite) TestNoFilmsStartingWithX() {
	q := harness.NewQueryParams("X", 0, "no films starting with X")

	resp, err := s.Client.Get(context.Background(), harness.FilmsPath, q.StartsWith)
	s.Require().NoError(err)

	s.NoError(harness.All(q.Description,
		func() error { return harness.CheckSuccessfulResponse(resp) },
		func() error { return harness.CheckResponseStructure(resp, q) },
		func() error { return harness.CheckEmptyResult(resp, q) },
		func() error { return harness.CheckTypeConsistency(resp) },
	))
}

func (s *Suite) TestInvalidFiltersAreRejected() {
	for _, value := range []string{"", "ABC", "@", "123"} {
		resp, err := s.Client.Get(context.Background(), harness.FilmsPath, value)
		s.Require().NoError(err, value)
		s.NoError(harness.CheckStatus(resp, http.StatusBadRequest), "startsWith=%q", value)
	}
}

func (s *Suite) TestDefaultCases() {
	report, err := harness.NewRunner(s.Client, s.logger).Run(context.Background(), harness.DefaultCases())
	s.Require().NoError(err)

	for _, res := range report.Results {
		s.True(res.Passed, "%s: %v", res.Case.Name, res.Failures)
	}
	s.True(report.OK())
}
