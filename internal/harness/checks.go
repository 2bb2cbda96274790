package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Check is a single verification step. It returns nil on success and
// preferably an *AssertionFailure otherwise.
type Check func() error

// All runs every check and reports all their failures in one
// *AssertionFailure labelled with group. It never stops at the first failure.
func All(group string, checks ...Check) error {
	var c collector
	for _, check := range checks {
		c.add(check())
	}
	return c.result(group)
}

type collector struct {
	failures []string
}

func (c *collector) failf(format string, args ...any) {
	c.failures = append(c.failures, fmt.Sprintf(format, args...))
}

// add records err, flattening nested assertion failures.
func (c *collector) add(err error) {
	if err == nil {
		return
	}

	var af *AssertionFailure
	if errors.As(err, &af) {
		c.failures = append(c.failures, af.Failures...)
		return
	}
	c.failures = append(c.failures, err.Error())
}

func (c *collector) result(group string) error {
	if len(c.failures) == 0 {
		return nil
	}
	return &AssertionFailure{Group: group, Failures: c.failures}
}

var responseKeys = []string{"count", "filter", "films"}

// CheckSuccessfulResponse verifies a 200 reply with a JSON content type and
// a non-empty body.
func CheckSuccessfulResponse(resp *Response) error {
	var c collector

	if resp.StatusCode != http.StatusOK {
		c.failf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.ContentType(); !strings.Contains(ct, "application/json") {
		c.failf("expected JSON content type, got %q", ct)
	}
	if len(resp.Raw) == 0 {
		c.failf("response body is empty")
	}
	if resp.DecodeErr != nil {
		c.failf("response body is not a JSON object: %v", resp.DecodeErr)
	}

	return c.result("successful response")
}

// CheckResponseStructure verifies the top-level shape of a lookup reply
// and that it agrees with q.
func CheckResponseStructure(resp *Response, q QueryParams) error {
	var c collector

	if resp.Body == nil {
		c.failf("response body is not a JSON object")
		return c.result("response structure")
	}

	keys := make([]string, 0, len(resp.Body))
	for k := range resp.Body {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	if !slices.Equal(keys, responseKeys) {
		c.failf("expected exactly keys %v, got %v", responseKeys, keys)
	}

	films, filmsOK := resp.Films()
	if !filmsOK {
		c.failf("films is missing or not an array")
	}

	count, countOK := resp.Count()
	if !countOK {
		c.failf("count is missing or not an integer")
	}

	if countOK && int(count) != q.ExpectedCount {
		c.failf("expected count %d for %q, got %d", q.ExpectedCount, q.StartsWith, count)
	}
	if countOK && filmsOK && int(count) != len(films) {
		c.failf("count %d does not match films length %d", count, len(films))
	}

	filter, filterOK := resp.Filter()
	if !filterOK {
		c.failf("filter is missing or not an object")
	} else if got, ok := filter["startsWith"].(string); !ok || got != q.StartsWith {
		c.failf("expected filter.startsWith %q, got %v", q.StartsWith, filter["startsWith"])
	}

	return c.result("response structure")
}

// CheckFilmDataIntegrity verifies every film carries a non-null film_id
// and a non-null title. Values are not inspected.
func CheckFilmDataIntegrity(resp *Response) error {
	var c collector

	films, ok := resp.Films()
	if !ok {
		c.failf("films is missing or not an array")
		return c.result("film data integrity")
	}

	for i, item := range films {
		film, ok := item.(map[string]any)
		if !ok {
			c.failf("films[%d] is not an object", i)
			continue
		}
		for _, key := range []string{"film_id", "title"} {
			if film[key] == nil {
				c.failf("films[%d].%s is missing or null", i, key)
			}
		}
	}

	return c.result("film data integrity")
}

// CheckFilmIdentity verifies every film has a positive integer film_id,
// unique within the reply, and a non-blank title.
func CheckFilmIdentity(resp *Response) error {
	var c collector

	films, ok := resp.Films()
	if !ok {
		c.failf("films is missing or not an array")
		return c.result("film identity")
	}

	seen := make(map[int64]int, len(films))
	for i, item := range films {
		film, ok := item.(map[string]any)
		if !ok {
			c.failf("films[%d] is not an object", i)
			continue
		}

		id, ok := positiveInt(film["film_id"])
		if !ok {
			c.failf("films[%d].film_id is not a positive integer: %v", i, film["film_id"])
		} else if prev, dup := seen[id]; dup {
			c.failf("films[%d].film_id %d duplicates films[%d]", i, id, prev)
		} else {
			seen[id] = i
		}

		title, ok := film["title"].(string)
		if !ok || strings.TrimSpace(title) == "" {
			c.failf("films[%d].title is missing or blank", i)
		}
	}

	return c.result("film identity")
}

// CheckTitlesStartWith verifies every title starts with prefix, ignoring case.
func CheckTitlesStartWith(resp *Response, prefix string) error {
	var c collector

	films, ok := resp.Films()
	if !ok {
		c.failf("films is missing or not an array")
		return c.result("title prefix")
	}

	for i, item := range films {
		film, _ := item.(map[string]any)
		title, ok := film["title"].(string)
		if !ok {
			c.failf("films[%d].title is not a string", i)
			continue
		}
		if !hasPrefixFold(title, prefix) {
			c.failf("films[%d].title %q does not start with %q", i, title, prefix)
		}
	}

	return c.result("title prefix")
}

// CheckEmptyResult verifies a lookup that matched nothing and still echoes
// the filter it was asked for.
func CheckEmptyResult(resp *Response, q QueryParams) error {
	var c collector

	films, ok := resp.Films()
	if !ok {
		c.failf("films is missing or not an array")
	} else if len(films) != 0 {
		c.failf("expected no films, got %d", len(films))
	}

	count, ok := resp.Count()
	if !ok {
		c.failf("count is missing or not an integer")
	} else if count != 0 {
		c.failf("expected count 0, got %d", count)
	}

	filter, ok := resp.Filter()
	if !ok {
		c.failf("filter is missing or not an object")
	} else if got, ok := filter["startsWith"].(string); !ok || got != q.StartsWith {
		c.failf("expected filter.startsWith %q, got %v", q.StartsWith, filter["startsWith"])
	}

	return c.result("empty result")
}

// CheckTypeConsistency verifies JSON types: films is an array, count an
// integer, filter an object, and each film_id/title a number/string.
func CheckTypeConsistency(resp *Response) error {
	var c collector

	films, ok := resp.Films()
	if !ok {
		c.failf("films is %s, want array", jsonKind(resp.Body["films"]))
	}
	if _, ok := resp.Count(); !ok {
		c.failf("count is %s, want integer", jsonKind(resp.Body["count"]))
	}
	if _, ok := resp.Filter(); !ok {
		c.failf("filter is %s, want object", jsonKind(resp.Body["filter"]))
	}

	for i, item := range films {
		film, ok := item.(map[string]any)
		if !ok {
			c.failf("films[%d] is %s, want object", i, jsonKind(item))
			continue
		}
		if _, ok := film["film_id"].(json.Number); !ok {
			c.failf("films[%d].film_id is %s, want number", i, jsonKind(film["film_id"]))
		}
		if _, ok := film["title"].(string); !ok {
			c.failf("films[%d].title is %s, want string", i, jsonKind(film["title"]))
		}
	}

	return c.result("type consistency")
}

// CheckStatus verifies the HTTP status code alone.
func CheckStatus(resp *Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}
	return &AssertionFailure{
		Group:    "status",
		Failures: []string{fmt.Sprintf("expected status %d, got %d", want, resp.StatusCode)},
	}
}

// CheckPerformance verifies a measured lookup finished within threshold
// and returned expectedCount results.
func CheckPerformance(m PerformanceMetrics, threshold time.Duration, expectedCount int) error {
	var c collector

	if m.ExecutionTime >= threshold {
		c.failf("lookup took %s, limit is %s", m.ExecutionTime, threshold)
	}
	if m.ResultCount != expectedCount {
		c.failf("expected %d results, got %d", expectedCount, m.ResultCount)
	}

	return c.result("performance")
}

// FixtureExpectations is what CheckFixtureSetup expects of a fixture.
type FixtureExpectations struct {
	DatabaseName string
	Username     string
	FilmCount    int
}

// DefaultFixtureExpectations matches the catalog loaded by StartFixture
// with the default FixtureConfig.
func DefaultFixtureExpectations() FixtureExpectations {
	return FixtureExpectations{
		DatabaseName: "testdb",
		Username:     "testuser",
		FilmCount:    TotalFixtureFilms,
	}
}

// CheckFixtureSetup verifies the fixture is running, reports the expected
// identity and holds exactly the seeded number of films. The row count is
// read with psql inside the instance, not through the service.
func CheckFixtureSetup(ctx context.Context, inst Instance, want FixtureExpectations) error {
	var c collector

	if !inst.IsRunning() {
		c.failf("fixture is not running")
		return c.result("fixture setup")
	}

	if got := inst.DatabaseName(); got != want.DatabaseName {
		c.failf("expected database %q, got %q", want.DatabaseName, got)
	}
	if got := inst.Username(); got != want.Username {
		c.failf("expected username %q, got %q", want.Username, got)
	}

	uri := inst.ConnectionURI()
	if !strings.HasPrefix(uri, "postgres://") && !strings.HasPrefix(uri, "postgresql://") {
		c.failf("connection URI %q is not a postgres URI", redactURI(uri))
	}
	if !strings.Contains(uri, want.DatabaseName) {
		c.failf("connection URI %q does not name database %q", redactURI(uri), want.DatabaseName)
	}

	got, err := QueryScalar(ctx, inst, want.Username, want.DatabaseName, "SELECT COUNT(*) FROM film;")
	var execErr *ExecError
	switch {
	case errors.As(err, &execErr):
		c.failf("psql exited with code %d: %s", execErr.ExitCode, strings.TrimSpace(execErr.Stderr))
	case err != nil:
		c.failf("psql could not run: %v", err)
	case got != strconv.Itoa(want.FilmCount):
		c.failf("expected %d films in fixture, psql reported %q", want.FilmCount, got)
	}

	return c.result("fixture setup")
}

func positiveInt(v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	id, err := n.Int64()
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// hasPrefixFold reports whether s begins with prefix under Unicode case folding.
func hasPrefixFold(s, prefix string) bool {
	n := utf8.RuneCountInString(prefix)
	i := 0
	for pos := range s {
		if i == n {
			return strings.EqualFold(s[:pos], prefix)
		}
		i++
	}
	return i == n && strings.EqualFold(s, prefix)
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null or missing"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
