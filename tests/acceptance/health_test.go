//go:build integration

package acceptance

import (
	"encoding/json"
	"net/http"

	"github.com/prperemyshlev/film-service/internal/harness"
)

func (s *Suite) TestHealthEndpoint() {
	resp, err := http.Get(s.BaseURL + "/health")
	s.Require().NoError(err, "Failed to make request")
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode, "Expected status 200")

	var body struct {
		Status string `json:"status"`
		Films  int    `json:"films"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.Equal("pass", body.Status)
	s.Equal(harness.TotalFixtureFilms, body.Films)
}
