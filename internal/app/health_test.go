package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/film-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFilmRepository struct {
	count int
	err   error
}

func (r countingFilmRepository) FindByTitlePrefix(context.Context, string) ([]*domain.Film, error) {
	return nil, nil
}

func (r countingFilmRepository) Count(context.Context) (int, error) {
	return r.count, r.err
}

func serveHealth(t *testing.T, checker *HealthChecker) (int, map[string]any) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", checker.Handler)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealthChecker_ReportsCatalogSize(t *testing.T) {
	checker := NewHealthChecker(&stubInfrastructure{}, countingFilmRepository{count: 51})

	code, body := serveHealth(t, checker)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "pass", body["status"])
	assert.EqualValues(t, 51, body["films"])
}

func TestHealthChecker_FailsWhenCountFails(t *testing.T) {
	checker := NewHealthChecker(&stubInfrastructure{}, countingFilmRepository{err: errors.New("relation \"film\" does not exist")})

	code, body := serveHealth(t, checker)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "fail", body["status"])
	assert.Contains(t, body["error"], "postgres")
}
