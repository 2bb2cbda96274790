package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/film-service/internal/dto"
	"github.com/prperemyshlev/film-service/internal/service"
	"github.com/prperemyshlev/film-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubFilmService struct {
	resp *dto.FilmsResponse
	err  error
	got  string
}

func (s *stubFilmService) FindByPrefix(_ context.Context, startsWith string) (*dto.FilmsResponse, error) {
	s.got = startsWith
	if err := utils.ValidateStartsWith(startsWith); err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrInvalidFilter, err)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

type stubLimiter struct {
	decision service.RateDecision
	err      error
}

func (l stubLimiter) Allow(context.Context, string, int, time.Duration) (service.RateDecision, error) {
	return l.decision, l.err
}

func newTestRouter(svc service.FilmService, middleware ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(middleware...)
	router.GET("/api/v1/films", NewFilmHandler(svc, zap.NewNop()).List)
	return router
}

func doGet(router http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestFilmHandler_List_Success(t *testing.T) {
	svc := &stubFilmService{resp: &dto.FilmsResponse{
		Films:  []dto.FilmItem{{FilmID: 1, Title: "ACADEMY DINOSAUR"}},
		Count:  1,
		Filter: dto.FilterInfo{StartsWith: "A"},
	}}

	rec := doGet(newTestRouter(svc), "/api/v1/films?startsWith=A")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "A", svc.got)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.ElementsMatch(t, []string{"films", "count", "filter"}, keys(body))
	assert.Equal(t, map[string]any{"startsWith": "A"}, body["filter"])
}

func TestFilmHandler_List_InvalidInput(t *testing.T) {
	router := newTestRouter(&stubFilmService{})

	for _, target := range []string{
		"/api/v1/films",
		"/api/v1/films?startsWith=",
		"/api/v1/films?startsWith=ABC",
		"/api/v1/films?startsWith=%40",
		"/api/v1/films?startsWith=123",
	} {
		rec := doGet(router, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)

		var errResp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp), target)
		assert.Equal(t, "Validation failed", errResp.Error, target)
	}
}

func TestFilmHandler_List_InvalidInputEchoesFilter(t *testing.T) {
	router := newTestRouter(&stubFilmService{})

	tests := []struct {
		target string
		want   string
	}{
		{"/api/v1/films", ""},
		{"/api/v1/films?startsWith=", ""},
		{"/api/v1/films?startsWith=ABC", "ABC"},
		{"/api/v1/films?startsWith=%40", "@"},
	}

	for _, tt := range tests {
		rec := doGet(router, tt.target)
		require.Equal(t, http.StatusBadRequest, rec.Code, tt.target)

		var body struct {
			Details map[string]string `json:"details"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), tt.target)
		require.Contains(t, body.Details, "startsWith", tt.target)
		assert.Equal(t, tt.want, body.Details["startsWith"], tt.target)
	}
}

func TestFilmHandler_List_InternalError(t *testing.T) {
	router := newTestRouter(&stubFilmService{err: errors.New("db down")})

	rec := doGet(router, "/api/v1/films?startsWith=A")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestRequestIDMiddleware(t *testing.T) {
	router := newTestRouter(&stubFilmService{resp: &dto.FilmsResponse{Films: []dto.FilmItem{}}})

	rec := doGet(router, "/api/v1/films?startsWith=A")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/films?startsWith=A", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRateLimitMiddleware_Rejects(t *testing.T) {
	limiter := stubLimiter{decision: service.RateDecision{Allowed: false, RetryAfter: 1500 * time.Millisecond}}
	router := newTestRouter(&stubFilmService{},
		RateLimitMiddleware(limiter, 5, time.Minute, IPBasedKey, zap.NewNop()))

	rec := doGet(router, "/api/v1/films?startsWith=A")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	limiter := stubLimiter{err: errors.New("redis unavailable")}
	svc := &stubFilmService{resp: &dto.FilmsResponse{Films: []dto.FilmItem{}}}
	router := newTestRouter(svc, RateLimitMiddleware(limiter, 5, time.Minute, IPBasedKey, zap.NewNop()))

	rec := doGet(router, "/api/v1/films?startsWith=A")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIPBasedKey_PrefersForwardedFor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	assert.Equal(t, "203.0.113.7", IPBasedKey(c))
}

func TestCORSMiddleware(t *testing.T) {
	router := newTestRouter(&stubFilmService{resp: &dto.FilmsResponse{Films: []dto.FilmItem{}}},
		CORSMiddleware([]string{"http://localhost:3000"}, []string{"GET", "OPTIONS"}, []string{"Content-Type"}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/films?startsWith=A", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/films?startsWith=A", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
