package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/film-service/internal/repository"
)

const healthCheckTimeout = 2 * time.Second

type HealthChecker struct {
	infra Infrastructure
	films repository.FilmRepository
}

func NewHealthChecker(infra Infrastructure, films repository.FilmRepository) *HealthChecker {
	return &HealthChecker{
		infra: infra,
		films: films,
	}
}

// check counts the catalog, which proves Postgres is reachable and the
// schema is migrated, and pings Redis when it is enabled.
func (h *HealthChecker) check(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	type countResult struct {
		n   int
		err error
	}
	counted := make(chan countResult, 1)
	redisErr := make(chan error, 1)

	go func() {
		n, err := h.films.Count(ctx)
		if err != nil {
			err = fmt.Errorf("postgres: %w", err)
		}
		counted <- countResult{n: n, err: err}
	}()

	go func() {
		redis := h.infra.Redis()
		if redis == nil {
			redisErr <- nil
			return
		}
		if err := redis.Ping(ctx); err != nil {
			redisErr <- fmt.Errorf("redis: %w", err)
			return
		}
		redisErr <- nil
	}()

	res := <-counted
	return res.n, errors.Join(res.err, <-redisErr)
}

func (h *HealthChecker) Handler(c *gin.Context) {
	films, err := h.check(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "fail",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "pass",
		"films":  films,
	})
}
