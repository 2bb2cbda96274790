package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/film-service/internal/dto"
	"github.com/prperemyshlev/film-service/internal/service"
	"go.uber.org/zap"
)

// FilmHandler handles film lookup requests
type FilmHandler struct {
	filmService service.FilmService
	logger      *zap.Logger
}

// NewFilmHandler creates a new film handler
func NewFilmHandler(filmService service.FilmService, logger *zap.Logger) *FilmHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilmHandler{
		filmService: filmService,
		logger:      logger,
	}
}

// List handles film lookup by title prefix
// @Summary List films by title prefix
// @Description Return films whose title starts with the given letter, ignoring case
// @Tags films
// @Produce json
// @Param startsWith query string true "Single letter title prefix"
// @Success 200 {object} dto.FilmsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /films [get]
func (h *FilmHandler) List(c *gin.Context) {
	var query dto.FilmsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: "startsWith query parameter is required",
			Details: gin.H{"startsWith": c.Query("startsWith")},
		})
		return
	}

	response, err := h.filmService.FindByPrefix(c.Request.Context(), query.StartsWith)
	if err != nil {
		if errors.Is(err, service.ErrInvalidFilter) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "Validation failed",
				Message: err.Error(),
				Details: gin.H{"startsWith": query.StartsWith},
			})
			return
		}

		h.logger.Error("film lookup failed",
			zap.String("startsWith", query.StartsWith),
			zap.String("request_id", RequestID(c)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: "failed to look up films",
		})
		return
	}

	c.JSON(http.StatusOK, response)
}
