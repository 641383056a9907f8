package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/qpaper-backend/internal/model"
	"github.com/stemsi/qpaper-backend/internal/response"
)

// PoolStatsReader is implemented by *service.StatsService.
type PoolStatsReader interface {
	PoolStats(ctx context.Context, courseID int) (*model.PoolStats, error)
}

// StatsHandler handles pool statistics endpoints.
type StatsHandler struct {
	stats PoolStatsReader
	log   zerolog.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(stats PoolStatsReader, log zerolog.Logger) *StatsHandler {
	return &StatsHandler{
		stats: stats,
		log:   log.With().Str("component", "stats_handler").Logger(),
	}
}

// GetPoolStats godoc
// GET /api/v1/courses/:id/stats
// Returns question counts per unit and mark value plus generation totals.
func (h *StatsHandler) GetPoolStats(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}

	stats, err := h.stats.PoolStats(c.Request.Context(), courseID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}
