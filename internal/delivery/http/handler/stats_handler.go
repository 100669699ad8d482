package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/quakemap/internal/pkg/utils"
	"github.com/quakemap/internal/usecase"
)

// StatsHandler serves feed statistics.
type StatsHandler struct {
	statsUC *usecase.StatsUseCase
	logger  *zap.Logger
}

func NewStatsHandler(statsUC *usecase.StatsUseCase, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		statsUC: statsUC,
		logger:  logger,
	}
}

// GetStatistics godoc
// @Summary Feed statistics
// @Description Counts, average magnitude and depth, per-band counts, and the strongest and latest event of a feed.
// @Tags Statistics
// @Produce json
// @Param feed query string false "Feed key"
// @Success 200 {object} utils.SuccessResponse{data=domain.Statistics}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/stats [get]
func (h *StatsHandler) GetStatistics(c *fiber.Ctx) error {
	h.logger.Debug("Handling get statistics request")

	stats, err := h.statsUC.GetStatistics(c.Context(), c.Query("feed"))
	if err != nil {
		h.logger.Error("Failed to get statistics", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, stats, &utils.Meta{Feed: stats.Feed})
}
