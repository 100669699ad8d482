package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/quakemap/internal/pkg/utils"
	"github.com/quakemap/internal/pkg/validator"
	"github.com/quakemap/internal/usecase"
	"github.com/quakemap/internal/usecase/dto"
)

// EventHandler serves the event list panel and feed refreshes.
type EventHandler struct {
	feedUC    *usecase.FeedUseCase
	refresher *usecase.FeedRefresher
	logger    *zap.Logger
}

func NewEventHandler(feedUC *usecase.FeedUseCase, refresher *usecase.FeedRefresher, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		feedUC:    feedUC,
		refresher: refresher,
		logger:    logger,
	}
}

// ListEvents godoc
// @Summary List earthquakes of a feed
// @Description Returns the valid events of a feed, filtered by magnitude and age and sorted by time, magnitude or distance from a reference point.
// @Tags Events
// @Produce json
// @Param feed query string false "Feed key"
// @Param min_magnitude query number false "Minimum magnitude"
// @Param max_magnitude query number false "Maximum magnitude"
// @Param since query string false "Only events newer than this duration, e.g. 24h"
// @Param sort query string false "time, magnitude or distance" default(time)
// @Param near_lat query number false "Reference latitude for distance"
// @Param near_lon query number false "Reference longitude for distance"
// @Param west query number false "West edge of an area filter; all four edges go together"
// @Param south query number false "South edge of an area filter"
// @Param east query number false "East edge of an area filter"
// @Param north query number false "North edge of an area filter"
// @Param limit query int false "Maximum number of events" default(100)
// @Success 200 {object} utils.SuccessResponse{data=dto.EventListResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/events [get]
func (h *EventHandler) ListEvents(c *fiber.Ctx) error {
	req := dto.EventListRequest{
		Feed:  c.Query("feed"),
		Since: c.Query("since"),
		Sort:  c.Query("sort", "time"),
		Limit: c.QueryInt("limit", 100),
	}

	var err error
	if req.MinMagnitude, err = queryFloatPtr(c, "min_magnitude"); err != nil {
		return utils.SendError(c, err)
	}
	if req.MaxMagnitude, err = queryFloatPtr(c, "max_magnitude"); err != nil {
		return utils.SendError(c, err)
	}
	if req.NearLat, err = queryFloatPtr(c, "near_lat"); err != nil {
		return utils.SendError(c, err)
	}
	if req.NearLon, err = queryFloatPtr(c, "near_lon"); err != nil {
		return utils.SendError(c, err)
	}
	for name, dst := range map[string]**float64{
		"west":  &req.West,
		"south": &req.South,
		"east":  &req.East,
		"north": &req.North,
	} {
		if *dst, err = queryFloatPtr(c, name); err != nil {
			return utils.SendError(c, err)
		}
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, invalidRequest(err))
	}

	resp, err := h.feedUC.ListEvents(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, resp, &utils.Meta{
		Total: resp.Total,
		Limit: req.Limit,
		Feed:  resp.Feed,
	})
}

// GetEvent godoc
// @Summary Get one earthquake
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Param feed query string false "Feed key"
// @Success 200 {object} utils.SuccessResponse{data=dto.EventDTO}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/events/{id} [get]
func (h *EventHandler) GetEvent(c *fiber.Ctx) error {
	ev, err := h.feedUC.GetEvent(c.Context(), c.Query("feed"), c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, ev, nil)
}

// SearchEvents godoc
// @Summary Search the earthquake catalog
// @Description Runs a custom search over the USGS catalog by date range, magnitude and area. Results are not cached.
// @Tags Events
// @Produce json
// @Param start query string false "Start date, YYYY-MM-DD" default(30 days ago)
// @Param end query string false "End date, YYYY-MM-DD" default(today)
// @Param min_magnitude query number false "Minimum magnitude"
// @Param west query number false "West edge"
// @Param south query number false "South edge"
// @Param east query number false "East edge"
// @Param north query number false "North edge"
// @Param limit query int false "Maximum number of events"
// @Success 200 {object} utils.SuccessResponse{data=dto.EventListResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/events/search [get]
func (h *EventHandler) SearchEvents(c *fiber.Ctx) error {
	req := dto.EventSearchRequest{
		Start: c.Query("start"),
		End:   c.Query("end"),
		Limit: c.QueryInt("limit", 0),
	}

	for _, p := range []struct {
		key string
		dst **float64
	}{
		{"min_magnitude", &req.MinMagnitude},
		{"west", &req.West},
		{"south", &req.South},
		{"east", &req.East},
		{"north", &req.North},
	} {
		v, err := queryFloatPtr(c, p.key)
		if err != nil {
			return utils.SendError(c, err)
		}
		*p.dst = v
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, invalidRequest(err))
	}

	resp, err := h.feedUC.SearchEvents(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, resp, &utils.Meta{Total: resp.Total})
}

// RefreshFeed godoc
// @Summary Refresh a feed
// @Description Schedules a re-fetch of the feed. Requests arriving within the debounce window are coalesced into one fetch.
// @Tags Events
// @Produce json
// @Param feed path string true "Feed key, e.g. usgs:2.5_day"
// @Success 202 {object} utils.SuccessResponse{data=dto.RefreshResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/feeds/{feed}/refresh [post]
func (h *EventHandler) RefreshFeed(c *fiber.Ctx) error {
	key, err := h.feedUC.ResolveFeed(c.Params("feed"))
	if err != nil {
		return utils.SendError(c, err)
	}

	gen := h.refresher.RequestRefresh(key)
	h.logger.Debug("Refresh requested", zap.String("feed", key.String()), zap.Uint64("generation", gen))

	c.Status(fiber.StatusAccepted)
	return utils.SendSuccess(c, dto.RefreshResponse{
		Feed:       key.String(),
		Generation: gen,
		Status:     "scheduled",
	}, nil)
}
