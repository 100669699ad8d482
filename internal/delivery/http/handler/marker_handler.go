package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/quakemap/internal/domain"
	"github.com/quakemap/internal/pkg/errors"
	"github.com/quakemap/internal/pkg/utils"
	"github.com/quakemap/internal/pkg/validator"
	"github.com/quakemap/internal/usecase"
	"github.com/quakemap/internal/usecase/dto"
)

// MarkerHandler serves clustered map markers for a viewport.
type MarkerHandler struct {
	markerUC *usecase.MarkerUseCase
	logger   *zap.Logger
}

func NewMarkerHandler(markerUC *usecase.MarkerUseCase, logger *zap.Logger) *MarkerHandler {
	return &MarkerHandler{
		markerUC: markerUC,
		logger:   logger,
	}
}

// GetMarkers godoc
// @Summary Clustered markers for a viewport
// @Description Clusters the events of a feed for the visible map area. Nearby events are merged into clusters carrying their count and average magnitude and depth. A clustering failure returns an empty list with meta.degraded set.
// @Tags Markers
// @Produce json
// @Param feed query string false "Feed key, e.g. usgs:2.5_day or phivolcs:latest"
// @Param west query number false "West edge in degrees" default(-180)
// @Param south query number false "South edge in degrees" default(-85)
// @Param east query number false "East edge in degrees" default(180)
// @Param north query number false "North edge in degrees" default(85)
// @Param zoom query number false "Map zoom level" default(2)
// @Param min_magnitude query number false "Drop events below this magnitude"
// @Param since query string false "Only events newer than this duration, e.g. 6h"
// @Success 200 {object} utils.SuccessResponse{data=dto.MarkersResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/markers [get]
func (h *MarkerHandler) GetMarkers(c *fiber.Ctx) error {
	req, err := parseMarkersRequest(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	resp, err := h.markerUC.GetMarkers(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, resp, &utils.Meta{
		Total:    len(resp.Markers),
		Feed:     resp.Feed,
		Zoom:     resp.Zoom,
		Degraded: resp.Degraded,
		Reason:   resp.Reason,
	})
}

// GetMarkersGeoJSON godoc
// @Summary Clustered markers as GeoJSON
// @Description Same markers as /markers rendered as a GeoJSON FeatureCollection of points.
// @Tags Markers
// @Produce json
// @Param feed query string false "Feed key"
// @Param west query number false "West edge in degrees" default(-180)
// @Param south query number false "South edge in degrees" default(-85)
// @Param east query number false "East edge in degrees" default(180)
// @Param north query number false "North edge in degrees" default(85)
// @Param zoom query number false "Map zoom level" default(2)
// @Param min_magnitude query number false "Drop events below this magnitude"
// @Param since query string false "Only events newer than this duration"
// @Success 200 {object} map[string]interface{} "GeoJSON FeatureCollection"
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/markers.geojson [get]
func (h *MarkerHandler) GetMarkersGeoJSON(c *fiber.Ctx) error {
	req, err := parseMarkersRequest(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	fc, err := h.markerUC.GetMarkersGeoJSON(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		h.logger.Error("Failed to encode GeoJSON", zap.Error(err))
		return utils.SendError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/geo+json")
	return c.Send(data)
}

// GetLegend godoc
// @Summary Magnitude color legend
// @Description Lists the magnitude bands and their marker colors, strongest first.
// @Tags Markers
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.LegendResponse}
// @Router /api/v1/legend [get]
func (h *MarkerHandler) GetLegend(c *fiber.Ctx) error {
	return utils.SendSuccess(c, h.markerUC.Legend(), nil)
}

func parseMarkersRequest(c *fiber.Ctx) (dto.MarkersRequest, error) {
	req := dto.MarkersRequest{
		Feed:  c.Query("feed"),
		Since: c.Query("since"),
	}

	var err error
	edges := []struct {
		key string
		def float64
		dst *float64
	}{
		{"west", domain.WorldBounds.West, &req.West},
		{"south", domain.WorldBounds.South, &req.South},
		{"east", domain.WorldBounds.East, &req.East},
		{"north", domain.WorldBounds.North, &req.North},
	}
	for _, e := range edges {
		if *e.dst, err = queryFloat(c, e.key, e.def); err != nil {
			return req, errors.ErrInvalidBBox.WithDetails(map[string]interface{}{"param": e.key})
		}
	}

	if req.Zoom, err = queryFloat(c, "zoom", 2); err != nil {
		return req, errors.ErrInvalidZoom
	}
	if req.MinMagnitude, err = queryFloatPtr(c, "min_magnitude"); err != nil {
		return req, err
	}

	if err := validator.Validate(&req); err != nil {
		return req, invalidRequest(err)
	}
	return req, nil
}
