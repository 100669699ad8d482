package errors

import "net/http"

var (
	ErrInvalidBBox = New(
		"INVALID_BBOX",
		"Invalid bounding box",
		http.StatusBadRequest,
	)

	ErrInvalidZoom = New(
		"INVALID_ZOOM",
		"Invalid zoom level",
		http.StatusBadRequest,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidFeed = New(
		"INVALID_FEED",
		"Unknown feed",
		http.StatusBadRequest,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrEventNotFound = New(
		"EVENT_NOT_FOUND",
		"Earthquake not found",
		http.StatusNotFound,
	)

	ErrFeedUnavailable = New(
		"FEED_UNAVAILABLE",
		"Earthquake feed is unavailable",
		http.StatusServiceUnavailable,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
