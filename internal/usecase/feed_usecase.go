package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/quakemap/internal/cluster"
	"github.com/quakemap/internal/domain"
	"github.com/quakemap/internal/domain/repository"
	"github.com/quakemap/internal/pkg/errors"
	"github.com/quakemap/internal/pkg/metrics"
	"github.com/quakemap/internal/pkg/utils"
	"github.com/quakemap/internal/usecase/dto"
)

const defaultEventLimit = 100

// FeedReader is the read side of FeedUseCase used by markers and statistics.
type FeedReader interface {
	ResolveFeed(raw string) (domain.FeedKey, error)
	GetFeed(ctx context.Context, key domain.FeedKey) (*domain.FeedSnapshot, error)
}

// FeedUseCase fetches feeds through the cache and serves the event list.
type FeedUseCase struct {
	sources     map[string]repository.FeedSource
	searcher    repository.EventSearcher
	cacheRepo   repository.CacheRepository
	metrics     *metrics.Metrics
	logger      *zap.Logger
	feedTTL     time.Duration
	defaultFeed domain.FeedKey
	now         func() time.Time
}

// NewFeedUseCase wires the feed sources. cacheRepo and searcher may be nil.
func NewFeedUseCase(
	sources []repository.FeedSource,
	searcher repository.EventSearcher,
	cacheRepo repository.CacheRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
	feedTTL time.Duration,
	defaultFeed string,
) (*FeedUseCase, error) {
	key, err := domain.ParseFeedKey(defaultFeed)
	if err != nil {
		return nil, fmt.Errorf("default feed: %w", err)
	}

	bySource := make(map[string]repository.FeedSource, len(sources))
	for _, s := range sources {
		bySource[s.Source()] = s
	}
	if _, ok := bySource[key.Source]; !ok {
		return nil, fmt.Errorf("default feed %s: source not configured", key)
	}

	return &FeedUseCase{
		sources:     bySource,
		searcher:    searcher,
		cacheRepo:   cacheRepo,
		metrics:     m,
		logger:      logger,
		feedTTL:     feedTTL,
		defaultFeed: key,
		now:         time.Now,
	}, nil
}

// DefaultFeed returns the feed used when a request names none.
func (uc *FeedUseCase) DefaultFeed() domain.FeedKey {
	return uc.defaultFeed
}

// ResolveFeed parses a feed key, falling back to the default for an empty string.
func (uc *FeedUseCase) ResolveFeed(raw string) (domain.FeedKey, error) {
	if raw == "" {
		return uc.defaultFeed, nil
	}
	key, err := domain.ParseFeedKey(raw)
	if err != nil {
		return domain.FeedKey{}, errors.ErrInvalidFeed.WithDetails(map[string]interface{}{
			"feed": raw,
		})
	}
	if _, ok := uc.sources[key.Source]; !ok {
		return domain.FeedKey{}, errors.ErrInvalidFeed.WithMessage("Feed source is disabled")
	}
	return key, nil
}

// GetFeed returns the snapshot of a feed, from the cache when possible.
func (uc *FeedUseCase) GetFeed(ctx context.Context, key domain.FeedKey) (*domain.FeedSnapshot, error) {
	if uc.cacheRepo != nil {
		cached, err := uc.cacheRepo.GetFeed(ctx, key.String())
		if err != nil {
			uc.logger.Warn("Failed to get feed from cache", zap.String("feed", key.String()), zap.Error(err))
		}
		uc.metrics.CacheLookup("feed", cached != nil)
		if cached != nil {
			uc.logger.Debug("Feed fetched from cache", zap.String("feed", key.String()))
			return cached, nil
		}
	}

	return uc.fetch(ctx, key)
}

// RefreshFeed fetches a feed from its source and replaces the cached snapshot
// together with the statistics derived from it.
func (uc *FeedUseCase) RefreshFeed(ctx context.Context, key domain.FeedKey) (*domain.FeedSnapshot, error) {
	uc.logger.Info("Refreshing feed", zap.String("feed", key.String()))

	snapshot, err := uc.fetchSource(ctx, key)
	if err != nil {
		return nil, err
	}

	if uc.cacheRepo != nil {
		if err := uc.cacheRepo.DeleteFeed(ctx, key.String()); err != nil {
			uc.logger.Warn("Failed to drop cached feed", zap.String("feed", key.String()), zap.Error(err))
		}
	}
	uc.store(ctx, snapshot)

	return snapshot, nil
}

func (uc *FeedUseCase) fetch(ctx context.Context, key domain.FeedKey) (*domain.FeedSnapshot, error) {
	snapshot, err := uc.fetchSource(ctx, key)
	if err != nil {
		return nil, err
	}
	uc.store(ctx, snapshot)
	return snapshot, nil
}

func (uc *FeedUseCase) fetchSource(ctx context.Context, key domain.FeedKey) (*domain.FeedSnapshot, error) {
	source, ok := uc.sources[key.Source]
	if !ok {
		return nil, errors.ErrInvalidFeed.WithMessage("Feed source is disabled")
	}

	start := uc.now()
	features, err := source.FetchFeed(ctx, key)
	uc.metrics.FeedFetched(key.Source, err, len(features), key.String())
	if err != nil {
		uc.logger.Error("Failed to fetch feed",
			zap.String("feed", key.String()),
			zap.Error(err))
		return nil, errors.ErrFeedUnavailable.WithDetails(map[string]interface{}{
			"feed": key.String(),
		})
	}

	uc.logger.Debug("Feed fetched",
		zap.String("feed", key.String()),
		zap.Int("events", len(features)),
		zap.Duration("elapsed", uc.now().Sub(start)))

	return &domain.FeedSnapshot{
		Feed:      key.String(),
		Features:  features,
		FetchedAt: uc.now().UTC(),
	}, nil
}

func (uc *FeedUseCase) store(ctx context.Context, snapshot *domain.FeedSnapshot) {
	if uc.cacheRepo == nil {
		return
	}
	if err := uc.cacheRepo.SetFeed(ctx, snapshot, uc.feedTTL); err != nil {
		uc.logger.Warn("Failed to cache feed", zap.String("feed", snapshot.Feed), zap.Error(err))
	}
}

// ListEvents returns the valid events of a feed, filtered and sorted.
func (uc *FeedUseCase) ListEvents(ctx context.Context, req dto.EventListRequest) (*dto.EventListResponse, error) {
	key, err := uc.ResolveFeed(req.Feed)
	if err != nil {
		return nil, err
	}

	since, err := parseSince(req.Since)
	if err != nil {
		return nil, err
	}
	if req.Sort == "distance" && (req.NearLat == nil || req.NearLon == nil) {
		return nil, errors.ErrInvalidRequest.WithMessage("sort=distance requires near_lat and near_lon")
	}
	area, err := eventArea(req)
	if err != nil {
		return nil, err
	}

	snapshot, err := uc.GetFeed(ctx, key)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	quakes := cluster.Earthquakes(snapshot.Features)
	events := make([]dto.EventDTO, 0, len(quakes))
	for _, q := range quakes {
		if req.MinMagnitude != nil && q.Magnitude < *req.MinMagnitude {
			continue
		}
		if req.MaxMagnitude != nil && q.Magnitude > *req.MaxMagnitude {
			continue
		}
		if since > 0 && now.Sub(q.Time) > since {
			continue
		}
		if area != nil && !area.Contains(q.Lon, q.Lat) {
			continue
		}

		ev := toEventDTO(q, now)
		if req.NearLat != nil && req.NearLon != nil {
			d := utils.HaversineDistance(*req.NearLat, *req.NearLon, q.Lat, q.Lon)
			ev.DistanceKm = &d
		}
		events = append(events, ev)
	}

	sortEvents(events, req.Sort)

	total := len(events)
	limit := req.Limit
	if limit <= 0 {
		limit = defaultEventLimit
	}
	if len(events) > limit {
		events = events[:limit]
	}

	return &dto.EventListResponse{
		Feed:      key.String(),
		Events:    events,
		Total:     total,
		FetchedAt: snapshot.FetchedAt,
	}, nil
}

// eventArea returns the optional viewport of an event list. The edges come as a set;
// west may exceed east for a box crossing the antimeridian.
func eventArea(req dto.EventListRequest) (*domain.BoundingBox, error) {
	edges := []*float64{req.West, req.South, req.East, req.North}
	set := 0
	for _, e := range edges {
		if e != nil {
			set++
		}
	}
	switch {
	case set == 0:
		return nil, nil
	case set < len(edges):
		return nil, errors.ErrInvalidRequest.WithMessage("area filter requires west, south, east and north")
	case *req.South > *req.North:
		return nil, errors.ErrInvalidRequest.WithMessage("south must not exceed north")
	}
	return &domain.BoundingBox{West: *req.West, South: *req.South, East: *req.East, North: *req.North}, nil
}

// GetEvent finds one event of a feed by ID.
func (uc *FeedUseCase) GetEvent(ctx context.Context, feed, id string) (*dto.EventDTO, error) {
	key, err := uc.ResolveFeed(feed)
	if err != nil {
		return nil, err
	}

	snapshot, err := uc.GetFeed(ctx, key)
	if err != nil {
		return nil, err
	}

	for _, q := range cluster.Earthquakes(snapshot.Features) {
		if q.ID == id {
			ev := toEventDTO(q, uc.now())
			return &ev, nil
		}
	}

	return nil, errors.ErrEventNotFound.WithDetails(map[string]interface{}{
		"id":   id,
		"feed": key.String(),
	})
}

// SearchEvents runs a custom catalog search. It bypasses the cache.
func (uc *FeedUseCase) SearchEvents(ctx context.Context, req dto.EventSearchRequest) (*dto.EventListResponse, error) {
	if uc.searcher == nil {
		return nil, errors.ErrFeedUnavailable.WithMessage("Event search is not configured")
	}

	query, err := buildEventQuery(req, uc.now())
	if err != nil {
		return nil, err
	}

	features, err := uc.searcher.SearchEvents(ctx, query)
	uc.metrics.FeedFetched(domain.SourceUSGS, err, len(features), "search")
	if err != nil {
		uc.logger.Error("Event search failed", zap.Error(err))
		return nil, errors.ErrFeedUnavailable
	}

	now := uc.now()
	quakes := cluster.Earthquakes(features)
	events := make([]dto.EventDTO, 0, len(quakes))
	for _, q := range quakes {
		events = append(events, toEventDTO(q, now))
	}
	sortEvents(events, "time")

	return &dto.EventListResponse{
		Feed:      "search",
		Events:    events,
		Total:     len(events),
		FetchedAt: now.UTC(),
	}, nil
}

func buildEventQuery(req dto.EventSearchRequest, now time.Time) (domain.EventQuery, error) {
	query := domain.EventQuery{
		EndTime:      now.UTC(),
		StartTime:    now.UTC().AddDate(0, 0, -30),
		MinMagnitude: req.MinMagnitude,
		Limit:        req.Limit,
	}

	if req.Start != "" {
		t, err := time.Parse(time.DateOnly, req.Start)
		if err != nil {
			return domain.EventQuery{}, errors.ErrInvalidRequest.WithMessage("start must be YYYY-MM-DD")
		}
		query.StartTime = t
	}
	if req.End != "" {
		t, err := time.Parse(time.DateOnly, req.End)
		if err != nil {
			return domain.EventQuery{}, errors.ErrInvalidRequest.WithMessage("end must be YYYY-MM-DD")
		}
		query.EndTime = t.Add(24*time.Hour - time.Second)
	}
	if query.EndTime.Before(query.StartTime) {
		return domain.EventQuery{}, errors.ErrInvalidRequest.WithMessage("end is before start")
	}

	edges := []*float64{req.West, req.South, req.East, req.North}
	set := 0
	for _, e := range edges {
		if e != nil {
			set++
		}
	}
	switch set {
	case 0:
	case 4:
		if *req.South > *req.North {
			return domain.EventQuery{}, errors.ErrInvalidBBox
		}
		query.BBox = &domain.BoundingBox{West: *req.West, South: *req.South, East: *req.East, North: *req.North}
	default:
		return domain.EventQuery{}, errors.ErrInvalidBBox.WithMessage("west, south, east and north must be given together")
	}

	return query, nil
}

// parseSince reads a Go duration such as "6h" or "30m"; empty means no limit.
func parseSince(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.ErrInvalidRequest.WithMessage("since must be a positive duration like 6h")
	}
	return d, nil
}

func sortEvents(events []dto.EventDTO, by string) {
	switch by {
	case "magnitude":
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Magnitude > events[j].Magnitude
		})
	case "distance":
		sort.SliceStable(events, func(i, j int) bool {
			return distanceOf(events[i]) < distanceOf(events[j])
		})
	default:
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Time.After(events[j].Time)
		})
	}
}

func distanceOf(e dto.EventDTO) float64 {
	if e.DistanceKm == nil {
		return 0
	}
	return *e.DistanceKm
}

func toEventDTO(q domain.Earthquake, now time.Time) dto.EventDTO {
	return dto.EventDTO{
		ID:           q.ID,
		Lon:          q.Lon,
		Lat:          q.Lat,
		Depth:        q.Depth,
		Magnitude:    q.Magnitude,
		Place:        q.Place,
		Time:         q.Time,
		URL:          q.URL,
		Color:        string(cluster.MagnitudeColor(q.Magnitude)),
		Band:         cluster.BandLabel(q.Magnitude),
		MagnitudeFmt: utils.FormatMagnitude(q.Magnitude),
		DepthFmt:     utils.FormatDepth(q.Depth),
		TimeFmt:      utils.FormatTime(q.Time),
		RelativeTime: utils.FormatRelativeTime(q.Time, now),
		Coordinates:  utils.FormatCoordinates(q.Lat, q.Lon),
	}
}
