package dto

// MarkersRequest selects the markers of one viewport.
type MarkersRequest struct {
	Feed         string   `json:"feed" validate:"omitempty,feedkey"`
	West         float64  `json:"west" validate:"gte=-540,lte=540"`
	South        float64  `json:"south" validate:"gte=-90,lte=90"`
	East         float64  `json:"east" validate:"gte=-540,lte=540"`
	North        float64  `json:"north" validate:"gte=-90,lte=90,gtefield=South"`
	Zoom         float64  `json:"zoom" validate:"gte=0,lte=24"`
	MinMagnitude *float64 `json:"min_magnitude,omitempty" validate:"omitempty,gte=-2,lte=10"`
	Since        string   `json:"since,omitempty"`
}

// EventListRequest drives the filterable event list.
type EventListRequest struct {
	Feed         string   `json:"feed" validate:"omitempty,feedkey"`
	MinMagnitude *float64 `json:"min_magnitude,omitempty" validate:"omitempty,gte=-2,lte=10"`
	MaxMagnitude *float64 `json:"max_magnitude,omitempty" validate:"omitempty,gte=-2,lte=10"`
	Since        string   `json:"since,omitempty"`
	Sort         string   `json:"sort" validate:"omitempty,sortfield"`
	NearLat      *float64 `json:"near_lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	NearLon      *float64 `json:"near_lon,omitempty" validate:"omitempty,gte=-180,lte=180"`
	West         *float64 `json:"west,omitempty" validate:"omitempty,gte=-180,lte=180"`
	South        *float64 `json:"south,omitempty" validate:"omitempty,gte=-90,lte=90"`
	East         *float64 `json:"east,omitempty" validate:"omitempty,gte=-180,lte=180"`
	North        *float64 `json:"north,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Limit        int      `json:"limit" validate:"omitempty,min=1,max=1000"`
}

// EventSearchRequest is a custom catalog search.
type EventSearchRequest struct {
	Start        string   `json:"start" validate:"omitempty,datetime=2006-01-02"`
	End          string   `json:"end" validate:"omitempty,datetime=2006-01-02"`
	MinMagnitude *float64 `json:"min_magnitude,omitempty" validate:"omitempty,gte=-2,lte=10"`
	West         *float64 `json:"west,omitempty" validate:"omitempty,gte=-180,lte=180"`
	South        *float64 `json:"south,omitempty" validate:"omitempty,gte=-90,lte=90"`
	East         *float64 `json:"east,omitempty" validate:"omitempty,gte=-180,lte=180"`
	North        *float64 `json:"north,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Limit        int      `json:"limit" validate:"omitempty,min=1,max=20000"`
}
