package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeedKey(t *testing.T) {
	tests := []struct {
		input    string
		expected FeedKey
		wantErr  bool
	}{
		{input: "usgs:2.5_day", expected: FeedKey{Source: SourceUSGS, Magnitude: "2.5", Period: "day"}},
		{input: " usgs:significant_month ", expected: FeedKey{Source: SourceUSGS, Magnitude: "significant", Period: "month"}},
		{input: "usgs:all_hour", expected: FeedKey{Source: SourceUSGS, Magnitude: "all", Period: "hour"}},
		{input: "phivolcs:latest", expected: FeedKey{Source: SourcePHIVOLCS, Period: "latest"}},
		{input: "phivolcs:week", wantErr: true},
		{input: "usgs:3.0_day", wantErr: true},
		{input: "usgs:2.5_year", wantErr: true},
		{input: "usgs:2.5", wantErr: true},
		{input: "emsc:latest", wantErr: true},
		{input: "2.5_day", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			key, err := ParseFeedKey(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, key)
		})
	}
}

func TestFeedKey_String(t *testing.T) {
	for _, s := range []string{"usgs:4.5_week", "phivolcs:latest", "usgs:significant_day"} {
		key, err := ParseFeedKey(s)
		require.NoError(t, err)
		assert.Equal(t, s, key.String())
	}

	key := FeedKey{Source: SourceUSGS, Magnitude: "1.0", Period: "hour"}
	assert.Equal(t, "1.0_hour", key.FeedName())
}

func TestEarthquake_Raw(t *testing.T) {
	at := time.Date(2025, 10, 18, 9, 30, 0, 0, time.UTC)
	q := Earthquake{ID: "us1", Lon: 121.5, Lat: 23.6, Depth: 14, Magnitude: 5.3, Place: "Hualien", Time: at}

	raw := q.Raw()
	assert.Equal(t, "us1", raw.ID)
	assert.Equal(t, []float64{121.5, 23.6, 14}, raw.Coordinates)
	require.NotNil(t, raw.Magnitude)
	assert.Equal(t, 5.3, *raw.Magnitude)
	require.NotNil(t, raw.Time)
	assert.Equal(t, at.UnixMilli(), *raw.Time)
}
