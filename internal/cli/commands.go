package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/quakemap/internal/cluster"
	"github.com/quakemap/internal/domain"
	"github.com/quakemap/internal/pkg/utils"
	"github.com/quakemap/internal/pkg/validator"
	"github.com/quakemap/internal/usecase"
	"github.com/quakemap/internal/usecase/dto"
)

func newLegendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "legend",
		Short: "Print the magnitude color bands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			bands := cluster.Legend()
			if cc.Output == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), dto.LegendResponse{Bands: bands})
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "BAND\tFROM\tCOLOR")
			for _, b := range bands {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Label, utils.FormatMagnitude(b.MinMagnitude), b.Color)
			}
			return tw.Flush()
		},
	}
}

type markersOptions struct {
	feed         string
	west         float64
	south        float64
	east         float64
	north        float64
	zoom         float64
	minMagnitude float64
	since        string
	geoJSON      bool
}

func newMarkersCmd() *cobra.Command {
	opts := &markersOptions{}

	cmd := &cobra.Command{
		Use:   "markers",
		Short: "Cluster a feed into map markers for a viewport",
		Example: `  quakectl markers --feed usgs:4.5_week --zoom 3
  quakectl markers -f all_day.geojson --west 116 --south 4 --east 127 --north 21 --zoom 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			req := dto.MarkersRequest{
				Feed:         opts.feed,
				West:         opts.west,
				South:        opts.south,
				East:         opts.east,
				North:        opts.north,
				Zoom:         opts.zoom,
				MinMagnitude: floatFlag(cmd.Flags(), "min-magnitude", opts.minMagnitude),
				Since:        opts.since,
			}
			if err := validator.Validate(&req); err != nil {
				return fmt.Errorf("invalid viewport: %w", err)
			}

			feedUC, err := cc.feedUseCase()
			if err != nil {
				return err
			}
			markerUC := usecase.NewMarkerUseCase(feedUC, cc.engine(), nil, cc.Logger)

			ctx, cancel := cc.withTimeout(cmd)
			defer cancel()

			resp, err := markerUC.GetMarkers(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.geoJSON {
				raw, err := usecase.MarkersToGeoJSON(resp).MarshalJSON()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(raw))
				return err
			}
			if cc.Output == OutputJSON {
				return writeJSON(out, resp)
			}
			return printMarkers(out, resp)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.feed, "feed", "", "feed key, e.g. usgs:2.5_day (default from config)")
	f.Float64Var(&opts.west, "west", domain.WorldBounds.West, "west edge in degrees")
	f.Float64Var(&opts.south, "south", domain.WorldBounds.South, "south edge in degrees")
	f.Float64Var(&opts.east, "east", domain.WorldBounds.East, "east edge in degrees")
	f.Float64Var(&opts.north, "north", domain.WorldBounds.North, "north edge in degrees")
	f.Float64Var(&opts.zoom, "zoom", 2, "map zoom level")
	f.Float64Var(&opts.minMagnitude, "min-magnitude", 0, "drop events below this magnitude")
	f.StringVar(&opts.since, "since", "", "only events newer than this duration, e.g. 6h")
	f.BoolVar(&opts.geoJSON, "geojson", false, "print markers as a GeoJSON feature collection")

	return cmd
}

func printMarkers(w io.Writer, resp *dto.MarkersResponse) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "feed %s, zoom %d, %d events considered\n", resp.Feed, resp.Zoom, resp.Considered)
	if resp.Degraded {
		fmt.Fprintf(tw, "degraded: %s\n", resp.Reason)
	}
	fmt.Fprintln(tw, "TYPE\tID\tLAT\tLON\tMAG\tDEPTH\tCOUNT\tSIZE\tCOLOR")
	for _, m := range resp.Markers {
		count := 1
		if m.Type == string(domain.MarkerCluster) {
			count = m.Count
		}
		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%.3f\t%s\t%s\t%d\t%.1f\t%s\n",
			m.Type, m.ID, m.Lat, m.Lon,
			utils.FormatMagnitude(m.Magnitude), utils.FormatDepth(m.Depth),
			count, m.Size, m.Color)
	}
	return tw.Flush()
}

type eventsOptions struct {
	feed         string
	minMagnitude float64
	maxMagnitude float64
	since        string
	sort         string
	nearLat      float64
	nearLon      float64
	west         float64
	south        float64
	east         float64
	north        float64
	limit        int
}

func newEventsCmd() *cobra.Command {
	opts := &eventsOptions{}

	cmd := &cobra.Command{
		Use:     "events",
		Aliases: []string{"ls"},
		Short:   "List the events of a feed",
		Example: `  quakectl events --sort magnitude --limit 10
  quakectl events --sort distance --near-lat 14.6 --near-lon 121.0
  quakectl events --west 116 --south 4 --east 127 --north 21`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			req := dto.EventListRequest{
				Feed:         opts.feed,
				MinMagnitude: floatFlag(flags, "min-magnitude", opts.minMagnitude),
				MaxMagnitude: floatFlag(flags, "max-magnitude", opts.maxMagnitude),
				Since:        opts.since,
				Sort:         opts.sort,
				NearLat:      floatFlag(flags, "near-lat", opts.nearLat),
				NearLon:      floatFlag(flags, "near-lon", opts.nearLon),
				West:         floatFlag(flags, "west", opts.west),
				South:        floatFlag(flags, "south", opts.south),
				East:         floatFlag(flags, "east", opts.east),
				North:        floatFlag(flags, "north", opts.north),
				Limit:        opts.limit,
			}
			if err := validator.Validate(&req); err != nil {
				return fmt.Errorf("invalid filter: %w", err)
			}

			feedUC, err := cc.feedUseCase()
			if err != nil {
				return err
			}

			ctx, cancel := cc.withTimeout(cmd)
			defer cancel()

			resp, err := feedUC.ListEvents(ctx, req)
			if err != nil {
				return err
			}

			if cc.Output == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			return printEvents(cmd.OutOrStdout(), resp)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.feed, "feed", "", "feed key, e.g. usgs:2.5_day (default from config)")
	f.Float64Var(&opts.minMagnitude, "min-magnitude", 0, "minimum magnitude")
	f.Float64Var(&opts.maxMagnitude, "max-magnitude", 0, "maximum magnitude")
	f.StringVar(&opts.since, "since", "", "only events newer than this duration, e.g. 24h")
	f.StringVar(&opts.sort, "sort", "time", "sort order (time|magnitude|distance)")
	f.Float64Var(&opts.nearLat, "near-lat", 0, "reference latitude for distance")
	f.Float64Var(&opts.nearLon, "near-lon", 0, "reference longitude for distance")
	f.Float64Var(&opts.west, "west", 0, "west edge of an area filter")
	f.Float64Var(&opts.south, "south", 0, "south edge of an area filter")
	f.Float64Var(&opts.east, "east", 0, "east edge of an area filter")
	f.Float64Var(&opts.north, "north", 0, "north edge of an area filter")
	cmd.MarkFlagsRequiredTogether("west", "south", "east", "north")
	f.IntVar(&opts.limit, "limit", 20, "maximum number of events")

	return cmd
}

func printEvents(w io.Writer, resp *dto.EventListResponse) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "feed %s, showing %d of %d\n", resp.Feed, len(resp.Events), resp.Total)
	fmt.Fprintln(tw, "TIME\tMAG\tDEPTH\tDIST\tPLACE\tID")
	for _, e := range resp.Events {
		dist := "-"
		if e.DistanceKm != nil {
			dist = fmt.Sprintf("%.0f km", *e.DistanceKm)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.TimeFmt, e.MagnitudeFmt, e.DepthFmt, dist, e.Place, e.ID)
	}
	return tw.Flush()
}

func newStatsCmd() *cobra.Command {
	var feed string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise a feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			feedUC, err := cc.feedUseCase()
			if err != nil {
				return err
			}
			statsUC := usecase.NewStatsUseCase(feedUC, nil, nil, cc.Logger, 0)

			ctx, cancel := cc.withTimeout(cmd)
			defer cancel()

			stats, err := statsUC.GetStatistics(ctx, feed)
			if err != nil {
				return err
			}

			if cc.Output == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			return printStats(cmd.OutOrStdout(), stats)
		},
	}

	cmd.Flags().StringVar(&feed, "feed", "", "feed key, e.g. usgs:2.5_day (default from config)")
	return cmd
}

func printStats(w io.Writer, s *domain.Statistics) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Feed:\t%s\n", s.Feed)
	fmt.Fprintf(tw, "Events:\t%d (%d valid)\n", s.Total, s.Valid)
	fmt.Fprintf(tw, "Max magnitude:\t%s\n", utils.FormatMagnitude(s.MaxMagnitude))
	fmt.Fprintf(tw, "Avg magnitude:\t%s\n", utils.FormatMagnitude(s.AvgMagnitude))
	fmt.Fprintf(tw, "Avg depth:\t%s\n", utils.FormatDepth(s.AvgDepth))
	if s.Strongest != nil {
		fmt.Fprintf(tw, "Strongest:\t%s %s\n", utils.FormatMagnitude(s.Strongest.Magnitude), s.Strongest.Place)
	}
	if s.Latest != nil {
		fmt.Fprintf(tw, "Latest:\t%s %s\n", utils.FormatTime(s.Latest.Time), s.Latest.Place)
	}

	bands := make([]string, 0, len(s.ByBand))
	for _, b := range cluster.Legend() {
		if n := s.ByBand[b.Label]; n > 0 {
			bands = append(bands, fmt.Sprintf("%s=%d", b.Label, n))
		}
	}
	if len(bands) > 0 {
		fmt.Fprintf(tw, "By band:\t%s\n", strings.Join(bands, " "))
	}
	return tw.Flush()
}

// floatFlag returns nil unless the flag was set, so unset filters stay off.
func floatFlag(fs *pflag.FlagSet, name string, v float64) *float64 {
	if !fs.Changed(name) {
		return nil
	}
	return &v
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
