package phivolcs

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quakemap/internal/config"
	"github.com/quakemap/internal/domain"
)

// Bulletin times are Philippine Standard Time, which has no DST.
var pht = time.FixedZone("PHT", 8*60*60)

var timeLayouts = []string{
	"02 January 2006 - 03:04 PM",
	"2 January 2006 - 03:04 PM",
	"02 January 2006 - 15:04",
}

// namespace seeds the deterministic event ids; the bulletin table has none of its own.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://earthquake.phivolcs.dost.gov.ph"))

type Client struct {
	httpClient *http.Client
	baseURL    string
	maxRows    int
	logger     *zap.Logger
}

// NewClient creates a scraper for the PHIVOLCS latest earthquake bulletin page.
func NewClient(cfg *config.PHIVOLCSConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	maxRows := cfg.MaxRows
	if maxRows <= 0 {
		maxRows = 100
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		maxRows:    maxRows,
		logger:     logger,
	}
}

func (c *Client) Source() string {
	return domain.SourcePHIVOLCS
}

// FetchFeed scrapes the latest events table.
func (c *Client) FetchFeed(ctx context.Context, key domain.FeedKey) ([]domain.RawFeature, error) {
	if key.Source != domain.SourcePHIVOLCS {
		return nil, fmt.Errorf("phivolcs client cannot serve feed %s", key)
	}

	doc, err := c.fetchDocument(ctx)
	if err != nil {
		return nil, err
	}

	features := c.parse(doc)
	c.logger.Debug("PHIVOLCS bulletin parsed", zap.Int("features", len(features)))
	return features, nil
}

func (c *Client) fetchDocument(ctx context.Context) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to fetch PHIVOLCS bulletin", zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Error("PHIVOLCS returned error", zap.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("phivolcs error: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bulletin page: %w", err)
	}
	return doc, nil
}

// parse reads rows of (date, lat, lon, depth, magnitude, location). Rows that do not
// have six cells are skipped; unparsable numbers are left empty for validation to drop.
func (c *Client) parse(doc *goquery.Document) []domain.RawFeature {
	var features []domain.RawFeature

	doc.Find("table tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		if len(features) >= c.maxRows {
			return false
		}
		tds := tr.Find("td")
		if tds.Length() < 6 {
			return true
		}

		date := strings.TrimSpace(tds.Eq(0).Text())
		ts, ok := parseTime(date)
		if !ok {
			// header and legend rows
			return true
		}

		lat, latErr := parseFloat(tds.Eq(1).Text())
		lon, lonErr := parseFloat(tds.Eq(2).Text())
		depth, depthErr := parseFloat(tds.Eq(3).Text())
		place := strings.Join(strings.Fields(tds.Eq(5).Text()), " ")

		f := domain.RawFeature{
			ID:    uuid.NewSHA1(namespace, []byte(date+"|"+origin(place))).String(),
			Place: place,
			Time:  &ts,
		}
		if latErr == nil && lonErr == nil {
			f.Coordinates = []float64{lon, lat}
			if depthErr == nil {
				f.Coordinates = append(f.Coordinates, depth)
			}
		}
		if mag, err := parseFloat(tds.Eq(4).Text()); err == nil {
			f.Magnitude = &mag
		}
		if link, ok := tds.Eq(0).Find("a").Attr("href"); ok && link != "" {
			f.URL = c.baseURL + "/" + strings.TrimLeft(strings.ReplaceAll(link, "\\", "/"), "/")
		}

		features = append(features, f)
		return true
	})

	return features
}

func parseTime(s string) (int64, bool) {
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, pht); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// origin strips the distance and bearing prefix, "004 km N 45° W of Calatagan" -> "Calatagan".
func origin(place string) string {
	if i := strings.Index(place, "of "); i != -1 {
		return strings.TrimSpace(place[i+3:])
	}
	return place
}
