// Package overpass fetches trail network geometry from the Overpass API
// and parses it into ways. Trail-type filtering happens in the query; the
// engine downstream treats the type tag as opaque.
package overpass

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dpup/trailcover/internal/lib/geo"
	"github.com/dpup/trailcover/internal/lib/network"
)

// DefaultEndpoint is the public Overpass API interpreter
const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

const userAgent = "trailcover/0.1"

// Client queries the Overpass API for trail ways
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// NewClient creates a new Overpass client; an empty endpoint selects the
// public interpreter
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		endpoint: endpoint,
	}
}

// FetchRaw downloads the raw Overpass JSON snapshot for all trail-typed
// ways inside bounds. The caller owns caching of the snapshot.
func (c *Client) FetchRaw(ctx context.Context, bounds geo.Bounds) ([]byte, error) {
	query := buildQuery(bounds)

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	log.Printf("Fetching trails from Overpass API (%s)", c.endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query Overpass API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d from Overpass API", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Overpass response: %w", err)
	}
	return body, nil
}

// FetchWays downloads and parses the trail network inside bounds
func (c *Client) FetchWays(ctx context.Context, bounds geo.Bounds) ([]network.Way, error) {
	body, err := c.FetchRaw(ctx, bounds)
	if err != nil {
		return nil, err
	}
	return ParseWays(body)
}

// buildQuery assembles the Overpass QL for path, track, and footway ways
// with inline geometry
func buildQuery(b geo.Bounds) string {
	bbox := fmt.Sprintf("%g,%g,%g,%g", b.South, b.West, b.North, b.East)
	return fmt.Sprintf(`[out:json][timeout:60];
(
  way["highway"="path"](%s);
  way["highway"="track"](%s);
  way["highway"="footway"](%s);
);
out geom;`, bbox, bbox, bbox)
}
