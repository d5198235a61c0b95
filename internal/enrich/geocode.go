package enrich

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Coordinates is one geocoding hit.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Geocoder resolves street addresses through Nominatim. The usage
// policy caps anonymous clients at one request per second, enforced
// here with a limiter rather than sleeps.
type Geocoder struct {
	client    *http.Client
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
}

// NewGeocoder builds a Nominatim geocoder. baseURL is overridable for
// tests.
func NewGeocoder(baseURL, userAgent string) *Geocoder {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	if userAgent == "" {
		userAgent = "openings-cli/1.0"
	}
	return &Geocoder{
		client:    &http.Client{Timeout: 10 * time.Second},
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: userAgent,
		limiter:   rate.NewLimiter(rate.Limit(1), 1),
	}
}

// Geocode resolves an address. A nil result with nil error means no
// match.
func (g *Geocoder) Geocode(ctx context.Context, address, city, state, zip string) (*Coordinates, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit wait")
	}

	query := address + ", " + city + ", " + state
	if zip != "" {
		query += " " + zip
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: query %q", query)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, eris.Errorf("geocode: status %d: %s", resp.StatusCode, string(body))
	}

	var hits []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return nil, eris.Wrap(err, "geocode: decode response")
	}
	if len(hits) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(hits[0].Lat, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: parse latitude")
	}
	lng, err := strconv.ParseFloat(hits[0].Lon, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: parse longitude")
	}
	return &Coordinates{Latitude: lat, Longitude: lng}, nil
}
