// Package enrich fills venue contact fields from the Google Places API
// and coordinates from Nominatim, respecting provider rate limits.
package enrich

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// PlaceDetails is what one Places lookup yields for a venue.
type PlaceDetails struct {
	PlaceID string
	Phone   string
	Website string
}

// PlacesClient resolves a venue to its public contact details. A nil
// result with nil error means the venue was not found.
type PlacesClient interface {
	Lookup(ctx context.Context, name, address, city string) (*PlaceDetails, error)
}

// GooglePlacesClient implements PlacesClient against the Places Web
// Service (find-place then details).
type GooglePlacesClient struct {
	client       *http.Client
	apiKey       string
	baseURL      string
	regionSuffix string
}

// NewGooglePlacesClient builds a client. baseURL is overridable for
// tests; regionSuffix is appended to the text query ("TX").
func NewGooglePlacesClient(apiKey, baseURL, regionSuffix string) *GooglePlacesClient {
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com/maps/api/place"
	}
	return &GooglePlacesClient{
		client:       &http.Client{Timeout: 15 * time.Second},
		apiKey:       apiKey,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		regionSuffix: regionSuffix,
	}
}

func (c *GooglePlacesClient) Lookup(ctx context.Context, name, address, city string) (*PlaceDetails, error) {
	placeID, err := c.findPlaceID(ctx, name, address, city)
	if err != nil {
		return nil, err
	}
	if placeID == "" {
		return nil, nil
	}

	details, err := c.placeDetails(ctx, placeID)
	if err != nil {
		return nil, err
	}
	details.PlaceID = placeID
	return details, nil
}

func (c *GooglePlacesClient) findPlaceID(ctx context.Context, name, address, city string) (string, error) {
	query := strings.TrimSpace(strings.Join([]string{name, address, city, c.regionSuffix}, " "))
	params := url.Values{}
	params.Set("input", query)
	params.Set("inputtype", "textquery")
	params.Set("fields", "place_id")
	params.Set("key", c.apiKey)

	var resp struct {
		Status     string `json:"status"`
		Candidates []struct {
			PlaceID string `json:"place_id"`
		} `json:"candidates"`
	}
	if err := c.get(ctx, "/findplacefromtext/json", params, &resp); err != nil {
		return "", eris.Wrapf(err, "places: find %q", name)
	}
	if resp.Status != "OK" || len(resp.Candidates) == 0 {
		return "", nil
	}
	return resp.Candidates[0].PlaceID, nil
}

func (c *GooglePlacesClient) placeDetails(ctx context.Context, placeID string) (*PlaceDetails, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "formatted_phone_number,website")
	params.Set("key", c.apiKey)

	var resp struct {
		Status string `json:"status"`
		Result struct {
			Phone   string `json:"formatted_phone_number"`
			Website string `json:"website"`
		} `json:"result"`
	}
	if err := c.get(ctx, "/details/json", params, &resp); err != nil {
		return nil, eris.Wrapf(err, "places: details %s", placeID)
	}
	if resp.Status != "OK" {
		return &PlaceDetails{}, nil
	}
	return &PlaceDetails{Phone: resp.Result.Phone, Website: resp.Result.Website}, nil
}

func (c *GooglePlacesClient) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return eris.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return eris.Wrap(json.NewDecoder(resp.Body).Decode(out), "decode response")
}
