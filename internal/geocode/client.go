// Package geocode resolves free-text locations to coordinates via the
// OpenCage forward-geocoding API. Resolution is an enrichment: every
// failure mode collapses into ErrUnresolvedLocation and callers carry
// on without coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/reliefgrid/relief-api/internal/apperr"
	"github.com/reliefgrid/relief-api/internal/models"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
	} `json:"results"`
	Status struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
}

// Resolve geocodes a free-text location and returns the first result's
// coordinate pair. Any provider error, timeout, or empty result set is
// reported as apperr.ErrUnresolvedLocation.
func (c *Client) Resolve(ctx context.Context, location string) (*models.Coordinate, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.Wrap(apperr.ErrUnresolvedLocation, "empty location")
	}
	if c.apiKey == "" {
		return nil, errors.Wrap(apperr.ErrUnresolvedLocation, "geocoding api key not configured")
	}

	params := url.Values{}
	params.Set("q", location)
	params.Set("key", c.apiKey)
	params.Set("limit", "1")

	endpoint := fmt.Sprintf("%s/geocode/v1/json?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(apperr.ErrUnresolvedLocation, err.Error())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(apperr.ErrUnresolvedLocation, "geocoding request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(apperr.ErrUnresolvedLocation, "geocoding provider returned status %d", resp.StatusCode)
	}

	var payload geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrapf(apperr.ErrUnresolvedLocation, "decode geocoding response: %v", err)
	}

	if len(payload.Results) == 0 {
		return nil, errors.Wrapf(apperr.ErrUnresolvedLocation, "no coordinates found for %q", location)
	}

	geometry := payload.Results[0].Geometry
	return &models.Coordinate{Lat: geometry.Lat, Lng: geometry.Lng}, nil
}
